package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

const (
	menuRows     = 6
	menuColWidth = 22
)

// Menu displays keyboard shortcut hints in columns of up to six rows.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders menu hints column by column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	rows := make([]strings.Builder, menuRows)
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		plain := fmt.Sprintf("<%s> %s", h.Key, h.Description)
		pad := menuColWidth - len(plain)
		if pad < 1 {
			pad = 1
		}
		row := &rows[i%menuRows]
		fmt.Fprintf(row, "[%s::b]<%s>[-:-:-] %s%s", kc, tview.Escape(h.Key), h.Description, strings.Repeat(" ", pad))
	}

	var out strings.Builder
	for i := range rows {
		if rows[i].Len() == 0 {
			break
		}
		out.WriteString(strings.TrimRight(rows[i].String(), " "))
		out.WriteByte('\n')
	}
	return out.String()
}
