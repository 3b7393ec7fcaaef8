package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

var logoArt = []string{
	"╔═╗╦ ╦╔═╗╔╦╗",
	"║  ╠═╣╠═╣ ║ ",
	"╚═╝╩ ╩╩ ╩ ╩ ",
}

// Logo is the header wordmark with the event stream state underneath.
type Logo struct {
	*tview.TextView
	theme *Theme
	live  bool
}

// NewLogo creates the header logo.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)
	l := &Logo{TextView: tv, theme: theme}
	l.render()
	return l
}

// SetLive marks whether server events are streaming.
func (l *Logo) SetLive(live bool) {
	l.live = live
	l.render()
}

func (l *Logo) render() {
	l.Clear()
	title := colorName(l.theme.TitleColor)
	for _, line := range logoArt {
		_, _ = fmt.Fprintf(l, "[%s::b]%s[-:-:-]\n", title, line)
	}
	_, _ = fmt.Fprintf(l, "[%s]rise[-]", colorName(l.theme.FgColor))
	state, color := "○ offline", l.theme.FlashWarnColor
	if l.live {
		state, color = "● live", l.theme.OnlineColor
	}
	_, _ = fmt.Fprintf(l, "  [%s]%s[-]", colorName(color), state)
}
