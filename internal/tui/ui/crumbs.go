package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	maxCrumbs     = 4
	maxCrumbWidth = 24
)

// Crumbs renders the page stack as a breadcrumb trail.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates a breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update redraws the trail. The last name is highlighted.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	names := trail(stack)
	if len(names) == 0 {
		return
	}
	active := fmt.Sprintf("[%s:%s:b]", colorName(c.theme.CrumbActiveFg), colorName(c.theme.CrumbActiveBg))
	inactive := fmt.Sprintf("[%s:%s:]", colorName(c.theme.CrumbInactiveFg), colorName(c.theme.CrumbInactiveBg))

	parts := make([]string, len(names))
	for i, name := range names {
		style := inactive
		if i == len(names)-1 {
			style = active
		}
		parts[i] = style + " " + tview.Escape(name) + " [-:-:-]"
	}
	_, _ = fmt.Fprint(c, strings.Join(parts, " > "))
}

// trail shortens long names and keeps the root plus the newest pages when
// the stack is deeper than maxCrumbs.
func trail(stack []string) []string {
	out := make([]string, 0, maxCrumbs)
	if len(stack) > maxCrumbs {
		out = append(out, stack[0], "…")
		stack = stack[len(stack)-(maxCrumbs-2):]
	}
	for _, s := range stack {
		out = append(out, truncate(s, maxCrumbWidth))
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// colorName returns a tview color tag for c.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
