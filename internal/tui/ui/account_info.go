package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// AccountData holds account information for display.
type AccountData struct {
	Profile  string
	Username string
	Server   string
	// Presence is the heartbeat tracker state.
	Presence string
	Online   int64
	Friends  int
	Pending  int
}

// AccountInfo displays account metadata in the header.
type AccountInfo struct {
	*tview.TextView
	theme *Theme
}

// NewAccountInfo creates a new account info panel.
func NewAccountInfo(theme *Theme) *AccountInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &AccountInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the account info.
func (ai *AccountInfo) Update(data *AccountData) {
	ai.Clear()
	if data == nil {
		return
	}

	fgColor := colorName(ai.theme.FgColor)
	counterColor := colorName(ai.theme.CounterColor)

	user := data.Username
	if user == "" {
		user = "-"
	}

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Server:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Online:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Friends:[-:-:-] [%s]%d (+%d)[-]",
		fgColor, counterColor, tview.Escape(data.Profile),
		fgColor, counterColor, tview.Escape(user),
		fgColor, counterColor, tview.Escape(data.Server),
		fgColor, counterColor, data.Presence,
		fgColor, counterColor, data.Online,
		fgColor, counterColor, data.Friends, data.Pending,
	)

	_, _ = fmt.Fprint(ai, text)
}
