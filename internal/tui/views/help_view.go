package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/tui/ui"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// FocusTarget implements Component.
func (hv *HelpView) FocusTarget() tview.Primitive { return hv }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := fmt.Sprintf("#%06x", hv.theme.MenuKeyColor.Hex())
	k := func(key string) string { return "[" + kc + "]" + key + "[-:-:-]" }

	help := `
  [::b]Global Keys[-:-:-]

  ` + k(":") + `      Command mode        ` + k("Esc") + `    Cancel / Go back
  ` + k("/") + `      Filter mode         ` + k("?") + `      Help
  ` + k("q") + `      Quit / Back         ` + k("Ctrl-C") + ` Quit immediately
  ` + k("Ctrl-Z") + ` Suspend (go offline)

  [::b]Conversation List[-:-:-]

  ` + k("Enter") + `  Open conversation   ` + k("0") + `      Show all (clear filter)
  ` + k("1-9") + `    Jump to Nth chat    ` + k("g") + `      Global room
  ` + k("c") + `      Contacts            ` + k("p") + `      My profile
  ` + k("j/Down") + ` Move down           ` + k("k/Up") + `   Move up

  [::b]Message Thread[-:-:-]

  ` + k("i") + `      Focus composer      ` + k("d") + `      Contact details
  ` + k("Esc") + `    Exit composer       ` + k("Enter") + `  Send message (in composer)

  [::b]Contacts[-:-:-]

  ` + k("Enter") + `  Accept request / open chat
  ` + k("x") + `      Reject, cancel or unfriend

  [::b]Commands (: mode)[-:-:-]

  ` + k(":search <query>") + `  Search messages
  ` + k(":chat <name>") + `     Open chat by name
  ` + k(":add <email>") + `     Send a contact request
  ` + k(":global") + `          Open the global room
  ` + k(":contacts") + `        Show contacts and requests
  ` + k(":profile") + `         Show my profile and QR code
  ` + k(":bio <text>") + `      Update my bio
  ` + k(":logout") + `          Sign out
  ` + k(":help") + ` / ` + k(":h") + `      Show this help
  ` + k(":quit") + ` / ` + k(":q") + `      Quit application
`

	_, _ = fmt.Fprint(hv, help)
}
