package views

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/ui"
)

// ProfileView shows the signed-in user's profile and a contact QR code.
type ProfileView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)

	return &ProfileView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (pv *ProfileView) Name() string { return "Profile" }

// FocusTarget implements Component.
func (pv *ProfileView) FocusTarget() tview.Primitive { return pv }

// Hints implements Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: ":bio", Description: "Edit bio"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders p and a QR code others can scan to add p as a contact.
func (pv *ProfileView) Update(p *rpc.Profile) {
	pv.Clear()
	if p == nil {
		return
	}
	fg := colorNameFromTheme(pv.theme.FgColor)
	ct := colorNameFromTheme(pv.theme.CounterColor)

	row := func(label, value string) string {
		return fmt.Sprintf(" [%s::b]%-9s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, tview.Escape(sanitizeForTerminal(value)))
	}
	joined := "-"
	if p.JoinedAt != 0 {
		joined = time.UnixMilli(p.JoinedAt).Format("2006-01-02")
	}

	text := "\n" +
		row("Username", p.Username) +
		row("Email", orDash(p.Email)) +
		row("User ID", p.ID) +
		row("Joined", joined) +
		row("Bio", orDash(p.Description)) +
		row("Avatar", orDash(p.AvatarURL))
	_, _ = fmt.Fprint(pv, text)

	if p.Email != "" {
		_, _ = fmt.Fprintf(pv, "\n  Scan to add me as a contact:\n\n%s", renderQR(InviteURL(p.Email)))
	}
	pv.ScrollToBeginning()
}

// InviteURL is the payload encoded in contact QR codes.
func InviteURL(email string) string {
	return "chatrise:add?" + url.Values{"email": {email}}.Encode()
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}
	qr.DisableBorder = false

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder

	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
