package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/ui"
)

// ConversationInfo displays the chat partner's profile.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Contact Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// FocusTarget implements Component.
func (ci *ConversationInfo) FocusTarget() tview.Primitive { return ci }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders the partner profile and the chat summary, if known.
func (ci *ConversationInfo) Update(p *rpc.Profile, chat *rpc.ChatSummary) {
	ci.Clear()
	if p == nil {
		return
	}

	fg := colorNameFromTheme(ci.theme.FgColor)
	ct := colorNameFromTheme(ci.theme.CounterColor)

	bio := p.Description
	if bio == "" {
		bio = "-"
	}
	joined := "-"
	if p.JoinedAt != 0 {
		joined = time.UnixMilli(p.JoinedAt).Format("2006-01-02")
	}
	unread, last := 0, "-"
	if chat != nil {
		unread = chat.UnreadCount
		if chat.LastMessageAt != 0 {
			last = formatTimestamp(chat.LastMessageAt)
		}
	}

	row := func(label, value string) string {
		return fmt.Sprintf(" [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, tview.Escape(sanitizeForTerminal(value)))
	}
	text := "\n" +
		row("Username", p.Username) +
		row("User ID", p.ID) +
		row("Status", presenceLabel(p.IsOnline, p.LastSeen)) +
		row("Joined", joined) +
		row("Bio", bio) +
		row("Avatar", orDash(p.AvatarURL)) +
		row("Unread", fmt.Sprint(unread)) +
		row("Last Message", last)

	_, _ = fmt.Fprint(ci, text)
	ci.SetTitle(fmt.Sprintf(" %s ", tview.Escape(p.Username)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func colorNameFromTheme(c interface{ Hex() int32 }) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
