package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/ui"
)

// ContactEntry is one row of the contacts table.
type ContactEntry struct {
	UserID    string
	Username  string
	RequestID string
	// Pending marks an incoming request awaiting acceptance.
	Pending bool
}

// ContactsView lists incoming requests followed by accepted contacts.
type ContactsView struct {
	*tview.Table
	theme   *ui.Theme
	entries []ContactEntry
}

// NewContactsView creates a new contacts table.
func NewContactsView(theme *ui.Theme) *ContactsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Contacts ")
	table.SetTitleColor(theme.TitleColor)

	return &ContactsView{Table: table, theme: theme}
}

// Name implements Component.
func (cv *ContactsView) Name() string { return "Contacts" }

// FocusTarget implements Component.
func (cv *ContactsView) FocusTarget() tview.Primitive { return cv }

// Hints implements Component.
func (cv *ContactsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Accept/Open"},
		{Key: "x", Description: "Remove"},
		{Key: ":add", Description: "Add by email"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update refreshes the table.
func (cv *ContactsView) Update(friends []rpc.Friend, incoming []rpc.PendingRequest) {
	cv.entries = contactEntries(friends, incoming)
	cv.Clear()

	headers := []string{" USER", " STATUS"}
	for col, h := range headers {
		cv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(cv.theme.TableHeaderFg).
			SetBackgroundColor(cv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}

	online := make(map[string]rpc.Friend, len(friends))
	for _, f := range friends {
		online[f.UserID] = f
	}
	for i, e := range cv.entries {
		status := "request (Enter to accept)"
		if !e.Pending {
			f := online[e.UserID]
			status = presenceLabel(f.IsOnline, f.LastSeen)
		}
		cv.SetCell(i+1, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(e.Username))).SetExpansion(1).SetTextColor(cv.theme.FgColor))
		cv.SetCell(i+1, 1, tview.NewTableCell(" "+status).SetExpansion(1).SetTextColor(cv.theme.FgColor))
	}
	cv.SetTitle(fmt.Sprintf(" Contacts (%d, %d pending) ", len(friends), len(incoming)))
}

// Selected returns the selected entry, if any.
func (cv *ContactsView) Selected() *ContactEntry {
	row, _ := cv.GetSelection()
	if row < 1 || row > len(cv.entries) {
		return nil
	}
	e := cv.entries[row-1]
	return &e
}

func contactEntries(friends []rpc.Friend, incoming []rpc.PendingRequest) []ContactEntry {
	out := make([]ContactEntry, 0, len(friends)+len(incoming))
	for _, p := range incoming {
		name := p.Username
		if !p.Resolved {
			name = "Unknown User"
		}
		out = append(out, ContactEntry{UserID: p.UserID, Username: name, RequestID: p.RequestID, Pending: true})
	}
	for _, f := range friends {
		name := f.Username
		if !f.Resolved {
			name = "Unknown User"
		}
		out = append(out, ContactEntry{UserID: f.UserID, Username: name, RequestID: f.RequestID})
	}
	return out
}
