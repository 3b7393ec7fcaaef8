package views

import (
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/ui"
)

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(0); got != "" {
		t.Errorf("zero timestamp: got %q", got)
	}
	now := time.Now()
	if got := formatTimestamp(now.UnixMilli()); got != now.Format("15:04") {
		t.Errorf("today: got %q, want %q", got, now.Format("15:04"))
	}
	old := now.AddDate(0, 0, -3)
	if got := formatTimestamp(old.UnixMilli()); got != old.Format("01/02") {
		t.Errorf("older: got %q, want %q", got, old.Format("01/02"))
	}
}

func TestPresenceLabel(t *testing.T) {
	now := time.Now()
	tests := []struct {
		online   bool
		lastSeen int64
		want     string
	}{
		{true, 0, "online"},
		{false, 0, "offline"},
		{false, now.Add(-10 * time.Second).UnixMilli(), "just now"},
		{false, now.Add(-5*time.Minute - time.Second).UnixMilli(), "5m ago"},
		{false, now.Add(-3*time.Hour - time.Second).UnixMilli(), "3h ago"},
		{false, now.Add(-50 * time.Hour).UnixMilli(), "2d ago"},
	}
	for _, tt := range tests {
		if got := presenceLabel(tt.online, tt.lastSeen); got != tt.want {
			t.Errorf("presenceLabel(%v, %d) = %q, want %q", tt.online, tt.lastSeen, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !containsFold("Hello World", "wORLD") {
		t.Error("expected case-insensitive match")
	}
	if containsFold("Hello", "bye") {
		t.Error("unexpected match")
	}
}

func TestConversationListFilter(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update([]rpc.ChatSummary{
		{PartnerID: "a", PartnerName: "alice", LastMessageBody: "lunch?"},
		{PartnerID: "b", PartnerName: "bob", LastMessageBody: "see you"},
	})
	if c := cl.ChatByIndex(2); c == nil || c.PartnerID != "b" {
		t.Fatalf("ChatByIndex(2) = %+v", c)
	}

	cl.SetFilter("LUNCH")
	if c := cl.ChatByIndex(1); c == nil || c.PartnerID != "a" {
		t.Fatalf("filtered ChatByIndex(1) = %+v", c)
	}
	if c := cl.ChatByIndex(2); c != nil {
		t.Fatalf("filtered list should have one row, got %+v", c)
	}

	cl.ClearFilter()
	if c := cl.ChatByIndex(0); c != nil {
		t.Fatal("index 0 is the header")
	}
}

func TestContactEntriesPendingFirst(t *testing.T) {
	entries := contactEntries(
		[]rpc.Friend{{UserID: "f1", Username: "fred", RequestID: "r1", Resolved: true}},
		[]rpc.PendingRequest{{UserID: "p1", RequestID: "r2"}},
	)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if !entries[0].Pending || entries[0].Username != "Unknown User" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Pending || entries[1].Username != "fred" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestResultPartner(t *testing.T) {
	tests := []struct {
		msg  rpc.Message
		want string
	}{
		{rpc.Message{SenderID: "me", RecipientID: "bob", Kind: "private"}, "bob"},
		{rpc.Message{SenderID: "bob", RecipientID: "me", Kind: "private"}, "bob"},
		{rpc.Message{SenderID: "bob", RecipientID: "GLOBAL", Kind: "global"}, "GLOBAL"},
	}
	for _, tt := range tests {
		if got := resultPartner(tt.msg, "me"); got != tt.want {
			t.Errorf("resultPartner(%+v) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestRenderQR(t *testing.T) {
	out := renderQR(InviteURL("alice@example.com"))
	if !strings.ContainsAny(out, "█▀▄") {
		t.Fatalf("no QR blocks in output:\n%s", out)
	}
	if got := InviteURL("a+b@example.com"); got != "chatrise:add?email=a%2Bb%40example.com" {
		t.Errorf("InviteURL = %q", got)
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"\x1b[31mred", "[31mred"},
		{"thumbs \U0001F44D\U0001F3FB", "thumbs \U0001F44D"},
		{"heart ❤️", "heart ❤"},
		{"line1\nline2", "line1\nline2"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSingleLine(t *testing.T) {
	if got := singleLine("  first\n\tsecond  \r\nthird "); got != "first second third" {
		t.Errorf("singleLine = %q", got)
	}
}

func TestHighlight(t *testing.T) {
	const c = "#ffffff"
	if got, want := highlight("Hello hello", "HELLO", c), "[#ffffff::b]Hello[-::-] [#ffffff::b]hello[-::-]"; got != want {
		t.Errorf("highlight = %q, want %q", got, want)
	}
	if got := highlight("[red] a.b", "", c); got != tview.Escape("[red] a.b") {
		t.Errorf("empty query = %q", got)
	}
	if got, want := highlight("a.b axb", ".", c), "a[#ffffff::b].[-::-]b axb"; got != want {
		t.Errorf("literal query = %q, want %q", got, want)
	}
}
