package chatlist

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/store"
	"github.com/matheus3301/chatrise/internal/store/storetest"
)

type fixture struct {
	db       *store.DB
	contacts *contacts.Manager
	messages *messaging.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storetest.DB(t)
	fs, err := files.New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		db:       db,
		contacts: contacts.NewManager(db, nil, nil),
		messages: messaging.NewService(db, nil, fs, 0, nil),
	}
}

func (f *fixture) befriend(t *testing.T, a, b *store.User) {
	t.Helper()
	ctx := context.Background()
	id, err := f.contacts.SendRequest(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.contacts.AcceptRequest(ctx, id, b.ID); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) insert(t *testing.T, from, to string, body string, at int64) {
	t.Helper()
	m := &store.Message{SenderID: from, RecipientID: to, Body: body, SentAt: at, Kind: store.KindPrivate}
	if err := f.db.InsertMessage(context.Background(), m); err != nil {
		t.Fatal(err)
	}
}

func TestAliceBobScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := storetest.User(t, f.db, "alice")
	bob := storetest.User(t, f.db, "bob")

	reqID, err := f.contacts.SendRequestByEmail(ctx, alice.ID, "bob@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.contacts.AcceptRequest(ctx, reqID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.messages.SendPrivate(ctx, alice.ID, bob.ID, "hello", nil); err != nil {
		t.Fatal(err)
	}

	agg := NewAggregator(f.db, f.contacts, f.messages, FromFriends)
	chats, err := agg.ListChats(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 {
		t.Fatalf("chats = %d, want 1", len(chats))
	}
	c := chats[0]
	if c.PartnerID != alice.ID || c.PartnerName != "alice" || c.LastMessageBody != "hello" || c.UnreadCount != 1 {
		t.Errorf("summary = %+v", c)
	}

	if _, err := f.messages.ListConversation(ctx, bob.ID, alice.ID, 0); err != nil {
		t.Fatal(err)
	}
	chats, _ = agg.ListChats(ctx, bob.ID)
	if chats[0].UnreadCount != 0 {
		t.Errorf("unread after opening = %d, want 0", chats[0].UnreadCount)
	}
}

func TestOrderingByLastMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := storetest.User(t, f.db, "me")
	p1 := storetest.User(t, f.db, "p1")
	p2 := storetest.User(t, f.db, "p2")
	quiet := storetest.User(t, f.db, "quiet")
	f.befriend(t, me, p1)
	f.befriend(t, p2, me)
	f.befriend(t, me, quiet)

	now := time.Now().UnixMilli()
	f.insert(t, p1.ID, me.ID, "older", now-2000)
	f.insert(t, me.ID, p2.ID, "newer", now-1000)
	// quiet has no messages; its lastSeen sorts it between the two.
	if _, err := f.db.SetPresence(ctx, quiet.ID, false, now-1500); err != nil {
		t.Fatal(err)
	}

	agg := NewAggregator(f.db, f.contacts, f.messages, FromFriends)
	chats, err := agg.ListChats(ctx, me.ID)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range chats {
		names = append(names, c.PartnerName)
	}
	want := []string{"p2", "quiet", "p1"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	if chats[0].UnreadCount != 0 || chats[2].UnreadCount != 1 {
		t.Errorf("unread counts = %d, %d", chats[0].UnreadCount, chats[2].UnreadCount)
	}
	if chats[1].LastMessageBody != "" || chats[1].LastMessageAt != 0 {
		t.Errorf("quiet summary = %+v", chats[1])
	}
}

func TestMessageSourceToleratesUnknownPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := storetest.User(t, f.db, "me")
	known := storetest.User(t, f.db, "known")

	f.insert(t, known.ID, me.ID, "hi", 1000)
	f.insert(t, "deleted-user-id", me.ID, "boo", 2000)

	agg := NewAggregator(f.db, f.contacts, f.messages, FromMessages)
	chats, err := agg.ListChats(ctx, me.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 {
		t.Fatalf("chats = %d, want 2", len(chats))
	}
	if chats[0].PartnerName != UnknownUser || chats[0].LastMessageBody != "boo" || chats[0].UnreadCount != 1 {
		t.Errorf("unknown partner summary = %+v", chats[0])
	}
	if chats[1].PartnerName != "known" {
		t.Errorf("second = %+v", chats[1])
	}
}

func TestAttachmentOnlyPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := storetest.User(t, f.db, "me")
	p := storetest.User(t, f.db, "p")
	f.befriend(t, me, p)

	att, err := f.messages.UploadAttachment(ctx, "photo.png", []byte("not really a png"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.messages.SendPrivate(ctx, p.ID, me.ID, "", att); err != nil {
		t.Fatal(err)
	}
	chats, err := NewAggregator(f.db, f.contacts, f.messages, FromFriends).ListChats(ctx, me.ID)
	if err != nil {
		t.Fatal(err)
	}
	if chats[0].LastMessageBody != "[photo.png]" {
		t.Errorf("preview = %q", chats[0].LastMessageBody)
	}
}

func TestEmptyList(t *testing.T) {
	f := newFixture(t)
	me := storetest.User(t, f.db, "me")
	chats, err := NewAggregator(f.db, f.contacts, f.messages, "").ListChats(context.Background(), me.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 0 {
		t.Errorf("chats = %v, want empty", chats)
	}
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	me := storetest.User(t, f.db, "me")
	p := storetest.User(t, f.db, "p")
	f.befriend(t, me, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAggregator(f.db, f.contacts, f.messages, FromFriends).ListChats(ctx, me.ID); err == nil {
		t.Error("expected error for canceled context")
	}
}
