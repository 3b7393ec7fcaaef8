package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUser(t *testing.T, db *DB, name string) *User {
	t.Helper()
	u := &User{Username: name, Email: name + "@x.com", PasswordHash: "h", JoinedAt: 1}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so run it again to check idempotency.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 || result.From != 1 {
		t.Errorf("result = %+v, want from 1 to 1", result)
	}
}

func TestMigrateReportsFreshUpgrade(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.From != 0 || result.Version != 1 {
		t.Errorf("result = %+v, want 0 -> 1 changed", result)
	}
}

func TestMigrateRefusesDirtySchema(t *testing.T) {
	db := testDB(t)
	if _, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); !errors.Is(err, ErrDirtySchema) {
		t.Fatalf("Migrate() error = %v, want ErrDirtySchema", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustUser(t, db, "alice")

	tests := []struct {
		desc string
		user User
	}{
		{"same username", User{Username: "alice", Email: "other@x.com", PasswordHash: "h"}},
		{"same email different case", User{Username: "alice2", Email: "ALICE@x.com", PasswordHash: "h"}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			u := tt.user
			err := db.CreateUser(ctx, &u)
			if !errors.Is(err, ErrDuplicate) {
				t.Errorf("err = %v, want ErrDuplicate", err)
			}
		})
	}

	// Case differs only: exact-match uniqueness allows it.
	if err := db.CreateUser(ctx, &User{Username: "Alice", Email: "a2@x.com", PasswordHash: "h"}); err != nil {
		t.Errorf("Alice should be allowed next to alice: %v", err)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	db := testDB(t)
	bob := mustUser(t, db, "bob")

	u, err := db.GetUserByEmail(context.Background(), "  BOB@X.COM ")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.ID != bob.ID {
		t.Fatalf("got %v, want bob", u)
	}

	u, err = db.GetUser(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Error("expected nil for missing user")
	}
}

func TestPresence(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")

	if ok, err := db.SetPresence(ctx, a.ID, true, 1000); err != nil || !ok {
		t.Fatalf("SetPresence a: ok=%v err=%v", ok, err)
	}
	if _, err := db.SetPresence(ctx, b.ID, true, 5000); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.SetPresence(ctx, "nobody", true, 1); ok {
		t.Error("SetPresence on missing user should report false")
	}

	n, err := db.CountOnline(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountOnline = %d, %v; want 2", n, err)
	}

	stale, err := db.MarkStaleOffline(ctx, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0].ID != a.ID || stale[0].LastSeen != 1000 {
		t.Errorf("stale = %+v, want [{%s 1000}]", stale, a.ID)
	}
	got, _ := db.GetUser(ctx, a.ID)
	if got.IsOnline || got.LastSeen != 1000 {
		t.Errorf("a after sweep = online %v lastSeen %d", got.IsOnline, got.LastSeen)
	}
}

func TestContactRequestPairUnique(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")

	if err := db.CreateContactRequest(ctx, &ContactRequest{FromID: a.ID, ToID: b.ID, CreatedAt: 1}); err != nil {
		t.Fatal(err)
	}
	// Reverse direction hits the same canonical pair.
	err := db.CreateContactRequest(ctx, &ContactRequest{FromID: b.ID, ToID: a.ID, CreatedAt: 2})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	r, err := db.FindContactRequest(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.FromID != a.ID || r.Status != RequestPending {
		t.Fatalf("got %+v", r)
	}
}

func TestPairKeyCanonical(t *testing.T) {
	if PairKey("b", "a") != PairKey("a", "b") {
		t.Error("PairKey must not depend on order")
	}
	if PairKey("a", "b") != "a:b" {
		t.Errorf("PairKey = %q", PairKey("a", "b"))
	}
}

func TestListContactEdges(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	me := mustUser(t, db, "me")
	f1 := mustUser(t, db, "f1")
	f2 := mustUser(t, db, "f2")
	in := mustUser(t, db, "in")
	out := mustUser(t, db, "out")

	reqs := []*ContactRequest{
		{FromID: me.ID, ToID: f1.ID, CreatedAt: 1},
		{FromID: f2.ID, ToID: me.ID, CreatedAt: 2},
		{FromID: in.ID, ToID: me.ID, CreatedAt: 3},
		{FromID: me.ID, ToID: out.ID, CreatedAt: 4},
	}
	for _, r := range reqs {
		if err := db.CreateContactRequest(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	for i, at := range []int64{10, 20} {
		if _, err := db.AcceptContactRequest(ctx, reqs[i].ID, at); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		filter EdgeFilter
		want   []string
	}{
		{EdgeAccepted, []string{"f2", "f1"}},
		{EdgeIncoming, []string{"in"}},
		{EdgeOutgoing, []string{"out"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.filter), func(t *testing.T) {
			edges, err := db.ListContactEdges(ctx, me.ID, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(edges) != len(tt.want) {
				t.Fatalf("got %d edges, want %d", len(edges), len(tt.want))
			}
			for i, e := range edges {
				if e.Partner == nil || e.Partner.Username != tt.want[i] {
					t.Errorf("edge %d partner = %+v, want %s", i, e.Partner, tt.want[i])
				}
			}
		})
	}
}

func TestAcceptOnlyPending(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	r := &ContactRequest{FromID: a.ID, ToID: b.ID, CreatedAt: 1}
	if err := db.CreateContactRequest(ctx, r); err != nil {
		t.Fatal(err)
	}
	if changed, err := db.AcceptContactRequest(ctx, r.ID, 5); err != nil || !changed {
		t.Fatalf("first accept = %v, %v", changed, err)
	}
	if changed, err := db.AcceptContactRequest(ctx, r.ID, 9); err != nil || changed {
		t.Fatalf("second accept = %v, %v, want unchanged", changed, err)
	}
	got, _ := db.GetContactRequest(ctx, r.ID)
	if got.AcceptedAt != 5 {
		t.Errorf("acceptedAt = %d, want 5 (second accept must not restamp)", got.AcceptedAt)
	}

	if err := db.DeleteContactRequest(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetContactRequest(ctx, r.ID); got != nil {
		t.Error("request should be gone")
	}
	if changed, err := db.AcceptContactRequest(ctx, r.ID, 12); err != nil || changed {
		t.Errorf("accept of deleted request = %v, %v, want unchanged", changed, err)
	}
}

func TestConversationNewestWindowAscending(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	c := mustUser(t, db, "c")

	for i := 1; i <= 5; i++ {
		from, to := a.ID, b.ID
		if i%2 == 0 {
			from, to = b.ID, a.ID
		}
		m := &Message{SenderID: from, RecipientID: to, Body: fmt.Sprintf("m%d", i), SentAt: int64(i), Kind: KindPrivate}
		if err := db.InsertMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	// Noise: other pair and global.
	_ = db.InsertMessage(ctx, &Message{SenderID: c.ID, RecipientID: a.ID, Body: "x", SentAt: 3, Kind: KindPrivate})
	_ = db.InsertMessage(ctx, &Message{SenderID: a.ID, RecipientID: GlobalRecipient, Body: "g", SentAt: 3, Kind: KindGlobal, IsRead: true})

	msgs, err := db.ListConversation(ctx, a.ID, b.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	var bodies []string
	for _, m := range msgs {
		bodies = append(bodies, m.Body)
	}
	if fmt.Sprint(bodies) != "[m3 m4 m5]" {
		t.Errorf("bodies = %v, want [m3 m4 m5]", bodies)
	}
	if msgs[0].SenderName != "a" {
		t.Errorf("sender name = %q, want a", msgs[0].SenderName)
	}
}

func TestMarkReadAndUnread(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")

	for i := 0; i < 3; i++ {
		_ = db.InsertMessage(ctx, &Message{SenderID: a.ID, RecipientID: b.ID, Body: "hi", SentAt: int64(i), Kind: KindPrivate})
	}
	n, err := db.UnreadCount(ctx, b.ID, a.ID)
	if err != nil || n != 3 {
		t.Fatalf("UnreadCount = %d, %v; want 3", n, err)
	}
	changed, err := db.MarkRead(ctx, b.ID, a.ID)
	if err != nil || changed != 3 {
		t.Fatalf("MarkRead changed = %d, %v; want 3", changed, err)
	}
	changed, err = db.MarkRead(ctx, b.ID, a.ID)
	if err != nil || changed != 0 {
		t.Fatalf("second MarkRead changed = %d, %v; want 0", changed, err)
	}
	if n, _ := db.UnreadCount(ctx, b.ID, a.ID); n != 0 {
		t.Errorf("UnreadCount after MarkRead = %d", n)
	}
}

func TestLastMessageAndPartners(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	c := mustUser(t, db, "c")

	_ = db.InsertMessage(ctx, &Message{SenderID: a.ID, RecipientID: b.ID, Body: "1", SentAt: 1, Kind: KindPrivate})
	_ = db.InsertMessage(ctx, &Message{SenderID: c.ID, RecipientID: a.ID, Body: "2", SentAt: 2, Kind: KindPrivate})
	_ = db.InsertMessage(ctx, &Message{SenderID: b.ID, RecipientID: a.ID, Body: "3", SentAt: 3, Kind: KindPrivate,
		Attachment: &Attachment{URL: "file:///f", Name: "f.png", MimeType: "image/png"}})

	last, err := db.LastMessage(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Body != "3" || last.Attachment == nil || last.Attachment.Name != "f.png" {
		t.Fatalf("last = %+v", last)
	}

	ids, err := db.RecentPartners(ctx, a.ID, 200)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids) != fmt.Sprint([]string{b.ID, c.ID}) {
		t.Errorf("partners = %v", ids)
	}

	if m, _ := db.LastMessage(ctx, b.ID, c.ID); m != nil {
		t.Error("expected no message between b and c")
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	c := mustUser(t, db, "c")

	_ = db.InsertMessage(ctx, &Message{SenderID: a.ID, RecipientID: b.ID, Body: "hello world", SentAt: 1, Kind: KindPrivate})
	_ = db.InsertMessage(ctx, &Message{SenderID: b.ID, RecipientID: c.ID, Body: "hello secret", SentAt: 2, Kind: KindPrivate})
	_ = db.InsertMessage(ctx, &Message{SenderID: c.ID, RecipientID: GlobalRecipient, Body: "hello room", SentAt: 3, Kind: KindGlobal, IsRead: true})
	_ = db.InsertMessage(ctx, &Message{SenderID: a.ID, RecipientID: b.ID, Body: "100% done", SentAt: 4, Kind: KindPrivate})

	results, err := db.SearchMessages(ctx, a.ID, "hello", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (own private + global)", len(results))
	}
	if results[0].Body != "hello room" {
		t.Errorf("newest first: got %q", results[0].Body)
	}

	results, err = db.SearchMessages(ctx, a.ID, "0%", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Body != "100% done" {
		t.Errorf("literal %% search = %v", results)
	}
}

func TestSessions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "u")

	for _, s := range []*Session{
		{ID: "s1", UserID: u.ID, CreatedAt: 1, ExpiresAt: 100},
		{ID: "s2", UserID: u.ID, CreatedAt: 1, ExpiresAt: 10},
		{ID: "s3", UserID: u.ID, CreatedAt: 1, ExpiresAt: 100},
	} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	n, err := db.DeleteExpiredSessions(ctx, 50)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredSessions = %d, %v; want 1", n, err)
	}
	if err := db.DeleteOtherSessions(ctx, u.ID, "s1"); err != nil {
		t.Fatal(err)
	}
	if s, _ := db.GetSession(ctx, "s3"); s != nil {
		t.Error("s3 should be deleted")
	}
	if s, _ := db.GetSession(ctx, "s1"); s == nil {
		t.Error("s1 should be kept")
	}
}
