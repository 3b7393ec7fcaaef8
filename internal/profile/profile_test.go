package profile

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/store"
	"github.com/matheus3301/chatrise/internal/store/storetest"
)

// 1x1 GIF.
var gifPixel = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newTestService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db := storetest.DB(t)
	fs, err := files.New(t.TempDir(), "https://files.test")
	if err != nil {
		t.Fatal(err)
	}
	return NewService(db, fs, nil), db
}

func TestGetProfile(t *testing.T) {
	svc, db := newTestService(t)
	u := storetest.User(t, db, "alice")

	p, err := svc.GetProfile(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "alice" || p.Email != "alice@x.com" {
		t.Errorf("profile = %+v", p)
	}

	if _, err := svc.GetProfile(context.Background(), "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestUpdateDescription(t *testing.T) {
	svc, db := newTestService(t)
	u := storetest.User(t, db, "alice")
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
		kind  apperr.Kind
		ok    bool
	}{
		{"short", "hi there", 0, true},
		{"exactly 500 runes", strings.Repeat("ü", 500), 0, true},
		{"501 characters", strings.Repeat("a", 501), apperr.Validation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateProfileField(ctx, u.ID, FieldDescription, tt.value, "")
			if tt.ok {
				if err != nil {
					t.Fatal(err)
				}
				got, _ := db.GetUser(ctx, u.ID)
				if got.Description != tt.value {
					t.Errorf("description not saved")
				}
				return
			}
			if !apperr.Is(err, tt.kind) {
				t.Errorf("err = %v, want %v", err, tt.kind)
			}
		})
	}

	before, _ := db.GetUser(ctx, u.ID)
	_ = svc.UpdateProfileField(ctx, u.ID, FieldDescription, strings.Repeat("a", 501), "")
	after, _ := db.GetUser(ctx, u.ID)
	if after.Description != before.Description {
		t.Error("rejected update must not mutate")
	}
}

func setPassword(t *testing.T, db *store.DB, userID, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdatePasswordHash(context.Background(), userID, string(hash)); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateUsername(t *testing.T) {
	svc, db := newTestService(t)
	alice := storetest.User(t, db, "alice")
	storetest.User(t, db, "bob")
	setPassword(t, db, alice.ID, "secret123")
	ctx := context.Background()

	tests := []struct {
		name     string
		value    string
		password string
		kind     apperr.Kind
	}{
		{"no password", "mallory", "", apperr.Unauthorized},
		{"wrong password", "mallory", "wrong-pass", apperr.Unauthorized},
		{"taken", "bob", "secret123", apperr.Conflict},
		{"too short", "x", "secret123", apperr.Validation},
		{"unknown field", "x@y.z", "secret123", apperr.Validation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := FieldUsername
			if tt.name == "unknown field" {
				field = "email"
			}
			if err := svc.UpdateProfileField(ctx, alice.ID, field, tt.value, tt.password); !apperr.Is(err, tt.kind) {
				t.Errorf("err = %v, want kind %v", err, tt.kind)
			}
		})
	}
	if got, _ := db.GetUser(ctx, alice.ID); got.Username != "alice" {
		t.Fatalf("rejected updates changed username to %q", got.Username)
	}

	// Exact-match uniqueness: a case variant is a different name.
	if err := svc.UpdateProfileField(ctx, alice.ID, FieldUsername, "Bob", "secret123"); err != nil {
		t.Errorf("case variant should be allowed: %v", err)
	}
	if err := svc.UpdateProfileField(ctx, alice.ID, FieldUsername, "Bob", "secret123"); err != nil {
		t.Errorf("renaming to own name is a no-op: %v", err)
	}
	got, _ := db.GetUser(ctx, alice.ID)
	if got.Username != "Bob" {
		t.Errorf("username = %q, want Bob", got.Username)
	}
}

func TestUploadAvatar(t *testing.T) {
	svc, db := newTestService(t)
	u := storetest.User(t, db, "alice")
	ctx := context.Background()

	url1, err := svc.UploadAvatar(ctx, u.ID, "me.gif", gifPixel)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url1, "https://files.test/") {
		t.Errorf("url = %q", url1)
	}
	first, _ := db.GetUser(ctx, u.ID)

	url2, err := svc.UploadAvatar(ctx, u.ID, "me2.gif", gifPixel)
	if err != nil {
		t.Fatal(err)
	}
	if url2 == url1 {
		t.Error("new upload should get a new url")
	}
	if _, err := svc.files.Get(first.AvatarKey); err == nil {
		t.Error("old avatar should be deleted")
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not an image", []byte("plain text, not an image")},
		{"too large", append(append([]byte{}, gifPixel...), bytes.Repeat([]byte{0}, MaxAvatarBytes)...)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UploadAvatar(ctx, u.ID, "x", tt.data); !apperr.Is(err, apperr.Validation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}

func TestListUsersExcludesCaller(t *testing.T) {
	svc, db := newTestService(t)
	me := storetest.User(t, db, "me")
	storetest.User(t, db, "zed")
	storetest.User(t, db, "amy")

	users, err := svc.ListUsers(context.Background(), me.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].Username != "amy" || users[1].Username != "zed" {
		t.Errorf("users = %+v", users)
	}
}
