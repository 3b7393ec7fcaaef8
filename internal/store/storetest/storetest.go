// Package storetest provides migrated throwaway databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatrise/internal/store"
)

// DB opens a migrated database under t.TempDir and closes it on cleanup.
func DB(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// User inserts a user named name with email name@x.com.
func User(t testing.TB, db *store.DB, name string) *store.User {
	t.Helper()
	u := &store.User{
		Username:     name,
		Email:        name + "@x.com",
		PasswordHash: "x",
		JoinedAt:     time.Now().UnixMilli(),
		LastSeen:     time.Now().UnixMilli(),
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}
