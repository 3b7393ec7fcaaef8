package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsKind(t *testing.T) {
	orig := New(Conflict, "profile.update", "username taken")
	wrapped := Wrap("api.update", fmt.Errorf("outer: %w", orig))
	if KindOf(wrapped) != Conflict {
		t.Errorf("kind = %v, want conflict", KindOf(wrapped))
	}
}

func TestWrapUnknownIsTransient(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Wrap("messaging.send", cause)
	if !Is(err, Transient) {
		t.Fatalf("expected transient, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to cause")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestWrapContextCanceled(t *testing.T) {
	err := Wrap("chatlist.list", context.Canceled)
	if !Is(err, Transient) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New(NotFound, "contacts.accept", "request not found"), "contacts.accept: request not found"},
		{&Error{Kind: Unauthorized}, "unauthorized"},
		{Errorf(Validation, "", "description exceeds %d characters", 500), "description exceeds 500 characters"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("x")) != Transient {
		t.Error("plain errors should classify as transient")
	}
}
