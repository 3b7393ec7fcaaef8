package validation

import (
	"strings"
	"testing"

	"github.com/matheus3301/chatrise/internal/apperr"
)

type signup struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,chatemail"`
	Password string `validate:"required,min=6"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      signup
		wantMsg string
	}{
		{"valid", signup{"alice", "alice@x.com", "secret1"}, ""},
		{"short username", signup{"al", "alice@x.com", "secret1"}, "username: must be 3-32"},
		{"space in username", signup{"al ice", "alice@x.com", "secret1"}, "username:"},
		{"bad email", signup{"alice", "alice@x", "secret1"}, "email: must be a valid email address"},
		{"short password", signup{"alice", "alice@x.com", "12345"}, "password: must be at least 6 characters"},
		{"missing email", signup{"alice", "", "secret1"}, "email: is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct("auth.register", tt.in)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestVar(t *testing.T) {
	long := strings.Repeat("é", 501)
	err := Var("profile.update", "description", long, "max=500")
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if err := Var("profile.update", "description", strings.Repeat("é", 500), "max=500"); err != nil {
		t.Errorf("500 runes should pass: %v", err)
	}
}

func TestEmail(t *testing.T) {
	for in, want := range map[string]bool{
		"bob@x.com":   true,
		"BOB@X.COM":   true,
		"bob@x":       false,
		"bob x@y.com": false,
		"@x.com":      false,
	} {
		if got := Email(in); got != want {
			t.Errorf("Email(%q) = %v, want %v", in, got, want)
		}
	}
}
