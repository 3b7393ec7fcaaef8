package main

import (
	"net/url"
	"testing"
)

func TestInviteURL(t *testing.T) {
	got := inviteURL("a+b@example.com")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Scheme != "chatrise" || u.Query().Get("email") != "a+b@example.com" {
		t.Errorf("inviteURL = %q", got)
	}
}

func TestOptInt(t *testing.T) {
	if n := optInt([]string{"history", "bob"}, 2); n != 0 {
		t.Errorf("missing arg = %d", n)
	}
	if n := optInt([]string{"history", "bob", "25"}, 2); n != 25 {
		t.Errorf("got %d", n)
	}
}
