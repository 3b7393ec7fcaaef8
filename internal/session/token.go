package session

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// ErrNoToken is returned when a profile has not logged in.
var ErrNoToken = errors.New("not logged in")

// SaveToken stores the session token for a profile with 0600 permissions.
func SaveToken(name, token string) error {
	if err := EnsureDir(name); err != nil {
		return err
	}
	return os.WriteFile(TokenPath(name), []byte(token+"\n"), 0600)
}

// LoadToken returns the stored session token, or ErrNoToken.
func LoadToken(name string) (string, error) {
	data, err := os.ReadFile(TokenPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// ClearToken removes the stored session token. A missing token is not an error.
func ClearToken(name string) error {
	err := os.Remove(TokenPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
