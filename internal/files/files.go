// Package files stores uploaded blobs (avatars, attachments) under the
// daemon data directory and hands out durable URLs for them.
package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned for keys that do not name a stored object.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrNotFound is returned for a well-formed key with nothing stored.
	ErrNotFound = errors.New("object not found")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Object describes a stored blob.
type Object struct {
	Key      string
	URL      string
	Name     string
	MimeType string
	Size     int64
}

// Store is a directory-backed blob store.
type Store struct {
	dir     string
	baseURL string
}

// New opens (creating if needed) a store rooted at dir. URLs are baseURL +
// "/" + key; an empty baseURL yields file:// URLs.
func New(dir, baseURL string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "file://" + filepath.ToSlash(abs)
	}
	return &Store{dir: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Sniff returns the detected MIME type of data.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// Put writes data under a fresh key derived from name.
func (s *Store) Put(ctx context.Context, name string, data []byte) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	if clean == "" || clean == "." || clean == "_" {
		clean = "file"
	}
	key := uuid.NewString() + "-" + clean

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("commit object: %w", err)
	}

	return &Object{
		Key:      key,
		URL:      s.URL(key),
		Name:     name,
		MimeType: Sniff(data),
		Size:     int64(len(data)),
	}, nil
}

// Get returns the contents of key.
func (s *Store) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Delete removes key. Deleting a missing object is not an error.
func (s *Store) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Lookup resolves a URL handed out by this store to its object. URLs of
// other origins yield ErrInvalidKey. The MIME type is detected from the
// stored bytes; Name is left empty.
func (s *Store) Lookup(url string) (*Object, error) {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil, ErrInvalidKey
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect type: %w", err)
	}
	return &Object{Key: key, URL: s.URL(key), MimeType: mt.String(), Size: st.Size()}, nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *Store) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}
