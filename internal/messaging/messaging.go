// Package messaging stores and reads private and global-room messages.
package messaging

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/store"
)

const (
	DefaultConversationLimit = 100
	DefaultGlobalLimit       = 50
	MaxBody                  = 4000
)

// Message is a delivered chat message.
type Message = store.Message

// Attachment is a file reference carried by a message.
type Attachment = store.Attachment

// ReadEvent is the payload of message.read events.
type ReadEvent struct {
	RecipientID string
	SenderID    string
	Count       int64
}

// Service implements the messaging operations.
type Service struct {
	db            *store.DB
	bus           *bus.Bus
	files         *files.Store
	maxAttachment int64
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a messaging service. b and fs may be nil.
func NewService(db *store.DB, b *bus.Bus, fs *files.Store, maxAttachment int64, logger *zap.Logger) *Service {
	if maxAttachment <= 0 {
		maxAttachment = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, bus: b, files: fs, maxAttachment: maxAttachment, logger: logger, now: time.Now}
}

func checkBody(op, body string, hasAttachment bool) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" && !hasAttachment {
		return "", apperr.New(apperr.Validation, op, "message is empty")
	}
	if utf8.RuneCountInString(body) > MaxBody {
		return "", apperr.Errorf(apperr.Validation, op, "message exceeds %d characters", MaxBody)
	}
	return body, nil
}

// SendPrivate stores an unread private message for recipientID.
func (s *Service) SendPrivate(ctx context.Context, senderID, recipientID, body string, att *Attachment) (string, error) {
	const op = "messaging.send_private"
	if recipientID == "" || recipientID == store.GlobalRecipient {
		return "", apperr.New(apperr.Validation, op, "invalid recipient")
	}
	if att != nil {
		var err error
		if att, err = s.resolveAttachment(op, att); err != nil {
			return "", err
		}
	}
	body, err := checkBody(op, body, att != nil)
	if err != nil {
		return "", err
	}
	recipient, err := s.db.GetUser(ctx, recipientID)
	if err != nil {
		return "", apperr.Wrap(op, err)
	}
	if recipient == nil {
		return "", apperr.New(apperr.NotFound, op, "recipient not found")
	}

	m := &store.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		SentAt:      s.now().UnixMilli(),
		IsRead:      false,
		Kind:        store.KindPrivate,
		Attachment:  att,
	}
	if err := s.db.InsertMessage(ctx, m); err != nil {
		return "", apperr.Wrap(op, err)
	}
	s.publishCreated(ctx, m, []string{senderID, recipientID})
	return m.ID, nil
}

// SendGlobal posts to the global room. Global messages are always read.
func (s *Service) SendGlobal(ctx context.Context, senderID, body string) (string, error) {
	const op = "messaging.send_global"
	body, err := checkBody(op, body, false)
	if err != nil {
		return "", err
	}
	m := &store.Message{
		SenderID:    senderID,
		RecipientID: store.GlobalRecipient,
		Body:        body,
		SentAt:      s.now().UnixMilli(),
		IsRead:      true,
		Kind:        store.KindGlobal,
	}
	if err := s.db.InsertMessage(ctx, m); err != nil {
		return "", apperr.Wrap(op, err)
	}
	s.publishCreated(ctx, m, nil)
	return m.ID, nil
}

// ListConversation returns the newest limit private messages between userA
// and userB, oldest first. Messages from userB to userA are marked read.
func (s *Service) ListConversation(ctx context.Context, userA, userB string, limit int) ([]Message, error) {
	const op = "messaging.list_conversation"
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	msgs, err := s.db.ListConversation(ctx, userA, userB, limit)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if err := s.MarkRead(ctx, userA, userB); err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].RecipientID == userA {
			msgs[i].IsRead = true
		}
	}
	return msgs, nil
}

// ListGlobal returns the newest limit global messages, oldest first.
func (s *Service) ListGlobal(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultGlobalLimit
	}
	msgs, err := s.db.ListGlobal(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap("messaging.list_global", err)
	}
	return msgs, nil
}

// MarkRead flips every unread message from senderID to recipientID.
// Redundant calls are harmless.
func (s *Service) MarkRead(ctx context.Context, recipientID, senderID string) error {
	n, err := s.db.MarkRead(ctx, recipientID, senderID)
	if err != nil {
		return apperr.Wrap("messaging.mark_read", err)
	}
	if n > 0 && s.bus != nil {
		s.bus.Publish(bus.Event{
			Kind:      bus.KindMessageRead,
			Timestamp: s.now(),
			Audience:  []string{recipientID, senderID},
			Payload:   ReadEvent{RecipientID: recipientID, SenderID: senderID, Count: n},
		})
	}
	return nil
}

// UnreadCount returns unread private messages from senderID to recipientID.
func (s *Service) UnreadCount(ctx context.Context, recipientID, senderID string) (int, error) {
	n, err := s.db.UnreadCount(ctx, recipientID, senderID)
	if err != nil {
		return 0, apperr.Wrap("messaging.unread_count", err)
	}
	return n, nil
}

// LastMessage returns the newest private message between a and b, or nil.
func (s *Service) LastMessage(ctx context.Context, a, b string) (*Message, error) {
	m, err := s.db.LastMessage(ctx, a, b)
	if err != nil {
		return nil, apperr.Wrap("messaging.last_message", err)
	}
	return m, nil
}

// RecentPartners returns distinct users userID exchanged private messages
// with, found by scanning the newest scan messages.
func (s *Service) RecentPartners(ctx context.Context, userID string, scan int) ([]string, error) {
	ids, err := s.db.RecentPartners(ctx, userID, scan)
	if err != nil {
		return nil, apperr.Wrap("messaging.recent_partners", err)
	}
	return ids, nil
}

// Search returns messages visible to userID containing query, newest first.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]Message, error) {
	const op = "messaging.search"
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.Validation, op, "query is empty")
	}
	msgs, err := s.db.SearchMessages(ctx, userID, query, limit)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return msgs, nil
}

// resolveAttachment accepts only files uploaded to this server. The stored
// object decides the URL and MIME type; the client name is display-only.
func (s *Service) resolveAttachment(op string, att *Attachment) (*Attachment, error) {
	if att.URL == "" {
		return nil, apperr.New(apperr.Validation, op, "attachment has no url")
	}
	if s.files == nil {
		return nil, apperr.New(apperr.Validation, op, "file uploads are disabled")
	}
	obj, err := s.files.Lookup(att.URL)
	switch {
	case errors.Is(err, files.ErrInvalidKey), errors.Is(err, files.ErrNotFound):
		return nil, apperr.New(apperr.Validation, op, "attachment was not uploaded to this server")
	case err != nil:
		return nil, apperr.Wrap(op, err)
	}
	name := strings.TrimSpace(att.Name)
	if name == "" {
		name = obj.Key
	}
	return &Attachment{URL: obj.URL, Name: name, MimeType: obj.MimeType}, nil
}

// UploadAttachment stores a file and returns a reference suitable for
// SendPrivate.
func (s *Service) UploadAttachment(ctx context.Context, name string, data []byte) (*Attachment, error) {
	const op = "messaging.upload"
	if s.files == nil {
		return nil, apperr.New(apperr.Validation, op, "file uploads are disabled")
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.Validation, op, "empty file")
	}
	if int64(len(data)) > s.maxAttachment {
		return nil, apperr.Errorf(apperr.Validation, op, "attachment exceeds %d bytes", s.maxAttachment)
	}
	obj, err := s.files.Put(ctx, name, data)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return &Attachment{URL: obj.URL, Name: name, MimeType: obj.MimeType}, nil
}

func (s *Service) publishCreated(ctx context.Context, m *store.Message, audience []string) {
	if s.bus == nil {
		return
	}
	// Resolve the sender name so watchers can render without a lookup.
	if u, err := s.db.GetUser(ctx, m.SenderID); err == nil && u != nil {
		m.SenderName = u.Username
	}
	s.bus.Publish(bus.Event{
		Kind:      bus.KindMessageCreated,
		Timestamp: s.now(),
		Audience:  audience,
		Payload:   *m,
	})
}
