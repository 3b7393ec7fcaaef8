// Package contacts manages contact requests and the relationship they
// imply between two users.
package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/store"
	"github.com/matheus3301/chatrise/internal/validation"
)

// State is the relationship between two users.
type State string

const (
	StateNone     State = "none"
	StatePending  State = "pending"
	StateAccepted State = "accepted"
)

// Relationship describes the contact record between two users, if any.
type Relationship struct {
	State       State
	RequestID   string
	InitiatorID string
}

// Friend is an accepted contact seen from the other side.
type Friend struct {
	UserID     string
	Username   string
	IsOnline   bool
	LastSeen   int64
	RequestID  string
	AcceptedAt int64
	// Resolved is false when the user record could not be loaded.
	Resolved bool
}

// Pending is a pending request seen from one side.
type Pending struct {
	RequestID string
	UserID    string
	Username  string
	CreatedAt int64
	Resolved  bool
}

// SearchResult pairs a found user with the caller's relationship to them.
type SearchResult struct {
	Profile      *profile.Profile
	Relationship Relationship
}

// RequestEvent is the payload of contact.* events.
type RequestEvent struct {
	RequestID string
	FromID    string
	ToID      string
	ActorID   string
}

// Manager implements the contact operations.
type Manager struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a contact manager. b may be nil.
func NewManager(db *store.DB, b *bus.Bus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, bus: b, logger: logger, now: time.Now}
}

func relationshipOf(r *store.ContactRequest) Relationship {
	if r == nil {
		return Relationship{State: StateNone}
	}
	state := StatePending
	if r.Status == store.RequestAccepted {
		state = StateAccepted
	}
	return Relationship{State: state, RequestID: r.ID, InitiatorID: r.FromID}
}

// GetRelationship returns the relationship between a and b in either order.
func (m *Manager) GetRelationship(ctx context.Context, userA, userB string) (Relationship, error) {
	r, err := m.db.FindContactRequest(ctx, userA, userB)
	if err != nil {
		return Relationship{}, apperr.Wrap("contacts.get_relationship", err)
	}
	return relationshipOf(r), nil
}

// SendRequest creates a pending request from fromUserID to toUserID.
// It is rejected for self-requests and when any record already exists for
// the pair; the pair index makes concurrent duplicates fail the same way.
func (m *Manager) SendRequest(ctx context.Context, fromUserID, toUserID string) (string, error) {
	const op = "contacts.send_request"
	if fromUserID == toUserID {
		return "", apperr.New(apperr.Validation, op, "cannot add yourself")
	}
	target, err := m.db.GetUser(ctx, toUserID)
	if err != nil {
		return "", apperr.Wrap(op, err)
	}
	if target == nil {
		return "", apperr.New(apperr.NotFound, op, "user not found")
	}

	existing, err := m.db.FindContactRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return "", apperr.Wrap(op, err)
	}
	if existing != nil {
		return "", conflictFor(op, relationshipOf(existing).State)
	}

	r := &store.ContactRequest{
		FromID:    fromUserID,
		ToID:      toUserID,
		Status:    store.RequestPending,
		CreatedAt: m.now().UnixMilli(),
	}
	if err := m.db.CreateContactRequest(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", conflictFor(op, StatePending)
		}
		return "", apperr.Wrap(op, err)
	}

	m.logger.Info("contact request sent", zap.String("request_id", r.ID),
		zap.String("from", fromUserID), zap.String("to", toUserID))
	m.publish(bus.KindContactRequested, r, fromUserID)
	return r.ID, nil
}

func conflictFor(op string, state State) error {
	if state == StateAccepted {
		return apperr.New(apperr.Conflict, op, "already contacts")
	}
	return apperr.New(apperr.Conflict, op, "a request already exists")
}

// SendRequestByEmail resolves email to a user and sends a request to them.
func (m *Manager) SendRequestByEmail(ctx context.Context, fromUserID, email string) (string, error) {
	const op = "contacts.send_request"
	target, err := m.lookupEmail(ctx, op, email)
	if err != nil {
		return "", err
	}
	return m.SendRequest(ctx, fromUserID, target.ID)
}

// SearchByEmail finds a user by email and reports the caller's relationship
// to them. Searching for yourself is rejected.
func (m *Manager) SearchByEmail(ctx context.Context, callerID, email string) (*SearchResult, error) {
	const op = "contacts.search"
	u, err := m.lookupEmail(ctx, op, email)
	if err != nil {
		return nil, err
	}
	if u.ID == callerID {
		return nil, apperr.New(apperr.Validation, op, "that is your own email")
	}
	rel, err := m.GetRelationship(ctx, callerID, u.ID)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Profile: profile.FromUser(u), Relationship: rel}, nil
}

func (m *Manager) lookupEmail(ctx context.Context, op, email string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validation.Email(email) {
		return nil, apperr.New(apperr.Validation, op, "invalid email address")
	}
	u, err := m.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if u == nil {
		return nil, apperr.New(apperr.NotFound, op, "no user with that email")
	}
	return u, nil
}

// AcceptRequest accepts a request on behalf of its recipient. Accepting an
// already-accepted request succeeds without change.
func (m *Manager) AcceptRequest(ctx context.Context, requestID, actingUserID string) error {
	const op = "contacts.accept"
	r, err := m.db.GetContactRequest(ctx, requestID)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if r == nil {
		return apperr.New(apperr.NotFound, op, "request not found")
	}
	if r.ToID != actingUserID {
		return apperr.New(apperr.Unauthorized, op, "only the recipient can accept")
	}
	if r.Status == store.RequestAccepted {
		return nil
	}
	changed, err := m.db.AcceptContactRequest(ctx, r.ID, m.now().UnixMilli())
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if !changed {
		// Removed or accepted since the read above.
		cur, err := m.db.GetContactRequest(ctx, r.ID)
		if err != nil {
			return apperr.Wrap(op, err)
		}
		if cur == nil {
			return apperr.New(apperr.NotFound, op, "request not found")
		}
		return nil
	}

	m.logger.Info("contact request accepted", zap.String("request_id", r.ID))
	m.publish(bus.KindContactAccepted, r, actingUserID)
	return nil
}

// RemoveRelationship deletes a request in any state. Either endpoint may
// call it, which covers rejecting, cancelling and unfriending.
func (m *Manager) RemoveRelationship(ctx context.Context, requestID, actingUserID string) error {
	const op = "contacts.remove"
	r, err := m.db.GetContactRequest(ctx, requestID)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if r == nil {
		return apperr.New(apperr.NotFound, op, "request not found")
	}
	if !r.Involves(actingUserID) {
		return apperr.New(apperr.Unauthorized, op, "not a party to this request")
	}
	if err := m.db.DeleteContactRequest(ctx, r.ID); err != nil {
		return apperr.Wrap(op, err)
	}

	m.logger.Info("contact relationship removed", zap.String("request_id", r.ID), zap.String("by", actingUserID))
	m.publish(bus.KindContactRemoved, r, actingUserID)
	return nil
}

// ListFriends returns accepted contacts of userID, newest first.
func (m *Manager) ListFriends(ctx context.Context, userID string) ([]Friend, error) {
	edges, err := m.db.ListContactEdges(ctx, userID, store.EdgeAccepted)
	if err != nil {
		return nil, apperr.Wrap("contacts.list_friends", err)
	}
	out := make([]Friend, 0, len(edges))
	for _, e := range edges {
		f := Friend{
			UserID:     e.Request.Other(userID),
			RequestID:  e.Request.ID,
			AcceptedAt: e.Request.AcceptedAt,
		}
		if e.Partner != nil {
			f.Username = e.Partner.Username
			f.IsOnline = e.Partner.IsOnline
			f.LastSeen = e.Partner.LastSeen
			f.Resolved = true
		}
		out = append(out, f)
	}
	return out, nil
}

// ListIncomingPending returns pending requests sent to userID, newest first.
func (m *Manager) ListIncomingPending(ctx context.Context, userID string) ([]Pending, error) {
	return m.listPending(ctx, userID, store.EdgeIncoming)
}

// ListOutgoingPending returns pending requests sent by userID, newest first.
func (m *Manager) ListOutgoingPending(ctx context.Context, userID string) ([]Pending, error) {
	return m.listPending(ctx, userID, store.EdgeOutgoing)
}

func (m *Manager) listPending(ctx context.Context, userID string, filter store.EdgeFilter) ([]Pending, error) {
	edges, err := m.db.ListContactEdges(ctx, userID, filter)
	if err != nil {
		return nil, apperr.Wrap("contacts.list_pending", err)
	}
	out := make([]Pending, 0, len(edges))
	for _, e := range edges {
		p := Pending{
			RequestID: e.Request.ID,
			UserID:    e.Request.Other(userID),
			CreatedAt: e.Request.CreatedAt,
		}
		if e.Partner != nil {
			p.Username = e.Partner.Username
			p.Resolved = true
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Manager) publish(kind string, r *store.ContactRequest, actor string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: m.now(),
		Audience:  []string{r.FromID, r.ToID},
		Payload: RequestEvent{
			RequestID: r.ID,
			FromID:    r.FromID,
			ToID:      r.ToID,
			ActorID:   actor,
		},
	})
}
