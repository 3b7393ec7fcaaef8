// Package auth owns registration, password credentials and session tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/store"
	"github.com/matheus3301/chatrise/internal/validation"
)

// Presence is notified when sessions start and end.
type Presence interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

// Config holds token settings.
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,chatemail"`
	Password string `validate:"required,min=6,max=72"`
}

type passwordChange struct {
	Current string `validate:"required"`
	New     string `validate:"required,min=6,max=72,nefield=Current"`
}

// Result is returned by Register and Login.
type Result struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	User      *store.User
}

// Service implements account operations.
type Service struct {
	db       *store.DB
	cfg      Config
	presence Presence
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates an auth service. presence may be nil.
func NewService(db *store.DB, cfg Config, presence Presence, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, cfg: cfg, presence: presence, log: log, now: time.Now}
}

// Register creates an account and opens a session for it. The new user
// starts online.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	const op = "auth.register"
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(op, in); err != nil {
		return nil, err
	}

	taken, err := s.db.UsernameTaken(ctx, in.Username, "")
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if taken {
		return nil, apperr.New(apperr.Conflict, op, "username already taken")
	}
	existing, err := s.db.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.Conflict, op, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}

	now := s.now().UnixMilli()
	u := &store.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsOnline:     true,
		LastSeen:     now,
		JoinedAt:     now,
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.New(apperr.Conflict, op, "username or email already taken")
		}
		return nil, apperr.Wrap(op, err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))

	return s.openSession(ctx, op, u)
}

// Login authenticates by email (any identifier containing "@") or username.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Result, error) {
	const op = "auth.login"
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.New(apperr.Validation, op, "identifier and password are required")
	}

	var (
		u   *store.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.db.GetUserByEmail(ctx, identifier)
	} else {
		u, err = s.db.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.New(apperr.Unauthenticated, op, "invalid credentials")
	}

	if s.presence != nil {
		if err := s.presence.MarkOnline(ctx, u.ID); err != nil {
			s.log.Warn("mark online after login failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return s.openSession(ctx, op, u)
}

func (s *Service) openSession(ctx context.Context, op string, u *store.User) (*Result, error) {
	now := s.now()
	sess := &store.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(s.cfg.TokenTTL).UnixMilli(),
	}
	if err := s.db.CreateSession(ctx, sess); err != nil {
		return nil, apperr.Wrap(op, err)
	}
	token, err := sign(s.cfg.Secret, u.ID, sess.ID, now, now.Add(s.cfg.TokenTTL))
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	return &Result{
		Token:     token,
		SessionID: sess.ID,
		ExpiresAt: time.UnixMilli(sess.ExpiresAt),
		User:      u,
	}, nil
}

// Authenticate resolves a bearer token to the identity it was issued for.
// The session must still exist.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	const op = "auth.authenticate"
	if token == "" {
		return Identity{}, apperr.New(apperr.Unauthenticated, op, "missing token")
	}
	now := s.now()
	claims, err := parse(s.cfg.Secret, token, now)
	if err != nil {
		return Identity{}, apperr.New(apperr.Unauthenticated, op, "invalid token")
	}
	sess, err := s.db.GetSession(ctx, claims.ID)
	if err != nil {
		return Identity{}, apperr.Wrap(op, err)
	}
	if sess == nil || sess.UserID != claims.Subject || sess.ExpiresAt < now.UnixMilli() {
		return Identity{}, apperr.New(apperr.Unauthenticated, op, "session expired")
	}
	return Identity{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// Logout ends the session and marks the user offline.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	const op = "auth.logout"
	if err := s.db.DeleteSession(ctx, id.SessionID); err != nil {
		return apperr.Wrap(op, err)
	}
	if s.presence != nil {
		if err := s.presence.MarkOffline(ctx, id.UserID); err != nil {
			s.log.Warn("mark offline after logout failed", zap.String("user_id", id.UserID), zap.Error(err))
		}
	}
	s.log.Info("session closed", zap.String("user_id", id.UserID), zap.String("session_id", id.SessionID))
	return nil
}

// ChangePassword replaces the caller's credential after re-checking the
// current one. On mismatch nothing is changed. Other sessions are revoked.
func (s *Service) ChangePassword(ctx context.Context, id Identity, current, next string) error {
	const op = "auth.change_password"
	if err := validation.Struct(op, passwordChange{Current: current, New: next}); err != nil {
		return err
	}
	u, err := s.db.GetUser(ctx, id.UserID)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if u == nil {
		return apperr.New(apperr.NotFound, op, "user not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.New(apperr.Unauthorized, op, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if err := s.db.UpdatePasswordHash(ctx, u.ID, string(hash)); err != nil {
		return apperr.Wrap(op, err)
	}
	if err := s.db.DeleteOtherSessions(ctx, u.ID, id.SessionID); err != nil {
		return apperr.Wrap(op, err)
	}
	s.log.Info("password changed", zap.String("user_id", u.ID))
	return nil
}

// PruneSessions deletes expired sessions.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.db.DeleteExpiredSessions(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, apperr.Wrap("auth.prune", err)
	}
	return n, nil
}
