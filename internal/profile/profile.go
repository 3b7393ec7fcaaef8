// Package profile reads and edits the public fields of user records.
package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/store"
	"github.com/matheus3301/chatrise/internal/validation"
)

const (
	MaxDescription = 500
	MaxAvatarBytes = 5 << 20
)

// Field names accepted by UpdateProfileField.
const (
	FieldUsername    = "username"
	FieldDescription = "description"
)

// Profile is the public view of a user.
type Profile struct {
	ID          string
	Username    string
	Email       string
	Description string
	AvatarURL   string
	IsOnline    bool
	LastSeen    int64
	JoinedAt    int64
}

// FromUser projects a stored user to its public profile.
func FromUser(u *store.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Description: u.Description,
		AvatarURL:   u.AvatarURL,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen,
		JoinedAt:    u.JoinedAt,
	}
}

// Service implements profile reads and owner-only edits.
type Service struct {
	db     *store.DB
	files  *files.Store
	logger *zap.Logger
}

// NewService creates a profile service. fs may be nil, disabling avatars.
func NewService(db *store.DB, fs *files.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, files: fs, logger: logger}
}

// GetProfile returns the public fields of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	const op = "profile.get"
	u, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if u == nil {
		return nil, apperr.New(apperr.NotFound, op, "user not found")
	}
	return FromUser(u), nil
}

// UpdateProfileField edits one field of the caller's own record. Changing
// the username changes the login identifier, so it requires the caller's
// current password; other fields ignore currentPassword.
func (s *Service) UpdateProfileField(ctx context.Context, currentUserID, field, value, currentPassword string) error {
	const op = "profile.update"
	u, err := s.db.GetUser(ctx, currentUserID)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if u == nil {
		return apperr.New(apperr.NotFound, op, "user not found")
	}

	switch field {
	case FieldDescription:
		value = strings.TrimSpace(value)
		if err := validation.Var(op, "description", value, "max=500"); err != nil {
			return err
		}
		if err := s.db.UpdateDescription(ctx, u.ID, value); err != nil {
			return apperr.Wrap(op, err)
		}

	case FieldUsername:
		value = strings.TrimSpace(value)
		if err := validation.Var(op, "username", value, "required,username"); err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)) != nil {
			return apperr.New(apperr.Unauthorized, op, "current password is incorrect")
		}
		if value == u.Username {
			return nil
		}
		taken, err := s.db.UsernameTaken(ctx, value, u.ID)
		if err != nil {
			return apperr.Wrap(op, err)
		}
		if taken {
			return apperr.New(apperr.Conflict, op, "username already taken")
		}
		if err := s.db.UpdateUsername(ctx, u.ID, value); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.New(apperr.Conflict, op, "username already taken")
			}
			return apperr.Wrap(op, err)
		}
		s.logger.Info("username changed", zap.String("user_id", u.ID), zap.String("from", u.Username), zap.String("to", value))

	default:
		return apperr.Errorf(apperr.Validation, op, "unknown profile field %q", field)
	}
	return nil
}

// UploadAvatar replaces the caller's avatar. Only images up to 5 MB are
// accepted; the previous file is removed best-effort.
func (s *Service) UploadAvatar(ctx context.Context, currentUserID, name string, data []byte) (string, error) {
	const op = "profile.avatar"
	if s.files == nil {
		return "", apperr.New(apperr.Validation, op, "file uploads are disabled")
	}
	if len(data) == 0 {
		return "", apperr.New(apperr.Validation, op, "empty file")
	}
	if len(data) > MaxAvatarBytes {
		return "", apperr.New(apperr.Validation, op, "avatar exceeds 5 MB")
	}
	if mime := files.Sniff(data); !strings.HasPrefix(mime, "image/") {
		return "", apperr.Errorf(apperr.Validation, op, "avatar must be an image, got %s", mime)
	}

	u, err := s.db.GetUser(ctx, currentUserID)
	if err != nil {
		return "", apperr.Wrap(op, err)
	}
	if u == nil {
		return "", apperr.New(apperr.NotFound, op, "user not found")
	}

	obj, err := s.files.Put(ctx, name, data)
	if err != nil {
		return "", apperr.Wrap(op, err)
	}
	if err := s.db.UpdateAvatar(ctx, u.ID, obj.URL, obj.Key); err != nil {
		_ = s.files.Delete(obj.Key)
		return "", apperr.Wrap(op, err)
	}
	if u.AvatarKey != "" {
		if err := s.files.Delete(u.AvatarKey); err != nil {
			s.logger.Warn("delete old avatar failed", zap.String("key", u.AvatarKey), zap.Error(err))
		}
	}
	return obj.URL, nil
}

// ListUsers returns every user other than the caller, by username.
func (s *Service) ListUsers(ctx context.Context, currentUserID string, limit int) ([]Profile, error) {
	users, err := s.db.ListUsers(ctx, currentUserID, limit)
	if err != nil {
		return nil, apperr.Wrap("profile.list", err)
	}
	out := make([]Profile, 0, len(users))
	for i := range users {
		out = append(out, *FromUser(&users[i]))
	}
	return out, nil
}
