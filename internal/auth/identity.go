package auth

import (
	"context"

	"github.com/matheus3301/chatrise/internal/apperr"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    string
	SessionID string
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// RequireUser returns the caller's user id or an Unauthenticated error.
func RequireUser(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", apperr.New(apperr.Unauthenticated, "auth", "no active session")
	}
	return id.UserID, nil
}
