package api

import (
	"context"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// AuthService implements the AuthService gRPC service.
type AuthService struct {
	auth     *auth.Service
	profiles *profile.Service
}

// NewAuthService creates the account service.
func NewAuthService(a *auth.Service, p *profile.Service) *AuthService {
	return &AuthService{auth: a, profiles: p}
}

func authResponse(r *auth.Result) *rpc.AuthResponse {
	return &rpc.AuthResponse{
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt.UnixMilli(),
		User:      profileToRPC(profile.FromUser(r.User)),
	}
}

func (s *AuthService) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	res, err := s.auth.Register(ctx, auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

func (s *AuthService) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	res, err := s.auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}
	return authResponse(res), nil
}

func (s *AuthService) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	id, _ := auth.FromContext(ctx)
	if err := s.auth.Logout(ctx, id); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, req *rpc.ChangePasswordRequest) (*rpc.Empty, error) {
	id, _ := auth.FromContext(ctx)
	if err := s.auth.ChangePassword(ctx, id, req.Current, req.New); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *AuthService) WhoAmI(ctx context.Context, _ *rpc.Empty) (*rpc.Profile, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileToRPC(p), nil
}
