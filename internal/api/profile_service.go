package api

import (
	"context"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// ProfileService implements the ProfileService gRPC service.
type ProfileService struct {
	profiles *profile.Service
}

func NewProfileService(p *profile.Service) *ProfileService {
	return &ProfileService{profiles: p}
}

func (s *ProfileService) GetProfile(ctx context.Context, req *rpc.UserRequest) (*rpc.Profile, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	id := req.UserID
	if id == "" {
		id = caller
	}
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return publicProfile(p, caller), nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateProfileField(ctx, caller, req.Field, req.Value, req.CurrentPassword); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *ProfileService) UploadAvatar(ctx context.Context, req *rpc.UploadRequest) (*rpc.UploadAvatarResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	url, err := s.profiles.UploadAvatar(ctx, caller, req.Name, req.Data)
	if err != nil {
		return nil, err
	}
	return &rpc.UploadAvatarResponse{URL: url}, nil
}

func (s *ProfileService) ListUsers(ctx context.Context, req *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.profiles.ListUsers(ctx, caller, req.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]rpc.Profile, 0, len(users))
	for i := range users {
		out = append(out, *publicProfile(&users[i], caller))
	}
	return &rpc.ListUsersResponse{Users: out}, nil
}
