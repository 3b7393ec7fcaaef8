package api

import (
	"context"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/presence"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// PresenceService implements the PresenceService gRPC service.
type PresenceService struct {
	presence *presence.Service
}

func NewPresenceService(p *presence.Service) *PresenceService {
	return &PresenceService{presence: p}
}

func (s *PresenceService) Heartbeat(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.presence.MarkOnline(ctx, caller); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *PresenceService) GoOffline(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.presence.MarkOffline(ctx, caller); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *PresenceService) OnlineCount(ctx context.Context, _ *rpc.Empty) (*rpc.OnlineCountResponse, error) {
	if _, err := auth.RequireUser(ctx); err != nil {
		return nil, err
	}
	n, err := s.presence.OnlineCount(ctx)
	if err != nil {
		return nil, err
	}
	return &rpc.OnlineCountResponse{Count: n}, nil
}
