package api

import (
	"context"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// ContactService implements the ContactService gRPC service.
type ContactService struct {
	contacts *contacts.Manager
}

func NewContactService(m *contacts.Manager) *ContactService {
	return &ContactService{contacts: m}
}

func (s *ContactService) GetRelationship(ctx context.Context, req *rpc.UserRequest) (*rpc.Relationship, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.contacts.GetRelationship(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	out := relationshipToRPC(r)
	return &out, nil
}

func (s *ContactService) SendRequest(ctx context.Context, req *rpc.SendRequestRequest) (*rpc.SendRequestResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	var id string
	switch {
	case req.UserID != "" && req.Email != "":
		return nil, apperr.New(apperr.Validation, "contacts.send", "set user_id or email, not both")
	case req.Email != "":
		id, err = s.contacts.SendRequestByEmail(ctx, caller, req.Email)
	default:
		id, err = s.contacts.SendRequest(ctx, caller, req.UserID)
	}
	if err != nil {
		return nil, err
	}
	return &rpc.SendRequestResponse{RequestID: id}, nil
}

func (s *ContactService) SearchByEmail(ctx context.Context, req *rpc.SearchByEmailRequest) (*rpc.SearchByEmailResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.contacts.SearchByEmail(ctx, caller, req.Email)
	if err != nil {
		return nil, err
	}
	return &rpc.SearchByEmailResponse{
		Profile:      publicProfile(res.Profile, caller),
		Relationship: relationshipToRPC(res.Relationship),
	}, nil
}

func (s *ContactService) AcceptRequest(ctx context.Context, req *rpc.RequestIDRequest) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.AcceptRequest(ctx, req.RequestID, caller); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *ContactService) RemoveRelationship(ctx context.Context, req *rpc.RequestIDRequest) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.contacts.RemoveRelationship(ctx, req.RequestID, caller); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *ContactService) ListFriends(ctx context.Context, _ *rpc.Empty) (*rpc.ListFriendsResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	friends, err := s.contacts.ListFriends(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]rpc.Friend, 0, len(friends))
	for _, f := range friends {
		out = append(out, rpc.Friend{
			UserID:     f.UserID,
			Username:   f.Username,
			IsOnline:   f.IsOnline,
			LastSeen:   f.LastSeen,
			RequestID:  f.RequestID,
			AcceptedAt: f.AcceptedAt,
			Resolved:   f.Resolved,
		})
	}
	return &rpc.ListFriendsResponse{Friends: out}, nil
}

func (s *ContactService) ListIncoming(ctx context.Context, _ *rpc.Empty) (*rpc.ListPendingResponse, error) {
	return s.listPending(ctx, s.contacts.ListIncomingPending)
}

func (s *ContactService) ListOutgoing(ctx context.Context, _ *rpc.Empty) (*rpc.ListPendingResponse, error) {
	return s.listPending(ctx, s.contacts.ListOutgoingPending)
}

func (s *ContactService) listPending(ctx context.Context, list func(context.Context, string) ([]contacts.Pending, error)) (*rpc.ListPendingResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := list(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]rpc.PendingRequest, 0, len(pending))
	for _, p := range pending {
		out = append(out, rpc.PendingRequest{
			RequestID: p.RequestID,
			UserID:    p.UserID,
			Username:  p.Username,
			CreatedAt: p.CreatedAt,
			Resolved:  p.Resolved,
		})
	}
	return &rpc.ListPendingResponse{Requests: out}, nil
}
