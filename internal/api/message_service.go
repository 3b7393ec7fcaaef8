package api

import (
	"context"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// MessageService implements the MessageService gRPC service. The caller is
// always the sender or the reader.
type MessageService struct {
	messages *messaging.Service
}

func NewMessageService(m *messaging.Service) *MessageService {
	return &MessageService{messages: m}
}

func (s *MessageService) SendPrivate(ctx context.Context, req *rpc.SendPrivateRequest) (*rpc.SendResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.messages.SendPrivate(ctx, caller, req.RecipientID, req.Body, attachmentFromRPC(req.Attachment))
	if err != nil {
		return nil, err
	}
	return &rpc.SendResponse{MessageID: id}, nil
}

func (s *MessageService) SendGlobal(ctx context.Context, req *rpc.SendGlobalRequest) (*rpc.SendResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.messages.SendGlobal(ctx, caller, req.Body)
	if err != nil {
		return nil, err
	}
	return &rpc.SendResponse{MessageID: id}, nil
}

func (s *MessageService) ListConversation(ctx context.Context, req *rpc.ListConversationRequest) (*rpc.MessagesResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListConversation(ctx, caller, req.PartnerID, req.Limit)
	if err != nil {
		return nil, err
	}
	return messagesToRPC(msgs), nil
}

func (s *MessageService) ListGlobal(ctx context.Context, req *rpc.ListGlobalRequest) (*rpc.MessagesResponse, error) {
	if _, err := auth.RequireUser(ctx); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListGlobal(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return messagesToRPC(msgs), nil
}

func (s *MessageService) MarkRead(ctx context.Context, req *rpc.MarkReadRequest) (*rpc.Empty, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, caller, req.SenderID); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, req *rpc.UnreadCountRequest) (*rpc.UnreadCountResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.messages.UnreadCount(ctx, caller, req.SenderID)
	if err != nil {
		return nil, err
	}
	return &rpc.UnreadCountResponse{Count: n}, nil
}

func (s *MessageService) Search(ctx context.Context, req *rpc.SearchRequest) (*rpc.MessagesResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.Search(ctx, caller, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	return messagesToRPC(msgs), nil
}

func (s *MessageService) UploadAttachment(ctx context.Context, req *rpc.UploadRequest) (*rpc.Attachment, error) {
	if _, err := auth.RequireUser(ctx); err != nil {
		return nil, err
	}
	att, err := s.messages.UploadAttachment(ctx, req.Name, req.Data)
	if err != nil {
		return nil, err
	}
	return attachmentToRPC(att), nil
}
