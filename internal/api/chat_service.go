package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/chatlist"
	"github.com/matheus3301/chatrise/internal/rpc"
)

const watchBuffer = 256

// ChatService implements the ChatService gRPC service.
type ChatService struct {
	chats  *chatlist.Aggregator
	bus    *bus.Bus
	logger *zap.Logger
}

func NewChatService(a *chatlist.Aggregator, b *bus.Bus, logger *zap.Logger) *ChatService {
	return &ChatService{chats: a, bus: b, logger: logger}
}

func (s *ChatService) ListChats(ctx context.Context, _ *rpc.Empty) (*rpc.ListChatsResponse, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.ListChats(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]rpc.ChatSummary, 0, len(chats))
	for i := range chats {
		out = append(out, chatToRPC(&chats[i]))
	}
	return &rpc.ListChatsResponse{Chats: out}, nil
}

// WatchEvents streams the events addressed to the caller until the client
// goes away. A watcher that fell behind gets a resync event before the
// next delivered one.
func (s *ChatService) WatchEvents(req *rpc.WatchRequest, stream rpc.ChatService_WatchEventsServer) error {
	ctx := stream.Context()
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return err
	}
	sub := s.bus.Watch(req.Prefix, caller, watchBuffer)
	defer sub.Close()

	s.logger.Debug("watch started", zap.String("user_id", caller), zap.String("prefix", req.Prefix))
	for {
		select {
		case evt := <-sub.C:
			if n := sub.Lagged(); n > 0 {
				s.logger.Warn("watcher lagged", zap.String("user_id", caller), zap.Uint64("dropped", n))
				resync := &rpc.Event{Kind: bus.KindResync, Timestamp: evt.Timestamp.UnixMilli()}
				if err := stream.Send(resync); err != nil {
					return err
				}
			}
			out, ok := eventToRPC(evt)
			if !ok {
				continue
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
