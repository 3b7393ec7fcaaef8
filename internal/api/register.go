package api

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/matheus3301/chatrise/internal/rpc"
)

// Services bundles every gRPC service implementation.
type Services struct {
	Auth     *AuthService
	Profile  *ProfileService
	Contact  *ContactService
	Message  *MessageService
	Chat     *ChatService
	Presence *PresenceService
}

// Register adds all services to srv.
func (s *Services) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&rpc.AuthServiceDesc, s.Auth)
	srv.RegisterService(&rpc.ProfileServiceDesc, s.Profile)
	srv.RegisterService(&rpc.ContactServiceDesc, s.Contact)
	srv.RegisterService(&rpc.MessageServiceDesc, s.Message)
	srv.RegisterService(&rpc.ChatServiceDesc, s.Chat)
	srv.RegisterService(&rpc.PresenceServiceDesc, s.Presence)
}

// ServerOptions returns the options every chatrise server is built with.
func ServerOptions(a Authenticator, logger *zap.Logger) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.MaxRecvMsgSize(rpc.MaxMessageSize),
		grpc.MaxSendMsgSize(rpc.MaxMessageSize),
		grpc.ChainUnaryInterceptor(UnaryInterceptor(a, logger)),
		grpc.ChainStreamInterceptor(StreamInterceptor(a, logger)),
	}
}
