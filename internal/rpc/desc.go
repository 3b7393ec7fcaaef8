package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AuthServiceName     = "chatrise.v1.AuthService"
	ProfileServiceName  = "chatrise.v1.ProfileService"
	ContactServiceName  = "chatrise.v1.ContactService"
	MessageServiceName  = "chatrise.v1.MessageService"
	ChatServiceName     = "chatrise.v1.ChatService"
	PresenceServiceName = "chatrise.v1.PresenceService"
)

// MaxMessageSize bounds a single gRPC message; attachments travel inline.
const MaxMessageSize = 16 << 20

// FullMethod returns the gRPC method path for service and method.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func unary[S, Req, Resp any](service, method string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type AuthServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	WhoAmI(context.Context, *Empty) (*Profile, error)
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "Register", AuthServer.Register),
		unary(AuthServiceName, "Login", AuthServer.Login),
		unary(AuthServiceName, "Logout", AuthServer.Logout),
		unary(AuthServiceName, "ChangePassword", AuthServer.ChangePassword),
		unary(AuthServiceName, "WhoAmI", AuthServer.WhoAmI),
	},
	Metadata: "chatrise/v1/auth",
}

type ProfileServer interface {
	GetProfile(context.Context, *UserRequest) (*Profile, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*Empty, error)
	UploadAvatar(context.Context, *UploadRequest) (*UploadAvatarResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
}

var ProfileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProfileServiceName, "GetProfile", ProfileServer.GetProfile),
		unary(ProfileServiceName, "UpdateProfile", ProfileServer.UpdateProfile),
		unary(ProfileServiceName, "UploadAvatar", ProfileServer.UploadAvatar),
		unary(ProfileServiceName, "ListUsers", ProfileServer.ListUsers),
	},
	Metadata: "chatrise/v1/profile",
}

type ContactServer interface {
	GetRelationship(context.Context, *UserRequest) (*Relationship, error)
	SendRequest(context.Context, *SendRequestRequest) (*SendRequestResponse, error)
	SearchByEmail(context.Context, *SearchByEmailRequest) (*SearchByEmailResponse, error)
	AcceptRequest(context.Context, *RequestIDRequest) (*Empty, error)
	RemoveRelationship(context.Context, *RequestIDRequest) (*Empty, error)
	ListFriends(context.Context, *Empty) (*ListFriendsResponse, error)
	ListIncoming(context.Context, *Empty) (*ListPendingResponse, error)
	ListOutgoing(context.Context, *Empty) (*ListPendingResponse, error)
}

var ContactServiceDesc = grpc.ServiceDesc{
	ServiceName: ContactServiceName,
	HandlerType: (*ContactServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ContactServiceName, "GetRelationship", ContactServer.GetRelationship),
		unary(ContactServiceName, "SendRequest", ContactServer.SendRequest),
		unary(ContactServiceName, "SearchByEmail", ContactServer.SearchByEmail),
		unary(ContactServiceName, "AcceptRequest", ContactServer.AcceptRequest),
		unary(ContactServiceName, "RemoveRelationship", ContactServer.RemoveRelationship),
		unary(ContactServiceName, "ListFriends", ContactServer.ListFriends),
		unary(ContactServiceName, "ListIncoming", ContactServer.ListIncoming),
		unary(ContactServiceName, "ListOutgoing", ContactServer.ListOutgoing),
	},
	Metadata: "chatrise/v1/contact",
}

type MessageServer interface {
	SendPrivate(context.Context, *SendPrivateRequest) (*SendResponse, error)
	SendGlobal(context.Context, *SendGlobalRequest) (*SendResponse, error)
	ListConversation(context.Context, *ListConversationRequest) (*MessagesResponse, error)
	ListGlobal(context.Context, *ListGlobalRequest) (*MessagesResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*Empty, error)
	UnreadCount(context.Context, *UnreadCountRequest) (*UnreadCountResponse, error)
	Search(context.Context, *SearchRequest) (*MessagesResponse, error)
	UploadAttachment(context.Context, *UploadRequest) (*Attachment, error)
}

var MessageServiceDesc = grpc.ServiceDesc{
	ServiceName: MessageServiceName,
	HandlerType: (*MessageServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MessageServiceName, "SendPrivate", MessageServer.SendPrivate),
		unary(MessageServiceName, "SendGlobal", MessageServer.SendGlobal),
		unary(MessageServiceName, "ListConversation", MessageServer.ListConversation),
		unary(MessageServiceName, "ListGlobal", MessageServer.ListGlobal),
		unary(MessageServiceName, "MarkRead", MessageServer.MarkRead),
		unary(MessageServiceName, "UnreadCount", MessageServer.UnreadCount),
		unary(MessageServiceName, "Search", MessageServer.Search),
		unary(MessageServiceName, "UploadAttachment", MessageServer.UploadAttachment),
	},
	Metadata: "chatrise/v1/message",
}

// ChatService_WatchEventsServer is the server side of the event stream.
type ChatService_WatchEventsServer = grpc.ServerStreamingServer[Event]

type ChatServer interface {
	ListChats(context.Context, *Empty) (*ListChatsResponse, error)
	WatchEvents(*WatchRequest, ChatService_WatchEventsServer) error
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "ListChats", ChatServer.ListChats),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(WatchRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(ChatServer).WatchEvents(in, &grpc.GenericServerStream[WatchRequest, Event]{ServerStream: stream})
			},
		},
	},
	Metadata: "chatrise/v1/chat",
}

type PresenceServer interface {
	Heartbeat(context.Context, *Empty) (*Empty, error)
	GoOffline(context.Context, *Empty) (*Empty, error)
	OnlineCount(context.Context, *Empty) (*OnlineCountResponse, error)
}

var PresenceServiceDesc = grpc.ServiceDesc{
	ServiceName: PresenceServiceName,
	HandlerType: (*PresenceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(PresenceServiceName, "Heartbeat", PresenceServer.Heartbeat),
		unary(PresenceServiceName, "GoOffline", PresenceServer.GoOffline),
		unary(PresenceServiceName, "OnlineCount", PresenceServer.OnlineCount),
	},
	Metadata: "chatrise/v1/presence",
}
