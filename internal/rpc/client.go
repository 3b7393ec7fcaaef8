package rpc

import (
	"context"

	"google.golang.org/grpc"
)

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(service, method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type AuthClient struct{ cc grpc.ClientConnInterface }

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient { return &AuthClient{cc} }

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AuthServiceName, "Register", in, opts)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, AuthServiceName, "Login", in, opts)
}

func (c *AuthClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, AuthServiceName, "Logout", in, opts)
}

func (c *AuthClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, AuthServiceName, "ChangePassword", in, opts)
}

func (c *AuthClient) WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, AuthServiceName, "WhoAmI", in, opts)
}

type ProfileClient struct{ cc grpc.ClientConnInterface }

func NewProfileClient(cc grpc.ClientConnInterface) *ProfileClient { return &ProfileClient{cc} }

func (c *ProfileClient) GetProfile(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, ProfileServiceName, "GetProfile", in, opts)
}

func (c *ProfileClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ProfileServiceName, "UpdateProfile", in, opts)
}

func (c *ProfileClient) UploadAvatar(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*UploadAvatarResponse, error) {
	return invoke[UploadAvatarResponse](ctx, c.cc, ProfileServiceName, "UploadAvatar", in, opts)
}

func (c *ProfileClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, ProfileServiceName, "ListUsers", in, opts)
}

type ContactClient struct{ cc grpc.ClientConnInterface }

func NewContactClient(cc grpc.ClientConnInterface) *ContactClient { return &ContactClient{cc} }

func (c *ContactClient) GetRelationship(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Relationship, error) {
	return invoke[Relationship](ctx, c.cc, ContactServiceName, "GetRelationship", in, opts)
}

func (c *ContactClient) SendRequest(ctx context.Context, in *SendRequestRequest, opts ...grpc.CallOption) (*SendRequestResponse, error) {
	return invoke[SendRequestResponse](ctx, c.cc, ContactServiceName, "SendRequest", in, opts)
}

func (c *ContactClient) SearchByEmail(ctx context.Context, in *SearchByEmailRequest, opts ...grpc.CallOption) (*SearchByEmailResponse, error) {
	return invoke[SearchByEmailResponse](ctx, c.cc, ContactServiceName, "SearchByEmail", in, opts)
}

func (c *ContactClient) AcceptRequest(ctx context.Context, in *RequestIDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ContactServiceName, "AcceptRequest", in, opts)
}

func (c *ContactClient) RemoveRelationship(ctx context.Context, in *RequestIDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ContactServiceName, "RemoveRelationship", in, opts)
}

func (c *ContactClient) ListFriends(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListFriendsResponse, error) {
	return invoke[ListFriendsResponse](ctx, c.cc, ContactServiceName, "ListFriends", in, opts)
}

func (c *ContactClient) ListIncoming(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListPendingResponse, error) {
	return invoke[ListPendingResponse](ctx, c.cc, ContactServiceName, "ListIncoming", in, opts)
}

func (c *ContactClient) ListOutgoing(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListPendingResponse, error) {
	return invoke[ListPendingResponse](ctx, c.cc, ContactServiceName, "ListOutgoing", in, opts)
}

type MessageClient struct{ cc grpc.ClientConnInterface }

func NewMessageClient(cc grpc.ClientConnInterface) *MessageClient { return &MessageClient{cc} }

func (c *MessageClient) SendPrivate(ctx context.Context, in *SendPrivateRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c.cc, MessageServiceName, "SendPrivate", in, opts)
}

func (c *MessageClient) SendGlobal(ctx context.Context, in *SendGlobalRequest, opts ...grpc.CallOption) (*SendResponse, error) {
	return invoke[SendResponse](ctx, c.cc, MessageServiceName, "SendGlobal", in, opts)
}

func (c *MessageClient) ListConversation(ctx context.Context, in *ListConversationRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, MessageServiceName, "ListConversation", in, opts)
}

func (c *MessageClient) ListGlobal(ctx context.Context, in *ListGlobalRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, MessageServiceName, "ListGlobal", in, opts)
}

func (c *MessageClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MessageServiceName, "MarkRead", in, opts)
}

func (c *MessageClient) UnreadCount(ctx context.Context, in *UnreadCountRequest, opts ...grpc.CallOption) (*UnreadCountResponse, error) {
	return invoke[UnreadCountResponse](ctx, c.cc, MessageServiceName, "UnreadCount", in, opts)
}

func (c *MessageClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*MessagesResponse, error) {
	return invoke[MessagesResponse](ctx, c.cc, MessageServiceName, "Search", in, opts)
}

func (c *MessageClient) UploadAttachment(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*Attachment, error) {
	return invoke[Attachment](ctx, c.cc, MessageServiceName, "UploadAttachment", in, opts)
}

type ChatClient struct{ cc grpc.ClientConnInterface }

func NewChatClient(cc grpc.ClientConnInterface) *ChatClient { return &ChatClient{cc} }

func (c *ChatClient) ListChats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.cc, ChatServiceName, "ListChats", in, opts)
}

func (c *ChatClient) WatchEvents(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ChatServiceDesc.Streams[0], FullMethod(ChatServiceName, "WatchEvents"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type PresenceClient struct{ cc grpc.ClientConnInterface }

func NewPresenceClient(cc grpc.ClientConnInterface) *PresenceClient { return &PresenceClient{cc} }

func (c *PresenceClient) Heartbeat(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, PresenceServiceName, "Heartbeat", in, opts)
}

func (c *PresenceClient) GoOffline(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, PresenceServiceName, "GoOffline", in, opts)
}

func (c *PresenceClient) OnlineCount(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*OnlineCountResponse, error) {
	return invoke[OnlineCountResponse](ctx, c.cc, PresenceServiceName, "OnlineCount", in, opts)
}
