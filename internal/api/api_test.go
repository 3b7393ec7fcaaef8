package api

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/chatlist"
	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/files"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/presence"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/store/storetest"
	"github.com/matheus3301/chatrise/internal/tui/client"
)

type testServer struct {
	lis *bufconn.Listener
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	db := storetest.DB(t)
	logger := zap.NewNop()
	b := bus.New()
	fs, err := files.New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	pres := presence.NewService(db, b, nil, presence.Options{}, logger)
	authSvc := auth.NewService(db, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), BcryptCost: bcrypt.MinCost}, pres, logger)
	prof := profile.NewService(db, fs, logger)
	cm := contacts.NewManager(db, b, logger)
	msgs := messaging.NewService(db, b, fs, 0, logger)
	agg := chatlist.NewAggregator(db, cm, msgs, chatlist.FromFriends)

	services := &Services{
		Auth:     NewAuthService(authSvc, prof),
		Profile:  NewProfileService(prof),
		Contact:  NewContactService(cm),
		Message:  NewMessageService(msgs),
		Chat:     NewChatService(agg, b, logger),
		Presence: NewPresenceService(pres),
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(ServerOptions(authSvc, logger)...)
	services.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return &testServer{lis: lis}
}

func (s *testServer) dial(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.New("passthrough:///bufnet", "",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// signup registers name and returns a client holding its token.
func (s *testServer) signup(t *testing.T, name string) (*client.Client, *rpc.Profile) {
	t.Helper()
	c := s.dial(t)
	resp, err := c.Auth.Register(context.Background(), &rpc.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	c.SetToken(resp.Token)
	return c, resp.User
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := grpcstatus.Code(err); got != code {
		t.Fatalf("code = %v, want %v (err %v)", got, code, err)
	}
}

func TestRegisterLoginWhoAmI(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	_, alice := s.signup(t, "alice")

	c := s.dial(t)
	resp, err := c.Auth.Login(ctx, &rpc.LoginRequest{Identifier: "ALICE@example.com", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	c.SetToken(resp.Token)

	me, err := c.Auth.WhoAmI(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != alice.ID || me.Username != "alice" || me.Email != "alice@example.com" {
		t.Errorf("whoami = %+v", me)
	}
}

func TestMissingTokenIsUnauthenticated(t *testing.T) {
	s := startServer(t)
	c := s.dial(t)
	_, err := c.Chat.ListChats(context.Background(), &rpc.Empty{})
	wantCode(t, err, codes.Unauthenticated)

	c.SetToken("garbage")
	_, err = c.Auth.WhoAmI(context.Background(), &rpc.Empty{})
	wantCode(t, err, codes.Unauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	c, _ := s.signup(t, "alice")

	if _, err := c.Auth.Logout(ctx, &rpc.Empty{}); err != nil {
		t.Fatal(err)
	}
	_, err := c.Auth.WhoAmI(ctx, &rpc.Empty{})
	wantCode(t, err, codes.Unauthenticated)
}

func TestErrorCodes(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	alice, me := s.signup(t, "alice")

	_, err := s.dial(t).Auth.Register(ctx, &rpc.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret123"})
	wantCode(t, err, codes.AlreadyExists)

	_, err = alice.Contact.SendRequest(ctx, &rpc.SendRequestRequest{UserID: me.ID})
	wantCode(t, err, codes.InvalidArgument)

	_, err = alice.Profile.GetProfile(ctx, &rpc.UserRequest{UserID: "nobody"})
	wantCode(t, err, codes.NotFound)

	_, err = alice.Auth.ChangePassword(ctx, &rpc.ChangePasswordRequest{Current: "wrongpass", New: "another1"})
	wantCode(t, err, codes.PermissionDenied)

	_, err = alice.Profile.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Field: "email", Value: "x"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = alice.Profile.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Field: "username", Value: "mallory", CurrentPassword: "wrongpass"})
	wantCode(t, err, codes.PermissionDenied)

	_, err = alice.Profile.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Field: "username", Value: "alicia", CurrentPassword: "secret123"})
	if err != nil {
		t.Fatalf("rename with password: %v", err)
	}
}

func TestFriendsAndChats(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	alice, aliceP := s.signup(t, "alice")
	bob, bobP := s.signup(t, "bob")

	sent, err := alice.Contact.SendRequest(ctx, &rpc.SendRequestRequest{Email: "bob@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	in, err := bob.Contact.ListIncoming(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Requests) != 1 || in.Requests[0].UserID != aliceP.ID || in.Requests[0].RequestID != sent.RequestID {
		t.Fatalf("incoming = %+v", in.Requests)
	}

	// Only the recipient may accept.
	_, err = alice.Contact.AcceptRequest(ctx, &rpc.RequestIDRequest{RequestID: sent.RequestID})
	wantCode(t, err, codes.PermissionDenied)
	if _, err := bob.Contact.AcceptRequest(ctx, &rpc.RequestIDRequest{RequestID: sent.RequestID}); err != nil {
		t.Fatal(err)
	}

	rel, err := alice.Contact.GetRelationship(ctx, &rpc.UserRequest{UserID: bobP.ID})
	if err != nil {
		t.Fatal(err)
	}
	if rel.State != string(contacts.StateAccepted) {
		t.Errorf("relationship = %+v", rel)
	}

	if _, err := alice.Message.SendPrivate(ctx, &rpc.SendPrivateRequest{RecipientID: bobP.ID, Body: "hi bob"}); err != nil {
		t.Fatal(err)
	}

	chats, err := bob.Chat.ListChats(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if len(chats.Chats) != 1 {
		t.Fatalf("chats = %+v", chats.Chats)
	}
	got := chats.Chats[0]
	if got.PartnerName != "alice" || got.LastMessageBody != "hi bob" || got.UnreadCount != 1 {
		t.Errorf("chat = %+v", got)
	}

	conv, err := bob.Message.ListConversation(ctx, &rpc.ListConversationRequest{PartnerID: aliceP.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(conv.Messages) != 1 || !conv.Messages[0].IsRead || conv.Messages[0].SenderName != "alice" {
		t.Errorf("conversation = %+v", conv.Messages)
	}

	n, err := bob.Message.UnreadCount(ctx, &rpc.UnreadCountRequest{SenderID: aliceP.ID})
	if err != nil {
		t.Fatal(err)
	}
	if n.Count != 0 {
		t.Errorf("unread after read = %d", n.Count)
	}

	// Emails are private to their owner.
	p, err := alice.Profile.GetProfile(ctx, &rpc.UserRequest{UserID: bobP.ID})
	if err != nil {
		t.Fatal(err)
	}
	if p.Email != "" {
		t.Errorf("email leaked: %q", p.Email)
	}
}

func TestGlobalRoomAndOnlineCount(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	alice, _ := s.signup(t, "alice")
	bob, _ := s.signup(t, "bob")

	if _, err := alice.Message.SendGlobal(ctx, &rpc.SendGlobalRequest{Body: "hello all"}); err != nil {
		t.Fatal(err)
	}
	msgs, err := bob.Message.ListGlobal(ctx, &rpc.ListGlobalRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs.Messages) != 1 || msgs.Messages[0].Body != "hello all" || msgs.Messages[0].RecipientID != "GLOBAL" {
		t.Errorf("global = %+v", msgs.Messages)
	}

	cnt, err := bob.Presence.OnlineCount(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if cnt.Count != 2 {
		t.Errorf("online = %d, want 2", cnt.Count)
	}
	if _, err := alice.Presence.GoOffline(ctx, &rpc.Empty{}); err != nil {
		t.Fatal(err)
	}
	cnt, err = bob.Presence.OnlineCount(ctx, &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if cnt.Count != 1 {
		t.Errorf("online after offline = %d, want 1", cnt.Count)
	}
}

func TestWatchEvents(t *testing.T) {
	s := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	alice, _ := s.signup(t, "alice")
	bob, bobP := s.signup(t, "bob")
	carol, _ := s.signup(t, "carol")

	stream, err := bob.Chat.WatchEvents(ctx, &rpc.WatchRequest{Prefix: "message."})
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan *rpc.Event, 16)
	go func() {
		for {
			evt, err := stream.Recv()
			if err != nil {
				close(got)
				return
			}
			got <- evt
		}
	}()

	// A message to someone else must never reach bob.
	if _, err := alice.Message.SendPrivate(ctx, &rpc.SendPrivateRequest{RecipientID: mustID(t, carol), Body: "not for bob"}); err != nil {
		t.Fatal(err)
	}

	// The subscription starts asynchronously; resend until it is live.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := alice.Message.SendPrivate(ctx, &rpc.SendPrivateRequest{RecipientID: bobP.ID, Body: "ping"}); err != nil {
			t.Fatal(err)
		}
		select {
		case evt, ok := <-got:
			if !ok {
				t.Fatal("stream closed")
			}
			if evt.Kind != bus.KindMessageCreated || evt.Message == nil {
				t.Fatalf("event = %+v", evt)
			}
			if evt.Message.Body != "ping" || evt.Message.SenderName != "alice" {
				t.Fatalf("message = %+v", evt.Message)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("no event received")
		}
	}
}

func mustID(t *testing.T, c *client.Client) string {
	t.Helper()
	me, err := c.Auth.WhoAmI(context.Background(), &rpc.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	return me.ID
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		err  error
		want apperr.Kind
	}{
		{toStatus(apperr.New(apperr.Conflict, "op", "x")), apperr.Conflict},
		{toStatus(apperr.New(apperr.Unauthorized, "op", "x")), apperr.Unauthorized},
		{toStatus(apperr.New(apperr.Validation, "op", "x")), apperr.Validation},
		{grpcstatus.Error(codes.Internal, "boom"), apperr.Transient},
	}
	for _, tt := range tests {
		if got := KindFromStatus(tt.err); got != tt.want {
			t.Errorf("KindFromStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
