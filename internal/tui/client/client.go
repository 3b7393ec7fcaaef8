package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/matheus3301/chatrise/internal/rpc"
)

// tokenCreds attaches the current session token to every call.
type tokenCreds struct {
	mu    sync.RWMutex
	token string
}

func (c *tokenCreds) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + c.token}, nil
}

func (c *tokenCreds) RequireTransportSecurity() bool { return false }

// Client wraps the gRPC connection to chatrised.
type Client struct {
	conn  *grpc.ClientConn
	creds *tokenCreds

	Auth     *rpc.AuthClient
	Profile  *rpc.ProfileClient
	Contact  *rpc.ContactClient
	Message  *rpc.MessageClient
	Chat     *rpc.ChatClient
	Presence *rpc.PresenceClient
}

// New dials target (host:port or unix:///path) and returns typed service
// clients. token may be empty until Login. Extra options are applied last.
func New(target, token string, extra ...grpc.DialOption) (*Client, error) {
	creds := &tokenCreds{token: token}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(rpc.CodecName),
			grpc.MaxCallRecvMsgSize(rpc.MaxMessageSize),
			grpc.MaxCallSendMsgSize(rpc.MaxMessageSize),
		),
	}
	conn, err := grpc.NewClient(target, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}

	return &Client{
		conn:     conn,
		creds:    creds,
		Auth:     rpc.NewAuthClient(conn),
		Profile:  rpc.NewProfileClient(conn),
		Contact:  rpc.NewContactClient(conn),
		Message:  rpc.NewMessageClient(conn),
		Chat:     rpc.NewChatClient(conn),
		Presence: rpc.NewPresenceClient(conn),
	}, nil
}

// SetToken replaces the session token sent with later calls.
func (c *Client) SetToken(token string) {
	c.creds.mu.Lock()
	c.creds.token = token
	c.creds.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.creds.mu.RLock()
	defer c.creds.mu.RUnlock()
	return c.creds.token
}

// Heartbeat reports the caller online.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, err := c.Presence.Heartbeat(ctx, &rpc.Empty{})
	return err
}

// GoOffline reports the caller offline.
func (c *Client) GoOffline(ctx context.Context) error {
	_, err := c.Presence.GoOffline(ctx, &rpc.Empty{})
	return err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
