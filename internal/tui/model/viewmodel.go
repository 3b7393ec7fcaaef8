package model

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/client"
)

// GlobalRoom is the partner ID used for the global chat room.
const GlobalRoom = "GLOBAL"

const (
	conversationLimit = 100
	globalLimit       = 50
	searchLimit       = 50
)

// ViewModel caches server state and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client        *client.Client
	Me            *rpc.Profile
	Chats         []rpc.ChatSummary
	Messages      []rpc.Message
	ActivePartner string
	Friends       []rpc.Friend
	Incoming      []rpc.PendingRequest
	OnlineCount   int64

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the server client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client:    c,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Login authenticates with a username or email and stores the token on the client.
func (vm *ViewModel) Login(ctx context.Context, identifier, password string) (string, error) {
	resp, err := vm.client.Auth.Login(ctx, &rpc.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return "", err
	}
	vm.setSession(resp)
	return resp.Token, nil
}

// Register creates an account and signs in.
func (vm *ViewModel) Register(ctx context.Context, username, email, password string) (string, error) {
	resp, err := vm.client.Auth.Register(ctx, &rpc.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	vm.setSession(resp)
	return resp.Token, nil
}

func (vm *ViewModel) setSession(resp *rpc.AuthResponse) {
	vm.client.SetToken(resp.Token)
	vm.mu.Lock()
	vm.Me = resp.User
	vm.mu.Unlock()
	vm.signalRefresh()
}

// Logout revokes the session and clears cached state.
func (vm *ViewModel) Logout(ctx context.Context) error {
	_, err := vm.client.Auth.Logout(ctx, &rpc.Empty{})
	vm.client.SetToken("")
	vm.mu.Lock()
	vm.Me = nil
	vm.Chats = nil
	vm.Messages = nil
	vm.ActivePartner = ""
	vm.Friends = nil
	vm.Incoming = nil
	vm.mu.Unlock()
	vm.signalRefresh()
	return err
}

// LoadMe fetches the signed-in profile. It fails when the stored token is
// missing or no longer valid.
func (vm *ViewModel) LoadMe(ctx context.Context) error {
	if vm.client.Token() == "" {
		return errors.New("not logged in")
	}
	me, err := vm.client.Auth.WhoAmI(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Me = me
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadChats fetches the chat list.
func (vm *ViewModel) LoadChats(ctx context.Context) error {
	resp, err := vm.client.Chat.ListChats(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Chats = resp.Chats
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadMessages fetches the conversation with partnerID, or the global room.
// Loading a private conversation marks it read on the server.
func (vm *ViewModel) LoadMessages(ctx context.Context, partnerID string) error {
	var (
		resp *rpc.MessagesResponse
		err  error
	)
	if partnerID == GlobalRoom {
		resp, err = vm.client.Message.ListGlobal(ctx, &rpc.ListGlobalRequest{Limit: globalLimit})
	} else {
		resp, err = vm.client.Message.ListConversation(ctx, &rpc.ListConversationRequest{
			PartnerID: partnerID,
			Limit:     conversationLimit,
		})
	}
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.ActivePartner = partnerID
	vm.Messages = resp.Messages
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// SendText sends a text message to partnerID, or to the global room.
func (vm *ViewModel) SendText(ctx context.Context, partnerID, text string) error {
	var err error
	if partnerID == GlobalRoom {
		_, err = vm.client.Message.SendGlobal(ctx, &rpc.SendGlobalRequest{Body: text})
	} else {
		_, err = vm.client.Message.SendPrivate(ctx, &rpc.SendPrivateRequest{RecipientID: partnerID, Body: text})
	}
	if err != nil {
		return err
	}
	vm.signalRefresh()
	return nil
}

// SearchMessages performs a search query.
func (vm *ViewModel) SearchMessages(ctx context.Context, query string) ([]rpc.Message, error) {
	resp, err := vm.client.Message.Search(ctx, &rpc.SearchRequest{Query: query, Limit: searchLimit})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// LoadContacts fetches friends and incoming requests.
func (vm *ViewModel) LoadContacts(ctx context.Context) error {
	friends, err := vm.client.Contact.ListFriends(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	incoming, err := vm.client.Contact.ListIncoming(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Friends = friends.Friends
	vm.Incoming = incoming.Requests
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// AddContact sends a contact request to the user with email.
func (vm *ViewModel) AddContact(ctx context.Context, email string) error {
	_, err := vm.client.Contact.SendRequest(ctx, &rpc.SendRequestRequest{Email: strings.TrimSpace(email)})
	return err
}

// Accept accepts an incoming request.
func (vm *ViewModel) Accept(ctx context.Context, requestID string) error {
	if _, err := vm.client.Contact.AcceptRequest(ctx, &rpc.RequestIDRequest{RequestID: requestID}); err != nil {
		return err
	}
	return vm.LoadContacts(ctx)
}

// Remove rejects, cancels or unfriends the relationship behind requestID.
func (vm *ViewModel) Remove(ctx context.Context, requestID string) error {
	if _, err := vm.client.Contact.RemoveRelationship(ctx, &rpc.RequestIDRequest{RequestID: requestID}); err != nil {
		return err
	}
	return vm.LoadContacts(ctx)
}

// LoadOnlineCount fetches the number of online users.
func (vm *ViewModel) LoadOnlineCount(ctx context.Context) error {
	resp, err := vm.client.Presence.OnlineCount(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.OnlineCount = resp.Count
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// UpdateBio replaces the caller's description.
func (vm *ViewModel) UpdateBio(ctx context.Context, bio string) error {
	if _, err := vm.client.Profile.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Field: "description", Value: bio}); err != nil {
		return err
	}
	return vm.LoadMe(ctx)
}

// PartnerProfile fetches the public profile of partnerID.
func (vm *ViewModel) PartnerProfile(ctx context.Context, partnerID string) (*rpc.Profile, error) {
	return vm.client.Profile.GetProfile(ctx, &rpc.UserRequest{UserID: partnerID})
}

// GetMe returns the signed-in profile, or nil.
func (vm *ViewModel) GetMe() *rpc.Profile {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Me
}

// GetChats returns a snapshot of the current chat list.
func (vm *ViewModel) GetChats() []rpc.ChatSummary {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Chats
}

// GetMessages returns a snapshot of the current messages.
func (vm *ViewModel) GetMessages() []rpc.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Messages
}

// CloseThread forgets the open thread so events stop reloading it.
func (vm *ViewModel) CloseThread() {
	vm.mu.Lock()
	vm.ActivePartner = ""
	vm.Messages = nil
	vm.mu.Unlock()
}

// GetActivePartner returns the partner of the open thread.
func (vm *ViewModel) GetActivePartner() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.ActivePartner
}

// GetContacts returns snapshots of friends and incoming requests.
func (vm *ViewModel) GetContacts() ([]rpc.Friend, []rpc.PendingRequest) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Friends, vm.Incoming
}

// GetOnlineCount returns the last fetched online count.
func (vm *ViewModel) GetOnlineCount() int64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.OnlineCount
}

// Affects reports whether ev should trigger a reload of the open thread.
func (vm *ViewModel) Affects(ev *rpc.Event) bool {
	vm.mu.RLock()
	partner := vm.ActivePartner
	vm.mu.RUnlock()
	if partner == "" {
		return false
	}
	switch {
	case ev.Kind == "sync.resync":
		return true
	case ev.Message != nil:
		if partner == GlobalRoom {
			return ev.Message.Kind == "global"
		}
		return ev.Message.SenderID == partner || ev.Message.RecipientID == partner
	case ev.Read != nil:
		return ev.Read.RecipientID == partner || ev.Read.SenderID == partner
	}
	return false
}
