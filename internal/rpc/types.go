package rpc

// Timestamps are Unix milliseconds throughout.

type Empty struct{}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	// Identifier is an email or a username.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	User      *Profile `json:"user"`
}

type ChangePasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsOnline    bool   `json:"is_online"`
	LastSeen    int64  `json:"last_seen"`
	JoinedAt    int64  `json:"joined_at,omitempty"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type UpdateProfileRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
	// CurrentPassword is required when Field is "username".
	CurrentPassword string `json:"current_password,omitempty"`
}

type UploadRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type UploadAvatarResponse struct {
	URL string `json:"url"`
}

type ListUsersRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListUsersResponse struct {
	Users []Profile `json:"users"`
}

type Relationship struct {
	State       string `json:"state"`
	RequestID   string `json:"request_id,omitempty"`
	InitiatorID string `json:"initiator_id,omitempty"`
}

type SendRequestRequest struct {
	// Exactly one of UserID or Email is set.
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

type SendRequestResponse struct {
	RequestID string `json:"request_id"`
}

type SearchByEmailRequest struct {
	Email string `json:"email"`
}

type SearchByEmailResponse struct {
	Profile      *Profile     `json:"profile"`
	Relationship Relationship `json:"relationship"`
}

type RequestIDRequest struct {
	RequestID string `json:"request_id"`
}

type Friend struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	IsOnline   bool   `json:"is_online"`
	LastSeen   int64  `json:"last_seen"`
	RequestID  string `json:"request_id"`
	AcceptedAt int64  `json:"accepted_at"`
	Resolved   bool   `json:"resolved"`
}

type ListFriendsResponse struct {
	Friends []Friend `json:"friends"`
}

type PendingRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
	Resolved  bool   `json:"resolved"`
}

type ListPendingResponse struct {
	Requests []PendingRequest `json:"requests"`
}

type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

type Message struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	RecipientID string      `json:"recipient_id"`
	Body        string      `json:"body"`
	SentAt      int64       `json:"sent_at"`
	IsRead      bool        `json:"is_read"`
	Kind        string      `json:"kind"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

type SendPrivateRequest struct {
	RecipientID string      `json:"recipient_id"`
	Body        string      `json:"body"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

type SendGlobalRequest struct {
	Body string `json:"body"`
}

type SendResponse struct {
	MessageID string `json:"message_id"`
}

type ListConversationRequest struct {
	PartnerID string `json:"partner_id"`
	Limit     int    `json:"limit,omitempty"`
}

type ListGlobalRequest struct {
	Limit int `json:"limit,omitempty"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

type MarkReadRequest struct {
	SenderID string `json:"sender_id"`
}

type UnreadCountRequest struct {
	SenderID string `json:"sender_id"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type ChatSummary struct {
	PartnerID       string `json:"partner_id"`
	PartnerName     string `json:"partner_name"`
	LastMessageBody string `json:"last_message_body"`
	LastMessageAt   int64  `json:"last_message_at"`
	UnreadCount     int    `json:"unread_count"`
	PartnerOnline   bool   `json:"partner_online"`
	PartnerLastSeen int64  `json:"partner_last_seen"`
}

type ListChatsResponse struct {
	Chats []ChatSummary `json:"chats"`
}

type WatchRequest struct {
	// Prefix filters event kinds, e.g. "message." ; empty means all.
	Prefix string `json:"prefix,omitempty"`
}

type ContactEvent struct {
	RequestID string `json:"request_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	ActorID   string `json:"actor_id"`
}

type PresenceEvent struct {
	UserID   string `json:"user_id"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen,omitempty"`
}

type ReadEvent struct {
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
	Count       int64  `json:"count"`
}

type Event struct {
	Kind      string         `json:"kind"`
	Timestamp int64          `json:"timestamp"`
	Message   *Message       `json:"message,omitempty"`
	Contact   *ContactEvent  `json:"contact,omitempty"`
	Presence  *PresenceEvent `json:"presence,omitempty"`
	Read      *ReadEvent     `json:"read,omitempty"`
}

type OnlineCountResponse struct {
	Count int64 `json:"count"`
}
