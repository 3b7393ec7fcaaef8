package store

// GlobalRecipient is the recipient id of every global-room message.
const GlobalRecipient = "GLOBAL"

// RequestStatus is the state of a contact request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// MessageKind distinguishes private messages from the global room.
type MessageKind string

const (
	KindPrivate MessageKind = "private"
	KindGlobal  MessageKind = "global"
)

// User is a registered account. Timestamps are Unix milliseconds.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsOnline     bool
	LastSeen     int64
	JoinedAt     int64
	Description  string
	AvatarURL    string
	AvatarKey    string
}

// ContactRequest links two users. AcceptedAt is zero while pending.
type ContactRequest struct {
	ID         string
	FromID     string
	ToID       string
	Status     RequestStatus
	CreatedAt  int64
	AcceptedAt int64
}

// Other returns the endpoint that is not userID.
func (r *ContactRequest) Other(userID string) string {
	if r.FromID == userID {
		return r.ToID
	}
	return r.FromID
}

// Involves reports whether userID is either endpoint.
func (r *ContactRequest) Involves(userID string) bool {
	return r.FromID == userID || r.ToID == userID
}

// ContactEdge is a contact request seen from one endpoint. Partner is nil
// when the other endpoint no longer resolves.
type ContactEdge struct {
	Request ContactRequest
	Partner *User
}

// Attachment is a file reference carried by a message.
type Attachment struct {
	URL      string
	Name     string
	MimeType string
}

// Message is a stored chat message. SenderName is resolved at read time.
type Message struct {
	ID          string
	SenderID    string
	SenderName  string
	RecipientID string
	Body        string
	SentAt      int64
	IsRead      bool
	Kind        MessageKind
	Attachment  *Attachment
}

// Session is an issued login session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt int64
	ExpiresAt int64
}
