package bus

import "time"

// Event kinds published by the chat components.
const (
	KindMessageCreated   = "message.created"
	KindMessageRead      = "message.read"
	KindContactRequested = "contact.requested"
	KindContactAccepted  = "contact.accepted"
	KindContactRemoved   = "contact.removed"
	KindPresenceChanged  = "presence.changed"
	// KindResync tells a watcher it missed events and should reload.
	KindResync = "sync.resync"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	// Audience lists the user ids the event concerns; empty means everyone.
	Audience []string
	Payload  any
}
