// Package bus fans domain events out to in-process subscribers. Publishing
// never blocks: a subscriber with a full buffer loses the event and the
// loss is counted on its Subscription.
package bus

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Bus routes events by kind prefix and audience.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription receives matching events on C until Close.
type Subscription struct {
	C <-chan Event

	bus     *Bus
	prefix  string
	userID  string
	ch      chan Event
	dropped atomic.Uint64
	once    sync.Once
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind and
// who is in evt.Audience. An empty audience reaches everyone.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if !sub.wants(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Watch subscribes to events whose kind starts with prefix. A non-empty
// userID limits delivery to events addressed to that user or to everyone.
func (b *Bus) Watch(prefix, userID string, bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, bus: b, prefix: prefix, userID: userID, ch: ch}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Subscribe is Watch for every audience, returning the channel and an
// unsubscribe func.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	return b.SubscribeUser(prefix, "", bufSize)
}

// SubscribeUser is Watch returning the channel and an unsubscribe func.
func (b *Bus) SubscribeUser(prefix, userID string, bufSize int) (<-chan Event, func()) {
	sub := b.Watch(prefix, userID, bufSize)
	return sub.C, sub.Close
}

func (s *Subscription) wants(evt Event) bool {
	if !strings.HasPrefix(evt.Kind, s.prefix) {
		return false
	}
	return s.userID == "" || len(evt.Audience) == 0 || slices.Contains(evt.Audience, s.userID)
}

// Lagged returns how many events were dropped since the last call.
func (s *Subscription) Lagged() uint64 {
	return s.dropped.Swap(0)
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}
