// Package chatlist builds the per-partner chat overview: the newest message
// and unread count for every conversation a user has.
package chatlist

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/store"
)

// UnknownUser is shown for partners whose record no longer resolves.
const UnknownUser = "Unknown User"

// Source selects how candidate partners are enumerated.
type Source string

const (
	// FromFriends uses accepted contacts.
	FromFriends Source = "friends"
	// FromMessages scans recent private messages, for deployments without contacts.
	FromMessages Source = "messages"
)

const (
	defaultScan        = 200
	defaultConcurrency = 8
)

// Summary is one row of the chat list.
type Summary struct {
	PartnerID       string
	PartnerName     string
	LastMessageBody string
	LastMessageAt   int64
	UnreadCount     int
	PartnerOnline   bool
	PartnerLastSeen int64
}

// sortKey is LastMessageAt, falling back to PartnerLastSeen.
func (s *Summary) sortKey() int64 {
	if s.LastMessageAt != 0 {
		return s.LastMessageAt
	}
	return s.PartnerLastSeen
}

// Aggregator composes the contact manager and the messaging accessor.
type Aggregator struct {
	db       *store.DB
	contacts *contacts.Manager
	messages *messaging.Service
	source   Source
	scan     int
	limit    int
}

// NewAggregator creates an aggregator reading partners from source.
func NewAggregator(db *store.DB, c *contacts.Manager, m *messaging.Service, source Source) *Aggregator {
	if source != FromMessages {
		source = FromFriends
	}
	return &Aggregator{
		db:       db,
		contacts: c,
		messages: m,
		source:   source,
		scan:     defaultScan,
		limit:    defaultConcurrency,
	}
}

// ListChats returns one summary per partner of userID, most recent first.
func (a *Aggregator) ListChats(ctx context.Context, userID string) ([]Summary, error) {
	const op = "chatlist.list"
	partners, err := a.partners(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := partners
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i := range partners {
		i := i
		g.Go(func() error {
			s := &out[i]
			last, err := a.messages.LastMessage(gctx, userID, s.PartnerID)
			if err != nil {
				return err
			}
			if last != nil {
				s.LastMessageBody = last.Body
				s.LastMessageAt = last.SentAt
				if s.LastMessageBody == "" && last.Attachment != nil {
					s.LastMessageBody = "[" + last.Attachment.Name + "]"
				}
			}
			s.UnreadCount, err = a.messages.UnreadCount(gctx, userID, s.PartnerID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(op, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].sortKey(), out[j].sortKey()
		if ki != kj {
			return ki > kj
		}
		return out[i].PartnerID < out[j].PartnerID
	})
	return out, nil
}

// partners returns summaries pre-filled with partner identity and presence.
func (a *Aggregator) partners(ctx context.Context, userID string) ([]Summary, error) {
	if a.source == FromMessages {
		return a.partnersFromMessages(ctx, userID)
	}
	friends, err := a.contacts.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(friends))
	for _, f := range friends {
		s := Summary{PartnerID: f.UserID, PartnerName: UnknownUser}
		if f.Resolved {
			s.PartnerName = f.Username
			s.PartnerOnline = f.IsOnline
			s.PartnerLastSeen = f.LastSeen
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *Aggregator) partnersFromMessages(ctx context.Context, userID string) ([]Summary, error) {
	ids, err := a.messages.RecentPartners(ctx, userID, a.scan)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		s := Summary{PartnerID: id, PartnerName: UnknownUser}
		u, err := a.db.GetUser(ctx, id)
		if err != nil {
			return nil, apperr.Wrap("chatlist.list", err)
		}
		if u != nil {
			s.PartnerName = u.Username
			s.PartnerOnline = u.IsOnline
			s.PartnerLastSeen = u.LastSeen
		}
		out = append(out, s)
	}
	return out, nil
}
