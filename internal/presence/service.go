// Package presence tracks whether users are online. Service is the
// server-side record keeper; Tracker is the client-side heartbeat loop.
package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/apperr"
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/store"
)

// Change is the payload of presence.changed events.
type Change struct {
	UserID   string
	Online   bool
	LastSeen int64
}

// Options tunes the stale-presence sweep.
type Options struct {
	// OfflineAfter is how long a user stays online without a heartbeat.
	OfflineAfter  time.Duration
	SweepInterval time.Duration
}

// Service records presence on the user table and optionally a Redis index.
type Service struct {
	db     *store.DB
	bus    *bus.Bus
	index  *RedisIndex
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a presence service. index may be nil.
func NewService(db *store.DB, b *bus.Bus, index *RedisIndex, opts Options, logger *zap.Logger) *Service {
	if opts.OfflineAfter <= 0 {
		opts.OfflineAfter = 2 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, bus: b, index: index, opts: opts, logger: logger, now: time.Now}
}

// MarkOnline flags userID online and stamps lastSeen. Idempotent.
func (s *Service) MarkOnline(ctx context.Context, userID string) error {
	return s.set(ctx, "presence.mark_online", userID, true)
}

// MarkOffline flags userID offline and stamps lastSeen. Idempotent.
func (s *Service) MarkOffline(ctx context.Context, userID string) error {
	return s.set(ctx, "presence.mark_offline", userID, false)
}

func (s *Service) set(ctx context.Context, op, userID string, online bool) error {
	prev, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if prev == nil {
		return apperr.New(apperr.NotFound, op, "user not found")
	}

	now := s.now()
	ok, err := s.db.SetPresence(ctx, userID, online, now.UnixMilli())
	if err != nil {
		return apperr.Wrap(op, err)
	}
	if !ok {
		return apperr.New(apperr.NotFound, op, "user not found")
	}

	if s.index != nil {
		var ierr error
		if online {
			ierr = s.index.Touch(ctx, userID, now)
		} else {
			ierr = s.index.Remove(ctx, userID)
		}
		if ierr != nil {
			s.logger.Warn("presence index update failed", zap.String("user_id", userID), zap.Error(ierr))
		}
	}

	if prev.IsOnline != online {
		s.publish(Change{UserID: userID, Online: online, LastSeen: now.UnixMilli()})
	}
	return nil
}

// OnlineCount returns how many users are currently online.
func (s *Service) OnlineCount(ctx context.Context) (int64, error) {
	if s.index != nil {
		n, err := s.index.Count(ctx, s.now().Add(-s.opts.OfflineAfter))
		if err == nil {
			return n, nil
		}
		s.logger.Warn("presence index count failed, using database", zap.Error(err))
	}
	n, err := s.db.CountOnline(ctx)
	if err != nil {
		return 0, apperr.Wrap("presence.online_count", err)
	}
	return n, nil
}

// Sweep marks offline every user whose last heartbeat is older than
// OfflineAfter and returns their ids.
func (s *Service) Sweep(ctx context.Context) ([]string, error) {
	cutoff := s.now().Add(-s.opts.OfflineAfter)
	stale, err := s.db.MarkStaleOffline(ctx, cutoff.UnixMilli())
	if err != nil {
		return nil, apperr.Wrap("presence.sweep", err)
	}
	if s.index != nil {
		if err := s.index.Expire(ctx, cutoff); err != nil {
			s.logger.Warn("presence index expire failed", zap.Error(err))
		}
	}
	ids := make([]string, 0, len(stale))
	for _, u := range stale {
		ids = append(ids, u.ID)
		s.publish(Change{UserID: u.ID, Online: false, LastSeen: u.LastSeen})
	}
	return ids, nil
}

// Start begins the periodic stale-presence sweep.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the sweep loop and waits for a running sweep to finish.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ids, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("presence sweep failed", zap.Error(err))
				continue
			}
			if len(ids) > 0 {
				s.logger.Info("marked stale users offline", zap.Int("count", len(ids)))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) publish(c Change) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Kind:      bus.KindPresenceChanged,
		Timestamp: s.now(),
		Payload:   c,
	})
}
