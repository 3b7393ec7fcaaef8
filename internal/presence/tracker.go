package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the heartbeat period of a visible session.
const DefaultInterval = 30 * time.Second

const offlineTimeout = 2 * time.Second

// Beater delivers presence updates for the authenticated user.
type Beater interface {
	Heartbeat(ctx context.Context) error
	GoOffline(ctx context.Context) error
}

// Tracker fires Heartbeat on a fixed interval while the session is open and
// the UI is visible. Hiding the UI pauses heartbeats without going offline.
type Tracker struct {
	beater   Beater
	interval time.Duration
	logger   *zap.Logger

	sm machine

	mu     sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker creates an idle tracker. A non-positive interval uses DefaultInterval.
func NewTracker(b Beater, interval time.Duration, logger *zap.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		beater:   b,
		interval: interval,
		logger:   logger,
		sm:       machine{current: Idle},
	}
}

// State returns the current tracker state.
func (t *Tracker) State() State {
	return t.sm.get()
}

// Start begins heartbeating for a newly authenticated session. The first
// heartbeat fires immediately.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.sm.transition(Active); err != nil {
		return err
	}
	t.parent = ctx
	t.startLoop()
	return nil
}

// SetVisible pauses heartbeats when the UI is hidden and resumes them, with
// one immediate heartbeat, when it becomes visible again. It is a no-op
// without an open session or when visibility is unchanged.
func (t *Tracker) SetVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.sm.get()
	switch {
	case visible && cur == Hidden:
		_, _ = t.sm.transition(Active)
		t.startLoop()
	case !visible && cur == Active:
		_, _ = t.sm.transition(Hidden)
		t.stopLoop()
	}
}

// Stop ends heartbeating because the session ended. No heartbeat fires
// after Stop returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.sm.transition(Idle); err != nil {
		return
	}
	t.stopLoop()
}

// Close tears the tracker down. If a session was open it makes one
// best-effort GoOffline call; failures are logged, never returned.
func (t *Tracker) Close(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from, err := t.sm.transition(Closed)
	if err != nil {
		return
	}
	t.stopLoop()
	if from == Idle {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, offlineTimeout)
	defer cancel()
	if err := t.beater.GoOffline(ctx); err != nil {
		t.logger.Warn("go offline failed", zap.Error(err))
	}
}

// startLoop must be called with t.mu held.
func (t *Tracker) startLoop() {
	ctx, cancel := context.WithCancel(t.parent)
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	go t.loop(ctx, done)
}

// stopLoop must be called with t.mu held.
func (t *Tracker) stopLoop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel, t.done = nil, nil
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.beat(ctx)
	for {
		select {
		case <-ticker.C:
			t.beat(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) beat(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := t.beater.Heartbeat(ctx); err != nil && ctx.Err() == nil {
		t.logger.Warn("heartbeat failed", zap.Error(err))
	}
}
