package presence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingBeater struct {
	beats    atomic.Int32
	offline  atomic.Int32
	failBeat bool
	failOff  bool
}

func (c *countingBeater) Heartbeat(context.Context) error {
	c.beats.Add(1)
	if c.failBeat {
		return errors.New("unreachable")
	}
	return nil
}

func (c *countingBeater) GoOffline(context.Context) error {
	c.offline.Add(1)
	if c.failOff {
		return errors.New("unreachable")
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTrackerFiresImmediatelyAndPeriodically(t *testing.T) {
	b := &countingBeater{}
	tr := NewTracker(b, 20*time.Millisecond, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer tr.Close(context.Background())

	waitFor(t, func() bool { return b.beats.Load() >= 1 })
	waitFor(t, func() bool { return b.beats.Load() >= 3 })
	if tr.State() != Active {
		t.Errorf("state = %s, want ACTIVE", tr.State())
	}
}

func TestTrackerHiddenPausesWithoutGoingOffline(t *testing.T) {
	b := &countingBeater{}
	tr := NewTracker(b, 10*time.Millisecond, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer tr.Close(context.Background())
	waitFor(t, func() bool { return b.beats.Load() >= 1 })

	tr.SetVisible(false)
	paused := b.beats.Load()
	time.Sleep(50 * time.Millisecond)
	if got := b.beats.Load(); got != paused {
		t.Errorf("beats while hidden: %d -> %d", paused, got)
	}
	if b.offline.Load() != 0 {
		t.Error("hiding must not go offline")
	}

	tr.SetVisible(true)
	waitFor(t, func() bool { return b.beats.Load() > paused })
	if tr.State() != Active {
		t.Errorf("state = %s, want ACTIVE", tr.State())
	}
}

func TestTrackerResumeFiresBeforeInterval(t *testing.T) {
	b := &countingBeater{}
	tr := NewTracker(b, time.Hour, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer tr.Close(context.Background())
	waitFor(t, func() bool { return b.beats.Load() == 1 })

	tr.SetVisible(false)
	tr.SetVisible(true)
	waitFor(t, func() bool { return b.beats.Load() == 2 })
}

func TestTrackerStopEndsHeartbeats(t *testing.T) {
	b := &countingBeater{}
	tr := NewTracker(b, 5*time.Millisecond, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return b.beats.Load() >= 2 })

	tr.Stop()
	stopped := b.beats.Load()
	time.Sleep(30 * time.Millisecond)
	if got := b.beats.Load(); got != stopped {
		t.Errorf("beats after Stop: %d -> %d", stopped, got)
	}
	if tr.State() != Idle {
		t.Errorf("state = %s, want IDLE", tr.State())
	}

	// Visibility changes without a session do nothing.
	tr.SetVisible(true)
	time.Sleep(20 * time.Millisecond)
	if got := b.beats.Load(); got != stopped {
		t.Error("SetVisible(true) while idle should not heartbeat")
	}

	// A new session can start again.
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitFor(t, func() bool { return b.beats.Load() > stopped })
	tr.Close(context.Background())
}

func TestTrackerCloseGoesOfflineBestEffort(t *testing.T) {
	b := &countingBeater{failBeat: true, failOff: true}
	tr := NewTracker(b, time.Hour, nil)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return b.beats.Load() == 1 })

	tr.Close(context.Background())
	if b.offline.Load() != 1 {
		t.Errorf("GoOffline calls = %d, want 1", b.offline.Load())
	}
	if tr.State() != Closed {
		t.Errorf("state = %s, want CLOSED", tr.State())
	}

	// Closed is terminal.
	tr.Close(context.Background())
	if b.offline.Load() != 1 {
		t.Error("second Close should not call GoOffline")
	}
	if err := tr.Start(context.Background()); err == nil {
		t.Error("Start after Close should fail")
	}
}

func TestTrackerCloseWhileIdleSkipsOffline(t *testing.T) {
	b := &countingBeater{}
	tr := NewTracker(b, time.Hour, nil)
	tr.Close(context.Background())
	if b.offline.Load() != 0 {
		t.Error("no session, no GoOffline")
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Idle, Active, true},
		{Idle, Hidden, false},
		{Active, Hidden, true},
		{Hidden, Active, true},
		{Hidden, Idle, true},
		{Active, Closed, true},
		{Closed, Active, false},
		{Closed, Idle, false},
	}
	for _, tt := range tests {
		m := machine{current: tt.from}
		_, err := m.transition(tt.to)
		if (err == nil) != tt.ok {
			t.Errorf("%s -> %s: err = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
		}
	}
}
