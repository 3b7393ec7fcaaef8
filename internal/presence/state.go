package presence

import (
	"fmt"
	"slices"
	"sync"
)

// State is the lifecycle state of a client heartbeat tracker.
type State string

const (
	Idle   State = "IDLE"   // no authenticated session
	Active State = "ACTIVE" // session open, UI visible: heartbeats fire
	Hidden State = "HIDDEN" // session open, UI hidden: heartbeats paused
	Closed State = "CLOSED" // torn down
)

// validTransitions defines allowed tracker transitions.
var validTransitions = map[State][]State{
	Idle:   {Active, Closed},
	Active: {Hidden, Idle, Closed},
	Hidden: {Active, Idle, Closed},
	Closed: {},
}

// machine tracks and enforces tracker state transitions.
type machine struct {
	mu      sync.RWMutex
	current State
}

func (m *machine) get() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// transition moves to the new state and returns the previous one.
func (m *machine) transition(to State) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return m.current, fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	return from, nil
}
