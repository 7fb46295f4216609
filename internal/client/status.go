package client

import "sync"

// State is the connection state of a client toward its backend.
type State int

const (
	StateUnknown State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Status is a point-in-time connection status. Message is set only for
// StateFailed.
type Status struct {
	State   State
	Message string
}

// StatusTracker holds the current connection status and notifies an optional
// listener on every transition. Safe for concurrent use.
type StatusTracker struct {
	mu       sync.Mutex
	current  Status
	listener func(Status)
}

// NewStatusTracker returns a tracker in StateUnknown.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{current: Status{State: StateUnknown}}
}

// Current returns the latest status.
func (t *StatusTracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set records a transition and notifies the listener if the status changed.
// The message is kept only for failed states.
func (t *StatusTracker) Set(state State, message string) {
	if state != StateFailed {
		message = ""
	}
	next := Status{State: state, Message: message}

	t.mu.Lock()
	changed := next != t.current
	t.current = next
	listener := t.listener
	t.mu.Unlock()

	if changed && listener != nil {
		listener(next)
	}
}
