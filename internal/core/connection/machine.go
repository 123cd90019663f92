// Package connection tracks the realtime transport lifecycle as an
// explicit state machine. Transitions are driven by transport
// callbacks only; UI code may solely request a reconnect. Modeling the
// lifecycle as an enum with a transition table rules out the impossible
// flag combinations an isConnected/isConnecting/hasError triple allows.
package connection

import (
	"fmt"
	"sync"
)

// State is the transport lifecycle state
type State int

const (
	// StateConnecting is the initial state and the state entered
	// optimistically when a reconnect is requested.
	StateConnecting State = iota
	// StateConnected means the transport delivered its connect callback.
	StateConnected
	// StateDisconnected means the transport dropped without an error.
	StateDisconnected
	// StateError means the transport signalled a failure; the reason is
	// kept alongside.
	StateError
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Machine owns the connection state. All transitions are atomic; the
// transport callback goroutine and the UI goroutine may call in
// concurrently.
type Machine struct {
	mu     sync.RWMutex
	state  State
	reason string
}

// NewMachine creates a machine in the initial connecting state
func NewMachine() *Machine {
	return &Machine{state: StateConnecting}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reason returns the failure reason; empty unless the state is error
func (m *Machine) Reason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// Snapshot returns state and reason as one atomic read
func (m *Machine) Snapshot() (State, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.reason
}

// OnConnect applies connecting -> connected. Any other source state is
// an illegal transition and is ignored (returns false).
func (m *Machine) OnConnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnecting {
		return false
	}
	m.state = StateConnected
	m.reason = ""
	return true
}

// OnDisconnect applies connected -> disconnected. Drops reported while
// not connected are ignored.
func (m *Machine) OnDisconnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected {
		return false
	}
	m.state = StateDisconnected
	m.reason = ""
	return true
}

// OnError applies {connecting, connected, disconnected} -> error and
// records the reason. A machine already in error keeps the error state
// and refreshes the reason.
func (m *Machine) OnError(reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateError
	m.reason = reason
	return true
}

// RequestReconnect applies {error, disconnected} -> connecting. It is a
// no-op returning false when already connected or connecting; the
// transition is optimistic, with transport failure reverting the
// machine to error through OnError.
func (m *Machine) RequestReconnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected || m.state == StateConnecting {
		return false
	}
	m.state = StateConnecting
	m.reason = ""
	return true
}

// StateDisplay is the presentation mapping for one state: a label plus
// the indicator dot and text colors.
type StateDisplay struct {
	Label     string
	DotColor  string
	TextColor string
}

// Display maps a state to its label and colors. The mapping is pure
// and stateless; error reasons are rendered by the caller alongside
// the label.
func Display(state State) StateDisplay {
	switch state {
	case StateConnected:
		return StateDisplay{Label: "Live", DotColor: "#22c55e", TextColor: "#16a34a"}
	case StateDisconnected:
		return StateDisplay{Label: "Disconnected", DotColor: "#9ca3af", TextColor: "#6b7280"}
	case StateError:
		return StateDisplay{Label: "Connection error", DotColor: "#ef4444", TextColor: "#dc2626"}
	default:
		return StateDisplay{Label: "Connecting", DotColor: "#eab308", TextColor: "#ca8a04"}
	}
}
