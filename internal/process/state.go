package process

import "time"

// State represents the current state of a managed probe.
type State string

// Probe states.
const (
	StateIdle     State = "idle"     // Not running
	StateStarting State = "starting" // Being started
	StateRunning  State = "running"  // Active
	StateStopping State = "stopping" // Being stopped
	StateError    State = "error"    // Failed to start or crashed
)

// Info describes a managed probe.
type Info struct {
	ID           string
	State        State
	PID          int
	StartedAt    time.Time
	RestartCount int
	LastError    error
}
