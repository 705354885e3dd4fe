package events

// Event type identifiers for kelindar/event dispatch.
const (
	TypeChildPending uint32 = iota + 1
	TypeChildExit
	TypeCheckPassed
	TypeCheckFailed
	TypeProbeStateChanged
	TypeLogEntry
)

// Event is the interface kelindar/event requires of published values.
type Event interface {
	Type() uint32
}

// ChildPendingEvent reports a child observed with an unconsumed wait
// status. Advisory: the child may be reaped by the time a handler runs.
type ChildPendingEvent struct {
	Pid int `json:"pid" example:"4242" doc:"Process ID with a pending wait status"`
}

// Type returns the event type identifier for ChildPendingEvent.
func (e ChildPendingEvent) Type() uint32 { return TypeChildPending }

// ChildExitEvent reports a child reaped by the reaper.
type ChildExitEvent struct {
	Pid      int `json:"pid" example:"4242" doc:"Process ID of the reaped child"`
	ExitCode int `json:"exit_code" example:"0" doc:"Exit code, or 128+signal when signaled"`
}

// Type returns the event type identifier for ChildExitEvent.
func (e ChildExitEvent) Type() uint32 { return TypeChildExit }

// CheckPassedEvent reports a smoke check that completed successfully.
type CheckPassedEvent struct {
	Check      string `json:"check" example:"entropy" doc:"Check name"`
	DurationMs int64  `json:"duration_ms" example:"12" doc:"Run duration in milliseconds"`
}

// Type returns the event type identifier for CheckPassedEvent.
func (e CheckPassedEvent) Type() uint32 { return TypeCheckPassed }

// CheckFailedEvent reports a smoke check failure.
type CheckFailedEvent struct {
	Check      string `json:"check" example:"childwait" doc:"Check name"`
	Error      string `json:"error" doc:"Failure description"`
	DurationMs int64  `json:"duration_ms" example:"12" doc:"Run duration in milliseconds"`
}

// Type returns the event type identifier for CheckFailedEvent.
func (e CheckFailedEvent) Type() uint32 { return TypeCheckFailed }

// ProbeStateChangedEvent reports a supervised probe transitioning state.
type ProbeStateChangedEvent struct {
	Probe    string `json:"probe" example:"disk-io" doc:"Probe ID"`
	OldState string `json:"old_state" example:"starting" doc:"Previous state"`
	NewState string `json:"new_state" example:"running" doc:"New state"`
	Error    string `json:"error,omitempty" doc:"Error detail for error transitions"`
}

// Type returns the event type identifier for ProbeStateChangedEvent.
func (e ProbeStateChangedEvent) Type() uint32 { return TypeProbeStateChanged }

// LogEntryEvent mirrors a buffered log entry for event consumers.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" doc:"Entry timestamp, RFC 3339"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"reaper" doc:"Originating module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
