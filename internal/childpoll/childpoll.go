// Package childpoll implements a non-destructive poll of the process table
// for waitable children of the current process.
//
// Unlike a regular wait call, Poll never blocks and never consumes a child's
// exit status: the kernel keeps the zombie entry around, so a later
// wait/reap by the same process still observes it. This makes Poll safe to
// use as a pure observation primitive alongside os/exec, which does its own
// reaping.
package childpoll

// Kind classifies the outcome of a single poll.
type Kind int

const (
	// KindNoChildren means the process has no waitable children at all.
	KindNoChildren Kind = iota
	// KindNonePending means children exist but none has a pending event.
	KindNonePending
	// KindPending means a specific child has a pending exit/stop/continue
	// event that has not been consumed yet.
	KindPending
)

// String returns the kind as a stable lowercase identifier.
func (k Kind) String() string {
	switch k {
	case KindNoChildren:
		return "no_children"
	case KindNonePending:
		return "none_pending"
	case KindPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Result is the outcome of one poll. It is a snapshot taken at the instant
// of the call: a pid reported as pending may already have been reaped by
// another goroutine or thread by the time the caller acts on it, so callers
// must treat it as advisory (see Verify).
type Result struct {
	Kind Kind
	// Pid is the child with a pending event. Only set for KindPending.
	Pid int
	// Err holds the raw OS error when the underlying query failed. The
	// query failing (commonly ECHILD) is reported as KindNoChildren, not
	// escalated; Err is kept for logging and diagnostics only.
	Err error
}

// Sentinel maps the result onto the single-integer wire contract:
// -1 for no waitable children, 0 for children with nothing pending,
// and the pid of the pending child otherwise.
func (r Result) Sentinel() int {
	switch r.Kind {
	case KindNonePending:
		return 0
	case KindPending:
		return r.Pid
	default:
		return -1
	}
}

// Poll queries the process table for any waitable child of the calling
// process. It returns immediately and has no side effects: the pending
// event, if any, stays consumable by a subsequent wait call.
func Poll() Result {
	return pollAnyChild()
}

// PollExited is Poll restricted to children that have exited. Stopped or
// continued children are not reported, so a child sitting in SIGSTOP cannot
// mask an exited orphan queued behind it. Reapers poll with this.
func PollExited() Result {
	return pollExitedChild()
}
