//go:build linux

package reaper

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ykarpov/procnode/internal/childpoll"
	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
	"github.com/ykarpov/procnode/internal/metrics"
)

const sweepInterval = 5 * time.Second

// Reaper reaps orphaned children on SIGCHLD, with a periodic sweep as a
// backstop for signals coalesced or delivered before Start.
type Reaper struct {
	logger    logging.Logger
	bus       *events.Bus
	subreaper bool
	owned     OwnedFunc
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithSubreaper marks the process as a child subreaper on Start, so
// orphaned descendants get reparented to it instead of PID 1.
func WithSubreaper() Option {
	return func(r *Reaper) { r.subreaper = true }
}

// WithOwnedFunc installs the owned-pid predicate. Owned children are never
// reaped here; their spawner's wait consumes them.
func WithOwnedFunc(f OwnedFunc) Option {
	return func(r *Reaper) { r.owned = f }
}

// New creates a reaper. The bus may be nil.
func New(logger logging.Logger, bus *events.Bus, opts ...Option) *Reaper {
	r := &Reaper{logger: logger, bus: bus}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins reaping. It fails with ErrNotReaper when the process cannot
// legitimately reap (see package doc).
func (r *Reaper) Start(ctx context.Context) error {
	if r.subreaper {
		if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
			return fmt.Errorf("reaper: set child subreaper: %w", err)
		}
		r.logger.Info("Registered as child subreaper")
	} else if os.Getpid() != 1 {
		return ErrNotReaper
	}

	sig := make(chan os.Signal, 16)
	signal.Notify(sig, unix.SIGCHLD)

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		defer signal.Stop(sig)

		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		// Children may have died before Notify was in place.
		r.sweep()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				r.sweep()
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
	return nil
}

// Stop terminates the reap loop and waits for it to finish.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// sweep drains exited children. Each iteration observes first with a
// non-destructive poll; the destructive wait targets the observed pid only,
// so an owned child blocks the sweep (its spawner reaps it shortly) instead
// of being stolen. The poll is restricted to exit events: a stopped child
// would otherwise be reported on every sweep and mask exited orphans
// queued behind it, since it has no status for Wait4 to consume.
func (r *Reaper) sweep() {
	for {
		res := childpoll.PollExited()
		if res.Kind != childpoll.KindPending {
			return
		}
		pid := res.Pid
		if r.bus != nil {
			r.bus.Publish(events.ChildPendingEvent{Pid: pid})
		}
		if r.owned != nil && r.owned(pid) {
			r.logger.Debug("Pending child is owned, leaving for its waiter", "pid", pid)
			return
		}

		var status unix.WaitStatus
		wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
		if err != nil || wpid <= 0 {
			// Raced with a concurrent waiter; nothing to reap right now.
			return
		}

		code := exitCode(status)
		metrics.ObserveReap()
		r.logger.Info("Reaped orphaned child", "pid", wpid, "exit_code", code)
		if r.bus != nil {
			r.bus.Publish(events.ChildExitEvent{Pid: wpid, ExitCode: code})
		}
	}
}

// exitCode maps a wait status to the shell convention: 128+signal for
// signaled children, the exit status otherwise.
func exitCode(status unix.WaitStatus) int {
	if status.Signaled() {
		return 128 + int(status.Signal())
	}
	return status.ExitStatus()
}
