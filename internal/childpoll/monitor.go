package childpoll

import (
	"context"
	"time"

	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
	"github.com/ykarpov/procnode/internal/metrics"
)

// Monitor polls the process table on a fixed interval, recording each
// outcome as a metric and publishing an event when a child turns up with a
// pending, unconsumed status. It observes only; it never reaps.
type Monitor struct {
	interval time.Duration
	logger   logging.Logger
	bus      *events.Bus
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewMonitor creates a monitor that polls every interval.
func NewMonitor(interval time.Duration, logger logging.Logger, bus *events.Bus) *Monitor {
	return &Monitor{
		interval: interval,
		logger:   logger,
		bus:      bus,
	}
}

// Start launches the poll loop. Stop releases it.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		var lastPending int
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res := Poll()
				metrics.ObservePoll(res.Kind.String())

				if res.Kind != KindPending {
					lastPending = 0
					continue
				}
				// WNOWAIT keeps the event pending, so the same pid
				// shows up on every tick until someone reaps it.
				// Only announce it once.
				if res.Pid == lastPending {
					continue
				}
				lastPending = res.Pid
				m.logger.Info("Child has pending wait status", "pid", res.Pid)
				if m.bus != nil {
					m.bus.Publish(events.ChildPendingEvent{Pid: res.Pid})
				}
			}
		}
	}()
}

// Stop terminates the poll loop and waits for it to finish.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}
