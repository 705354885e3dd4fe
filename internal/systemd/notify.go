// Package systemd integrates with the service manager: readiness and
// shutdown notifications plus watchdog keepalives when running under a
// unit with WatchdogSec set. All calls are no-ops outside systemd.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/ykarpov/procnode/internal/logging"
)

// Notifier sends sd_notify messages to systemd.
type Notifier struct {
	logger logging.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier creates a systemd notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.GetLogger("systemd")
	}
	return &Notifier{logger: logger}
}

// Ready signals that startup is complete and starts the watchdog loop
// when the unit requests one.
func (n *Notifier) Ready() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		n.logger.Warn("Failed to notify systemd readiness", "error", err)
		return
	}
	if !sent {
		// Not running under systemd.
		return
	}
	n.logger.Debug("Notified systemd: ready")
	n.startWatchdog()
}

// Stopping signals that shutdown has begun and stops the watchdog loop.
func (n *Notifier) Stopping() {
	if n.cancel != nil {
		n.cancel()
		<-n.done
		n.cancel = nil
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		n.logger.Warn("Failed to notify systemd shutdown", "error", err)
	}
}

// startWatchdog pings the systemd watchdog at half the configured
// interval, per sd_watchdog_enabled(3).
func (n *Notifier) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Failed to query systemd watchdog", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})

	n.logger.Info("Systemd watchdog enabled", "interval", interval)
	go func() {
		defer close(n.done)
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
					n.logger.Warn("Watchdog ping failed", "error", err)
				}
			}
		}
	}()
}
