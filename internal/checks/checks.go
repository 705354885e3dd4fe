// Package checks runs node smoke checks: short, self-contained probes of
// platform facilities that must hold for the node to be trustworthy.
package checks

import (
	"context"
	"time"

	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
	"github.com/ykarpov/procnode/internal/metrics"
)

// Check is one smoke check. Run returns nil on pass.
type Check interface {
	Name() string
	Run(ctx context.Context) error
}

// Result is the outcome of one check run.
type Result struct {
	Name       string `json:"name" example:"entropy" doc:"Check name"`
	Passed     bool   `json:"passed" doc:"Whether the check passed"`
	Error      string `json:"error,omitempty" doc:"Failure description"`
	DurationMs int64  `json:"duration_ms" doc:"Run duration in milliseconds"`
}

// Runner executes registered checks sequentially, reporting each outcome to
// the log, the metrics registry and the event bus.
type Runner struct {
	checks []Check
	logger logging.Logger
	bus    *events.Bus
}

// NewRunner creates a runner. The bus may be nil for one-shot CLI use.
func NewRunner(logger logging.Logger, bus *events.Bus) *Runner {
	return &Runner{logger: logger, bus: bus}
}

// Add registers checks to run.
func (r *Runner) Add(checks ...Check) {
	r.checks = append(r.checks, checks...)
}

// Run executes all checks in registration order. A failing check does not
// stop the rest.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))
	for _, c := range r.checks {
		start := time.Now()
		err := c.Run(ctx)
		elapsed := time.Since(start)

		res := Result{
			Name:       c.Name(),
			Passed:     err == nil,
			DurationMs: elapsed.Milliseconds(),
		}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)

		metrics.ObserveCheck(res.Name, res.Passed)
		if res.Passed {
			r.logger.Info("Check passed", "check", res.Name, "duration", elapsed)
			if r.bus != nil {
				r.bus.Publish(events.CheckPassedEvent{Check: res.Name, DurationMs: res.DurationMs})
			}
		} else {
			r.logger.Error("Check failed", "check", res.Name, "error", err, "duration", elapsed)
			if r.bus != nil {
				r.bus.Publish(events.CheckFailedEvent{Check: res.Name, Error: res.Error, DurationMs: res.DurationMs})
			}
		}
	}
	return results
}

// AnyFailed reports whether any result in the slice failed.
func AnyFailed(results []Result) bool {
	for _, res := range results {
		if !res.Passed {
			return true
		}
	}
	return false
}
