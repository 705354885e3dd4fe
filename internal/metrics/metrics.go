// Package metrics provides Prometheus metrics for polls, reaps, checks and
// probe supervision.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procnode",
		Subsystem: "childpoll",
		Name:      "polls_total",
		Help:      "Non-destructive child polls by outcome kind",
	}, []string{"kind"})

	reapedChildren = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "procnode",
		Subsystem: "reaper",
		Name:      "reaped_children_total",
		Help:      "Children reaped by the SIGCHLD reaper",
	})

	checkRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procnode",
		Subsystem: "checks",
		Name:      "runs_total",
		Help:      "Smoke check runs by check name and result",
	}, []string{"check", "result"})

	probeRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procnode",
		Subsystem: "probes",
		Name:      "restarts_total",
		Help:      "Probe restarts by probe ID",
	}, []string{"probe"})

	probesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "procnode",
		Subsystem: "probes",
		Name:      "running",
		Help:      "Number of probes currently running",
	})
)

// ObservePoll records one poll outcome (kind is the Result kind string).
func ObservePoll(kind string) {
	pollsTotal.WithLabelValues(kind).Inc()
}

// ObserveReap records one reaped child.
func ObserveReap() {
	reapedChildren.Inc()
}

// ObserveCheck records one check run.
func ObserveCheck(check string, passed bool) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	checkRuns.WithLabelValues(check, result).Inc()
}

// ObserveProbeRestart records one probe restart.
func ObserveProbeRestart(probe string) {
	probeRestarts.WithLabelValues(probe).Inc()
}

// SetProbesRunning sets the running-probe gauge.
func SetProbesRunning(n int) {
	probesRunning.Set(float64(n))
}
