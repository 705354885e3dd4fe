// Package process provides subprocess lifecycle management for probes.
//
// Two levels of abstraction:
//
// Process wraps os/exec for a single supervised subprocess:
//   - Graceful shutdown with SIGINT and a configurable timeout
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming into the structured log
//
// Pool manages multiple named probes:
//   - Start/Stop/Restart by probe ID
//   - State tracking (idle, starting, running, stopping, error)
//   - RunningPids for handing exclusions to the orphan reaper
//   - StopAll for shutdown
//
// Probes are ordinary children of this process: os/exec reaps them through
// Wait, which is why the reaper must be told their pids are owned.
package process
