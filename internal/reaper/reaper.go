// Package reaper collects orphaned child processes so zombies do not
// accumulate when procnode runs as PID 1 (containers) or as a subreaper.
//
// The reaper observes before it acts: each SIGCHLD triggers a
// non-destructive poll, and only children that no other component owns are
// reaped. Children spawned through os/exec (probes, check helpers) are left
// for their exec.Wait to consume.
package reaper

import "errors"

// ErrNotReaper means the process is neither PID 1 nor configured as a
// subreaper, so orphans are never reparented to it and destructive reaping
// would only steal statuses from os/exec.
var ErrNotReaper = errors.New("reaper: not pid 1 and subreaper not enabled")

// OwnedFunc reports whether a pid belongs to a child some other component
// is going to wait on itself.
type OwnedFunc func(pid int) bool
