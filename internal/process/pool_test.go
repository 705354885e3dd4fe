package process

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

const loopCommand = `sh -c "trap 'exit 0' INT TERM; while :; do sleep 0.1; done"`

func newTestPool(t *testing.T, opts *PoolOptions) Pool {
	t.Helper()
	if opts == nil {
		opts = &PoolOptions{}
	}
	if opts.CommandProvider == nil {
		opts.CommandProvider = func(id string) (string, error) {
			return loopCommand, nil
		}
	}
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	opts.ConfigureProcess = func(id string, proc *Process) {
		proc.gracefulTimeout = 500 * time.Millisecond
		proc.killTimeout = 500 * time.Millisecond
	}
	p := NewPool(opts)
	t.Cleanup(p.StopAll)
	return p
}

func waitForRunning(t *testing.T, p Pool, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.IsRunning(id) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("probe %s did not reach running state", id)
}

func TestPoolStartStop(t *testing.T) {
	p := newTestPool(t, nil)

	if err := p.Start("cpu"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForRunning(t, p, "cpu")

	info := p.GetStatus("cpu")
	if info.State != StateRunning {
		t.Errorf("expected running state, got %s", info.State)
	}
	if info.PID <= 0 {
		t.Errorf("expected positive pid, got %d", info.PID)
	}

	if err := p.Stop("cpu"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning("cpu") {
		t.Error("probe still running after stop")
	}
	if got := p.GetStatus("cpu").State; got != StateIdle {
		t.Errorf("expected idle after stop, got %s", got)
	}
}

func TestPoolStartTwice(t *testing.T) {
	p := newTestPool(t, nil)

	if err := p.Start("mem"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForRunning(t, p, "mem")

	if err := p.Start("mem"); err == nil {
		t.Error("expected error starting an already running probe")
	}
}

func TestPoolRestartCountsSurviveStop(t *testing.T) {
	p := newTestPool(t, nil)

	if err := p.Start("disk"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForRunning(t, p, "disk")

	if err := p.Restart("disk"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitForRunning(t, p, "disk")

	if got := p.GetStatus("disk").RestartCount; got != 1 {
		t.Errorf("expected restart count 1, got %d", got)
	}

	if err := p.Stop("disk"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Count persists for the next start.
	if got := p.GetStatus("disk").RestartCount; got != 1 {
		t.Errorf("expected restart count 1 after stop, got %d", got)
	}
}

func TestPoolRunningPids(t *testing.T) {
	p := newTestPool(t, nil)

	for _, id := range []string{"a", "b"} {
		if err := p.Start(id); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
		waitForRunning(t, p, id)
	}

	pids := p.RunningPids()
	if len(pids) != 2 {
		t.Fatalf("expected 2 pids, got %v", pids)
	}
	for _, pid := range pids {
		if pid <= 0 {
			t.Errorf("invalid pid %d", pid)
		}
	}
}

func TestPoolStateChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	opts := &PoolOptions{
		OnStateChange: func(id string, oldState, newState State, err error) {
			mu.Lock()
			transitions = append(transitions, fmt.Sprintf("%s->%s", oldState, newState))
			mu.Unlock()
		},
	}
	p := newTestPool(t, opts)

	if err := p.Start("net"); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForRunning(t, p, "net")
	if err := p.Stop("net"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"idle->starting", "starting->running", "running->stopping", "stopping->idle"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), transitions)
	}
	for i, tr := range want {
		if transitions[i] != tr {
			t.Errorf("transition %d: expected %s, got %s", i, tr, transitions[i])
		}
	}
}

func TestPoolCrashedProbeReportsError(t *testing.T) {
	opts := &PoolOptions{
		CommandProvider: func(id string) (string, error) {
			return `sh -c "exit 7"`, nil
		},
	}
	p := newTestPool(t, opts)

	if err := p.Start("flaky"); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.GetStatus("flaky").State == StateError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	info := p.GetStatus("flaky")
	if info.State != StateError {
		t.Fatalf("expected error state, got %s", info.State)
	}
	if info.LastError == nil {
		t.Error("expected last error to be set")
	}
}

func TestPoolStopAll(t *testing.T) {
	p := newTestPool(t, nil)

	for _, id := range []string{"x", "y", "z"} {
		if err := p.Start(id); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
		waitForRunning(t, p, id)
	}

	p.StopAll()

	for _, id := range []string{"x", "y", "z"} {
		if p.IsRunning(id) {
			t.Errorf("probe %s still running after StopAll", id)
		}
	}
}
