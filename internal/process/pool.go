package process

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ykarpov/procnode/internal/logging"
)

// Pool manages multiple named probes with lifecycle control.
type Pool interface {
	// Start starts a probe by ID. Returns an error if already running.
	Start(id string) error

	// Stop gracefully stops a probe by ID.
	Stop(id string) error

	// Restart stops and restarts a probe.
	Restart(id string) error

	// GetStatus returns probe info. Returns idle state if not found.
	GetStatus(id string) *Info

	// IsRunning checks whether a probe is currently running.
	IsRunning(id string) bool

	// RunningPids returns the pids of all running probe subprocesses.
	RunningPids() []int

	// StopAll gracefully stops all running probes.
	StopAll()
}

// managedProcess tracks one probe within the pool.
type managedProcess struct {
	proc         *Process
	id           string
	state        State
	startedAt    time.Time
	restartCount int
	lastError    error
	cancel       context.CancelFunc
	done         chan struct{}
}

type pool struct {
	opts      PoolOptions
	processes map[string]*managedProcess
	restarts  map[string]int
	mu        sync.RWMutex
	logger    logging.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPool creates a probe pool.
func NewPool(opts *PoolOptions) Pool {
	if opts == nil || opts.CommandProvider == nil {
		panic("PoolOptions with CommandProvider is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("process")
	}

	return &pool{
		opts:      *opts,
		processes: make(map[string]*managedProcess),
		restarts:  make(map[string]int),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *pool) Start(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if mp, exists := p.processes[id]; exists {
		if mp.state == StateRunning || mp.state == StateStarting {
			return fmt.Errorf("probe %s already running", id)
		}
	}

	command, err := p.opts.CommandProvider(id)
	if err != nil {
		return fmt.Errorf("failed to generate command: %w", err)
	}

	return p.startProcess(id, command)
}

// startProcess starts a probe with the given command (lock held).
func (p *pool) startProcess(id, command string) error {
	ctx, cancel := context.WithCancel(p.ctx)

	mp := &managedProcess{
		id:           id,
		state:        StateStarting,
		startedAt:    time.Now(),
		restartCount: p.restarts[id],
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	mp.proc = NewProcess(id, command, p.logger)

	if p.opts.ConfigureProcess != nil {
		p.opts.ConfigureProcess(id, mp.proc)
	}

	p.processes[id] = mp
	p.notifyStateChange(id, StateIdle, StateStarting, nil)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(mp.done)
		p.runProcess(ctx, mp)
	}()
	return nil
}

// runProcess runs the probe and handles its state transitions.
func (p *pool) runProcess(ctx context.Context, mp *managedProcess) {
	p.mu.Lock()
	oldState := mp.state
	mp.state = StateRunning
	p.mu.Unlock()
	p.notifyStateChange(mp.id, oldState, StateRunning, nil)

	exitCode := mp.proc.Run()

	p.mu.Lock()
	oldState = mp.state
	switch {
	case ctx.Err() != nil:
		mp.state = StateIdle
	case exitCode != 0:
		mp.state = StateError
		mp.lastError = fmt.Errorf("probe exited with code %d", exitCode)
		p.logger.Error("Probe crashed", "id", mp.id, "exit_code", exitCode)
	default:
		mp.state = StateIdle
	}
	newState := mp.state
	lastErr := mp.lastError
	p.mu.Unlock()

	p.notifyStateChange(mp.id, oldState, newState, lastErr)
}

func (p *pool) Stop(id string) error {
	p.mu.Lock()
	mp, exists := p.processes[id]
	if !exists || (mp.state != StateRunning && mp.state != StateStarting) {
		p.mu.Unlock()
		return nil
	}
	oldState := mp.state
	mp.state = StateStopping
	p.mu.Unlock()

	p.notifyStateChange(id, oldState, StateStopping, nil)
	p.logger.Info("Stopping probe", "id", id)

	mp.cancel()
	mp.proc.Shutdown()

	select {
	case <-mp.done:
	case <-time.After(10 * time.Second):
		p.logger.Warn("Timeout waiting for probe to stop", "id", id)
	}

	p.mu.Lock()
	delete(p.processes, id)
	p.mu.Unlock()
	return nil
}

func (p *pool) Restart(id string) error {
	p.logger.Info("Restarting probe", "id", id)
	if err := p.Stop(id); err != nil {
		return fmt.Errorf("failed to stop probe: %w", err)
	}
	p.mu.Lock()
	p.restarts[id]++
	p.mu.Unlock()
	return p.Start(id)
}

func (p *pool) GetStatus(id string) *Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mp, exists := p.processes[id]
	if !exists {
		return &Info{ID: id, State: StateIdle, RestartCount: p.restarts[id]}
	}
	return &Info{
		ID:           id,
		State:        mp.state,
		PID:          mp.proc.Pid(),
		StartedAt:    mp.startedAt,
		RestartCount: mp.restartCount,
		LastError:    mp.lastError,
	}
}

func (p *pool) IsRunning(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mp, exists := p.processes[id]
	return exists && mp.state == StateRunning
}

func (p *pool) RunningPids() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pids := make([]int, 0, len(p.processes))
	for _, mp := range p.processes {
		if pid := mp.proc.Pid(); pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

func (p *pool) StopAll() {
	p.logger.Info("Stopping all probes")
	p.cancel()

	p.mu.RLock()
	ids := make([]string, 0, len(p.processes))
	for id := range p.processes {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	for _, id := range ids {
		_ = p.Stop(id)
	}

	p.wg.Wait()
	p.logger.Info("All probes stopped")
}

func (p *pool) notifyStateChange(id string, oldState, newState State, err error) {
	if p.opts.OnStateChange != nil {
		p.opts.OnStateChange(id, oldState, newState, err)
	}
}
