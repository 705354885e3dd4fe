package probes

import (
	"fmt"
	"sort"
	"time"

	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
	"github.com/ykarpov/procnode/internal/metrics"
	"github.com/ykarpov/procnode/internal/process"
)

// Status combines a probe's stored spec with its runtime state.
type Status struct {
	ID           string    `json:"id" doc:"Probe identifier"`
	Name         string    `json:"name" doc:"Human-readable name"`
	Command      string    `json:"command" doc:"Command line"`
	Enabled      bool      `json:"enabled" doc:"Starts automatically at boot"`
	State        string    `json:"state" enum:"idle,starting,running,stopping,error" doc:"Runtime state"`
	PID          int       `json:"pid,omitempty" doc:"Subprocess pid when running"`
	StartedAt    time.Time `json:"started_at,omitempty" doc:"Last start time"`
	RestartCount int       `json:"restart_count" doc:"Restarts since boot"`
	LastError    string    `json:"last_error,omitempty" doc:"Last failure, if any"`
}

// Service supervises the configured probes: it wires the store to the
// process pool and publishes state changes on the event bus.
type Service struct {
	store  Store
	pool   process.Pool
	bus    *events.Bus
	logger logging.Logger
}

// NewService creates a probe supervision service.
func NewService(store Store, bus *events.Bus, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetLogger("probes")
	}

	s := &Service{
		store:  store,
		bus:    bus,
		logger: logger,
	}

	s.pool = process.NewPool(&process.PoolOptions{
		CommandProvider: s.commandFor,
		OnStateChange:   s.onStateChange,
		Logger:          logger,
	})
	return s
}

// commandFor resolves a probe ID to its stored command line.
func (s *Service) commandFor(id string) (string, error) {
	spec, ok := s.store.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if spec.Command == "" {
		return "", fmt.Errorf("probe %s has no command", id)
	}
	return spec.Command, nil
}

// onStateChange publishes pool state transitions and updates metrics.
func (s *Service) onStateChange(id string, oldState, newState process.State, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if s.bus != nil {
		s.bus.Publish(events.ProbeStateChangedEvent{
			Probe:    id,
			OldState: string(oldState),
			NewState: string(newState),
			Error:    errMsg,
		})
	}
	metrics.SetProbesRunning(s.runningCount())
}

func (s *Service) runningCount() int {
	return len(s.pool.RunningPids())
}

// StartEnabled starts every probe marked enabled in the store.
func (s *Service) StartEnabled() {
	for id, spec := range s.store.All() {
		if !spec.Enabled {
			continue
		}
		if err := s.pool.Start(id); err != nil {
			s.logger.Error("Failed to start probe", "id", id, "error", err)
		}
	}
}

// Start starts a probe by ID.
func (s *Service) Start(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.pool.Start(id)
}

// Stop stops a probe by ID.
func (s *Service) Stop(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.pool.Stop(id)
}

// Restart restarts a probe by ID.
func (s *Service) Restart(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	metrics.ObserveProbeRestart(id)
	return s.pool.Restart(id)
}

// Add stores a new probe spec.
func (s *Service) Add(spec ProbeSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("probe id is required")
	}
	now := time.Now()
	spec.CreatedAt = now
	spec.UpdatedAt = now
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	return s.store.Add(spec)
}

// Update replaces a probe spec. A running probe keeps its old command
// until it is restarted.
func (s *Service) Update(id string, spec ProbeSpec) error {
	existing, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	spec.ID = id
	spec.CreatedAt = existing.CreatedAt
	spec.UpdatedAt = time.Now()
	if spec.Name == "" {
		spec.Name = id
	}
	return s.store.Update(id, spec)
}

// Remove stops a probe if running and deletes its spec.
func (s *Service) Remove(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.pool.IsRunning(id) {
		if err := s.pool.Stop(id); err != nil {
			return fmt.Errorf("failed to stop probe before removal: %w", err)
		}
	}
	return s.store.Remove(id)
}

// Get returns one probe's status.
func (s *Service) Get(id string) (Status, error) {
	spec, ok := s.store.Get(id)
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.status(spec), nil
}

// Statuses returns the status of every configured probe, sorted by ID.
func (s *Service) Statuses() []Status {
	all := s.store.All()
	statuses := make([]Status, 0, len(all))
	for _, spec := range all {
		statuses = append(statuses, s.status(spec))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

func (s *Service) status(spec ProbeSpec) Status {
	info := s.pool.GetStatus(spec.ID)
	st := Status{
		ID:           spec.ID,
		Name:         spec.Name,
		Command:      spec.Command,
		Enabled:      spec.Enabled,
		State:        string(info.State),
		PID:          info.PID,
		StartedAt:    info.StartedAt,
		RestartCount: info.RestartCount,
	}
	if info.LastError != nil {
		st.LastError = info.LastError.Error()
	}
	return st
}

// RunningPids returns the pids of all running probe subprocesses. The
// reaper uses this to leave pool-owned children to os/exec.
func (s *Service) RunningPids() []int {
	return s.pool.RunningPids()
}

// Owns reports whether pid belongs to a running probe.
func (s *Service) Owns(pid int) bool {
	for _, p := range s.pool.RunningPids() {
		if p == pid {
			return true
		}
	}
	return false
}

// StopAll stops all running probes.
func (s *Service) StopAll() {
	s.pool.StopAll()
}
