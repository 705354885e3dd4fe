package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/ykarpov/procnode/internal/probes"
)

// config represents the complete probes configuration file for TOML marshaling.
type config struct {
	Version int                         `toml:"version" json:"version"`
	Probes  map[string]probes.ProbeSpec `toml:"probes" json:"probes"`
}

// tomlStore implements Store using TOML file storage. The fsnotify reload
// path calls Load from its own goroutine while API handlers and the pool's
// command provider read concurrently, so every access goes through mu.
type tomlStore struct {
	configPath string

	mu     sync.RWMutex
	config *config
}

// NewTOML creates a new TOML-based store.
func NewTOML(configPath string) probes.Store {
	if configPath == "" {
		configPath = "probes.toml"
	}

	return &tomlStore{
		configPath: configPath,
		config: &config{
			Version: 1,
			Probes:  make(map[string]probes.ProbeSpec),
		},
	}
}

// Load loads the probes configuration from file. The file is parsed into a
// fresh config which replaces the live one in a single swap, so concurrent
// readers never observe a half-unmarshaled map. The lock spans the read so
// Load never races a Save writing the same file.
func (s *tomlStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		// File doesn't exist, keep the current config
		return nil
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read probes config: %w", err)
	}

	fresh := &config{}
	if unmarshalErr := toml.Unmarshal(data, fresh); unmarshalErr != nil {
		return fmt.Errorf("failed to parse probes config: %w", unmarshalErr)
	}

	if fresh.Probes == nil {
		fresh.Probes = make(map[string]probes.ProbeSpec)
	}
	if fresh.Version == 0 {
		fresh.Version = 1
	}

	s.config = fresh
	return nil
}

// Save saves the probes configuration to file.
func (s *tomlStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked writes the current config; callers must hold mu.
func (s *tomlStore) saveLocked() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to marshal probes config: %w", err)
	}

	if writeErr := os.WriteFile(s.configPath, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write probes config: %w", writeErr)
	}

	return nil
}

// Add adds a new probe to the configuration.
func (s *tomlStore) Add(spec probes.ProbeSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.config.Probes[spec.ID]; exists {
		return fmt.Errorf("%w: %s", probes.ErrExists, spec.ID)
	}
	s.config.Probes[spec.ID] = spec
	return s.saveLocked()
}

// Update updates an existing probe configuration.
func (s *tomlStore) Update(id string, spec probes.ProbeSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.config.Probes[id]; !exists {
		return fmt.Errorf("%w: %s", probes.ErrNotFound, id)
	}
	s.config.Probes[id] = spec
	return s.saveLocked()
}

// Remove removes a probe from the configuration.
func (s *tomlStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.config.Probes[id]; !exists {
		return fmt.Errorf("%w: %s", probes.ErrNotFound, id)
	}
	delete(s.config.Probes, id)
	return s.saveLocked()
}

// Get retrieves a probe by ID.
func (s *tomlStore) Get(id string) (probes.ProbeSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, exists := s.config.Probes[id]
	return spec, exists
}

// All returns a snapshot of all probes. Callers may iterate it freely while
// the store keeps changing underneath.
func (s *tomlStore) All() map[string]probes.ProbeSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]probes.ProbeSpec, len(s.config.Probes))
	for id, spec := range s.config.Probes {
		out[id] = spec
	}
	return out
}
