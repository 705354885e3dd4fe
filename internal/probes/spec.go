// Package probes manages the configured probe subprocesses: persistent
// specs in a TOML store and runtime supervision through the process pool.
package probes

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a probe ID is not in the store.
var ErrNotFound = errors.New("probe not found")

// ErrExists is returned when adding a probe whose ID is already taken.
var ErrExists = errors.New("probe already exists")

// ProbeSpec is the persistent configuration for one probe.
type ProbeSpec struct {
	// ID is the unique identifier for this probe.
	ID string `toml:"id" json:"id"`

	// Name is a human-readable name. Defaults to the ID when empty.
	Name string `toml:"name" json:"name"`

	// Command is the full command line to run, parsed with shell-style
	// quoting but executed directly (no shell).
	Command string `toml:"command" json:"command"`

	// Enabled controls whether the probe starts automatically at boot.
	Enabled bool `toml:"enabled" json:"enabled"`

	// CreatedAt timestamp when the probe was first created.
	CreatedAt time.Time `toml:"created_at" json:"created_at"`

	// UpdatedAt timestamp when the probe was last modified.
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// Store persists probe specifications.
type Store interface {
	// Load reads the store from disk. A missing file is not an error.
	Load() error

	// Save writes the store to disk.
	Save() error

	// Add adds a new probe and persists the store.
	Add(spec ProbeSpec) error

	// Update replaces an existing probe and persists the store.
	Update(id string, spec ProbeSpec) error

	// Remove deletes a probe and persists the store.
	Remove(id string) error

	// Get retrieves a probe by ID.
	Get(id string) (ProbeSpec, bool)

	// All returns all probes keyed by ID.
	All() map[string]ProbeSpec
}
