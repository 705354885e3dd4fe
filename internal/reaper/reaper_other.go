//go:build !linux

package reaper

import (
	"context"
	"errors"

	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
)

// Reaper is unsupported outside Linux.
type Reaper struct{}

// Option configures a Reaper.
type Option func(*Reaper)

// WithSubreaper is accepted but has no effect here.
func WithSubreaper() Option { return func(*Reaper) {} }

// WithOwnedFunc is accepted but has no effect here.
func WithOwnedFunc(OwnedFunc) Option { return func(*Reaper) {} }

// New creates a stub reaper.
func New(logging.Logger, *events.Bus, ...Option) *Reaper { return &Reaper{} }

// Start always fails on non-Linux platforms.
func (r *Reaper) Start(context.Context) error {
	return errors.New("reaper: requires linux")
}

// Stop is a no-op.
func (r *Reaper) Stop() {}
