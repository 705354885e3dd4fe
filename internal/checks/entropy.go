package checks

import (
	"context"

	"github.com/ykarpov/procnode/internal/entropy"
)

const defaultEntropyTrials = 64

// EntropyCheck verifies the entropy source is live: over a run of samples
// the low bit must show both outcomes, not a constant.
type EntropyCheck struct {
	open   func() (*entropy.Source, error)
	trials int
}

// NewEntropyCheck builds the check for a device path ("" = default order).
func NewEntropyCheck(device string, trials int) *EntropyCheck {
	if trials <= 0 {
		trials = defaultEntropyTrials
	}
	return &EntropyCheck{
		open:   func() (*entropy.Source, error) { return entropy.OpenDevice(device) },
		trials: trials,
	}
}

// NewEntropyCheckWithSource builds the check around an injected opener,
// used by tests.
func NewEntropyCheckWithSource(open func() (*entropy.Source, error), trials int) *EntropyCheck {
	if trials <= 0 {
		trials = defaultEntropyTrials
	}
	return &EntropyCheck{open: open, trials: trials}
}

// Name implements Check.
func (c *EntropyCheck) Name() string { return "entropy" }

// Run implements Check. The device is opened fresh per run so a replugged
// or newly selected RNG is picked up.
func (c *EntropyCheck) Run(_ context.Context) error {
	src, err := c.open()
	if err != nil {
		return err
	}
	defer src.Close()
	return src.CheckBitVariation(c.trials)
}
