// Package entropy reads random words from the node's entropy devices and
// verifies the source is live rather than stubbed.
package entropy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	hwrngDevice   = "/dev/hwrng"
	urandomDevice = "/dev/urandom"
	rngCurrent    = "/sys/devices/virtual/misc/hw_random/rng_current"
)

// ErrConstantBits means the low bit never varied over a whole sample run,
// which points at a stubbed or dead entropy source.
var ErrConstantBits = errors.New("entropy: low bit constant across all samples")

// Source draws random words from a device.
type Source struct {
	r      io.Reader
	device string
	closer io.Closer
}

// Open opens the best available entropy device: the hardware RNG when
// present, /dev/urandom otherwise.
func Open() (*Source, error) {
	for _, dev := range []string{hwrngDevice, urandomDevice} {
		f, err := os.Open(dev)
		if err != nil {
			continue
		}
		return &Source{r: f, device: dev, closer: f}, nil
	}
	return nil, fmt.Errorf("entropy: no readable device (tried %s, %s)", hwrngDevice, urandomDevice)
}

// OpenDevice opens a specific device path. An empty path falls back to the
// Open default order.
func OpenDevice(path string) (*Source, error) {
	if path == "" {
		return Open()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entropy: open %s: %w", path, err)
	}
	return &Source{r: f, device: path, closer: f}, nil
}

// NewSource wraps an arbitrary reader, for tests and injected sources.
func NewSource(r io.Reader, device string) *Source {
	return &Source{r: r, device: device}
}

// Device returns the path of the underlying device.
func (s *Source) Device() string {
	return s.device
}

// Uint64 draws one random word.
func (s *Source) Uint64() (uint64, error) {
	var n uint64
	if err := binary.Read(s.r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("entropy: read %s: %w", s.device, err)
	}
	return n, nil
}

// NextBit draws a word and masks its low bit.
func (s *Source) NextBit() (bool, error) {
	n, err := s.Uint64()
	if err != nil {
		return false, err
	}
	return n&1 == 1, nil
}

// CheckBitVariation draws n bits and requires both outcomes to occur. A
// live source makes a constant run of any real length vanishingly unlikely;
// a stubbed source fails immediately.
func (s *Source) CheckBitVariation(n int) error {
	if n < 2 {
		return errors.New("entropy: need at least 2 samples")
	}
	var zeros, ones int
	for i := 0; i < n; i++ {
		bit, err := s.NextBit()
		if err != nil {
			return err
		}
		if bit {
			ones++
		} else {
			zeros++
		}
		// Both seen, no need to drain the device further.
		if zeros > 0 && ones > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w (%d samples, %d ones)", ErrConstantBits, n, ones)
}

// Close releases the underlying device, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// HardwareAvailable reports whether the kernel has a live hardware RNG
// driver selected.
func HardwareAvailable() bool {
	val, err := os.ReadFile(rngCurrent)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(val)) != "none"
}
