package entropy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// wordReader serves a fixed sequence of little-endian words.
func wordReader(words ...uint64) io.Reader {
	var buf bytes.Buffer
	for _, w := range words {
		_ = binary.Write(&buf, binary.LittleEndian, w)
	}
	return &buf
}

func TestNextBitMasksLowBit(t *testing.T) {
	s := NewSource(wordReader(0xfffffffffffffffe, 0x1), "test")

	bit, err := s.NextBit()
	if err != nil || bit {
		t.Errorf("expected low bit 0, got %v (err %v)", bit, err)
	}
	bit, err = s.NextBit()
	if err != nil || !bit {
		t.Errorf("expected low bit 1, got %v (err %v)", bit, err)
	}
}

func TestCheckBitVariationPasses(t *testing.T) {
	s := NewSource(wordReader(0, 1), "test")
	if err := s.CheckBitVariation(16); err != nil {
		t.Errorf("varying source should pass: %v", err)
	}
}

func TestCheckBitVariationConstantSource(t *testing.T) {
	words := make([]uint64, 32)
	for i := range words {
		words[i] = 0xffffffffffffffff
	}
	s := NewSource(wordReader(words...), "test")

	err := s.CheckBitVariation(32)
	if !errors.Is(err, ErrConstantBits) {
		t.Errorf("constant source should fail with ErrConstantBits, got %v", err)
	}
}

func TestCheckBitVariationReadError(t *testing.T) {
	s := NewSource(bytes.NewReader(nil), "test")
	err := s.CheckBitVariation(8)
	if err == nil || errors.Is(err, ErrConstantBits) {
		t.Errorf("exhausted reader should surface the read error, got %v", err)
	}
}

func TestCheckBitVariationTooFewSamples(t *testing.T) {
	s := NewSource(wordReader(0), "test")
	if err := s.CheckBitVariation(1); err == nil {
		t.Error("expected error for n < 2")
	}
}

func TestOpenDeviceFallback(t *testing.T) {
	// Default order must land on a readable device on any Linux box.
	s, err := OpenDevice("")
	if err != nil {
		t.Skipf("no entropy device available: %v", err)
	}
	defer s.Close()

	if err := s.CheckBitVariation(64); err != nil {
		t.Errorf("live device should show bit variation: %v", err)
	}
}
