package logging

import (
	"log/slog"
	"testing"
)

func TestRingBufferWraparound(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}
	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Oldest two were overwritten; c, d, e remain in order.
	want := []string{"c", "d", "e"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(4)
	if got := rb.ReadAll(); got != nil {
		t.Errorf("expected nil for empty buffer, got %v", got)
	}
	if rb.Count() != 0 {
		t.Errorf("expected count 0, got %d", rb.Count())
	}
}

func TestLevelFor(t *testing.T) {
	if levelFor("debug", slog.LevelInfo) != slog.LevelDebug {
		t.Error("debug not parsed")
	}
	if levelFor("warning", slog.LevelInfo) != slog.LevelWarn {
		t.Error("warning alias not parsed")
	}
	if levelFor("bogus", slog.LevelError) != slog.LevelError {
		t.Error("unknown level should return fallback")
	}
}

func TestModuleLoggerWritesToBuffer(t *testing.T) {
	Initialize(Config{Level: "debug", Format: "text"})

	var captured []LogEntry
	SetEntryFunc(func(e LogEntry) { captured = append(captured, e) })
	defer SetEntryFunc(nil)

	GetLogger("buffertest").Info("hello", "pid", 42)

	found := false
	for _, e := range GetBuffer().ReadAll() {
		if e.Module == "buffertest" && e.Message == "hello" {
			found = true
			if e.Attributes["pid"] != int64(42) {
				t.Errorf("expected pid attribute 42, got %v", e.Attributes["pid"])
			}
		}
	}
	if !found {
		t.Error("log entry did not reach the ring buffer")
	}
	if len(captured) == 0 {
		t.Error("entry callback was not invoked")
	}
}

func TestModuleLevelOverride(t *testing.T) {
	Initialize(Config{
		Level:   "error",
		Format:  "text",
		Modules: map[string]string{"chatty": "debug"},
	})

	chatty := GetLogger("chatty")
	quiet := GetLogger("quiet")

	before := GetBuffer().Count()
	chatty.Debug("visible")
	quiet.Debug("suppressed")

	entries := GetBuffer().ReadAll()[before:]
	for _, e := range entries {
		if e.Module == "quiet" {
			t.Error("quiet module should not log at debug")
		}
	}
	seen := false
	for _, e := range entries {
		if e.Module == "chatty" && e.Message == "visible" {
			seen = true
		}
	}
	if !seen {
		t.Error("chatty module debug log missing")
	}
}
