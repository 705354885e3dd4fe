package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const bufferCapacity = 1000

// Logger is a duck-typed interface satisfied by *slog.Logger. Packages take
// this instead of the concrete type so tests can pass discard loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu          sync.RWMutex
	initialized bool
	cfg         Config
	loggers     = make(map[string]*slog.Logger)
	levelVars   = make(map[string]*slog.LevelVar)
	buffer      *RingBuffer
	entryFunc   EntryFunc
)

// Initialize sets up the logging system. Loggers handed out before
// Initialize are rebuilt so they pick up levels and the ring buffer.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	cfg = config
	initialized = true
	buffer = NewRingBuffer(bufferCapacity)

	global := levelFor(config.Level, slog.LevelInfo)

	for module, lv := range levelVars {
		level := global
		if s, ok := config.Modules[module]; ok {
			level = levelFor(s, global)
		}
		lv.Set(level)
		loggers[module] = slog.New(newHandler(config.Format, lv)).With("module", module)
	}

	root := &slog.LevelVar{}
	root.Set(global)
	slog.SetDefault(slog.New(newHandler(config.Format, root)))
}

// GetLogger returns the logger for a module, creating it on first use.
// Module levels can differ from the global level via Config.Modules.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if l, ok := loggers[module]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[module]; ok {
		return l
	}

	lv := &slog.LevelVar{}
	level := slog.LevelInfo
	format := "text"
	if initialized {
		level = levelFor(cfg.Level, slog.LevelInfo)
		if s, ok := cfg.Modules[module]; ok {
			level = levelFor(s, level)
		}
		format = cfg.Format
	}
	lv.Set(level)

	l := slog.New(newHandler(format, lv)).With("module", module)
	loggers[module] = l
	levelVars[module] = lv
	return l
}

// SetModuleLevel changes a module's level at runtime.
func SetModuleLevel(module, level string) {
	mu.Lock()
	defer mu.Unlock()
	if lv, ok := levelVars[module]; ok {
		lv.Set(levelFor(level, slog.LevelInfo))
	}
}

// GetBuffer returns the ring buffer holding recent log entries, or nil
// before Initialize.
func GetBuffer() *RingBuffer {
	mu.RLock()
	defer mu.RUnlock()
	return buffer
}

// SetEntryFunc registers a callback invoked for every buffered log entry.
// Used to publish log events on the bus without an import cycle.
func SetEntryFunc(fn EntryFunc) {
	mu.Lock()
	defer mu.Unlock()
	entryFunc = fn
}

// newHandler builds the handler chain for one level var: stdout (text or
// json), journald when reachable, and always the ring buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	handlers := []slog.Handler{}
	if stdoutUsable() {
		handlers = append(handlers, stdout)
	}
	if journalAvailable() {
		handlers = append(handlers, newJournalHandler(level))
	}
	handlers = append(handlers, newBufferHandler(level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return multiHandler(handlers)
}

// stdoutUsable reports whether stdout goes anywhere useful. /dev/null shows
// up as a character device and is excluded.
func stdoutUsable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 ||
		mode&os.ModeSocket != 0 || mode.IsRegular()
}

func levelFor(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func levelString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
