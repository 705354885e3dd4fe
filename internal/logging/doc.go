// Package logging provides structured logging with per-module log levels.
//
// Built on slog. Output is routed automatically: systemd journal when
// journald is reachable, stdout when connected to a terminal, pipe or file,
// both when both are available. Recent entries are additionally kept in a
// ring buffer so the HTTP API can serve log history.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{"reaper": "debug"},
//	})
//
// then fetch module loggers anywhere:
//
//	logger := logging.GetLogger("childpoll")
//	logger.Info("poll complete", "sentinel", s)
//
// When running under systemd, logs are tagged for journalctl:
//
//	journalctl -t procnode -f
//	journalctl -t procnode MODULE=reaper
package logging
