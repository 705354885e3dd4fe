package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/ykarpov/procnode/cmd"
	"github.com/ykarpov/procnode/internal/api"
	"github.com/ykarpov/procnode/internal/checks"
	"github.com/ykarpov/procnode/internal/childpoll"
	"github.com/ykarpov/procnode/internal/config"
	"github.com/ykarpov/procnode/internal/events"
	"github.com/ykarpov/procnode/internal/logging"
	"github.com/ykarpov/procnode/internal/metrics"
	"github.com/ykarpov/procnode/internal/probes"
	"github.com/ykarpov/procnode/internal/probes/store"
	"github.com/ykarpov/procnode/internal/reaper"
	"github.com/ykarpov/procnode/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8086" toml:"server.port" env:"SERVER_PORT"`

	// Child polling settings
	PollInterval string `help:"Child poll interval" default:"5s" toml:"childpoll.interval" env:"CHILDPOLL_INTERVAL"`

	// Reaper settings
	ReaperEnabled   bool `help:"Reap orphaned children" default:"false" toml:"reaper.enabled" env:"REAPER_ENABLED"`
	ReaperSubreaper bool `help:"Become a child subreaper when not pid 1" default:"true" toml:"reaper.subreaper" env:"REAPER_SUBREAPER"`

	// Probe settings
	ProbesConfigFile  string `help:"Probe definitions file" default:"probes.toml" toml:"probes.config_file" env:"PROBES_CONFIG_FILE"`
	ProbesWatchConfig bool   `help:"Reload probe definitions on file change" default:"true" toml:"probes.watch_config" env:"PROBES_WATCH_CONFIG"`

	// Entropy settings
	EntropyDevice string `help:"Entropy device path (default: hardware RNG, then urandom)" default:"" toml:"entropy.device" env:"ENTROPY_DEVICE"`
	EntropyTrials int    `help:"Random bits sampled per entropy check" default:"64" toml:"entropy.trials" env:"ENTROPY_TRIALS"`

	// Check settings
	ChecksOnStart bool `help:"Run the self-check suite at startup" default:"true" toml:"checks.run_on_start" env:"CHECKS_ON_START"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingChildpoll string `help:"Child polling logging level" default:"info" toml:"logging.childpoll" env:"LOGGING_CHILDPOLL"`
	LoggingReaper    string `help:"Reaper logging level" default:"info" toml:"logging.reaper" env:"LOGGING_REAPER"`
	LoggingProbes    string `help:"Probes logging level" default:"info" toml:"logging.probes" env:"LOGGING_PROBES"`
	LoggingProcess   string `help:"Process supervision logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingChecks    string `help:"Checks logging level" default:"info" toml:"logging.checks" env:"LOGGING_CHECKS"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"childpoll": opts.LoggingChildpoll,
				"reaper":    opts.LoggingReaper,
				"probes":    opts.LoggingProbes,
				"process":   opts.LoggingProcess,
				"checks":    opts.LoggingChecks,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
			},
		})
		logger := logging.GetLogger("main")

		// Event bus for in-process event handling
		eventBus := events.New()

		// Feed buffered log entries onto the bus for the SSE log stream
		logging.SetEntryFunc(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Probe store and supervision service
		probeStore := store.NewTOML(opts.ProbesConfigFile)
		if loadErr := probeStore.Load(); loadErr != nil {
			logger.Error("Failed to load probe definitions", "error", loadErr, "path", opts.ProbesConfigFile)
			os.Exit(1)
		}
		probeService := probes.NewService(probeStore, eventBus, logging.GetLogger("probes"))

		// Reload probe definitions when the file changes on disk
		var probeWatcher *config.Watcher[struct{}]
		if opts.ProbesWatchConfig {
			probeWatcher = config.NewConfigWatcher(
				opts.ProbesConfigFile,
				func(string) (struct{}, error) {
					return struct{}{}, probeStore.Load()
				},
				logging.GetLogger("probes"),
			)
			probeWatcher.OnReload(func(struct{}) {
				probeService.StartEnabled()
			})
		}

		// Self-check suite
		checkRunner := checks.NewRunner(logging.GetLogger("checks"), eventBus)
		checkRunner.Add(
			checks.NewChildWaitCheck(),
			checks.NewEntropyCheck(opts.EntropyDevice, opts.EntropyTrials),
		)

		// Periodic child polling
		pollInterval, err := time.ParseDuration(opts.PollInterval)
		if err != nil {
			pollInterval = 5 * time.Second
		}
		monitor := childpoll.NewMonitor(pollInterval, logging.GetLogger("childpoll"), eventBus)

		// Orphan reaper leaves probe children to the pool's own waits
		var orphanReaper *reaper.Reaper
		if opts.ReaperEnabled {
			reaperOpts := []reaper.Option{
				reaper.WithOwnedFunc(probeService.Owns),
			}
			if opts.ReaperSubreaper {
				reaperOpts = append(reaperOpts, reaper.WithSubreaper())
			}
			orphanReaper = reaper.New(logging.GetLogger("reaper"), eventBus, reaperOpts...)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			EntropyDevice:     opts.EntropyDevice,
			Checks:            checkRunner,
			Probes:            probeService,
			Bus:               eventBus,
			PrometheusHandler: metrics.Handler(),
		})

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if opts.ChecksOnStart {
				results := checkRunner.Run(ctx)
				if checks.AnyFailed(results) {
					logger.Warn("Startup self-checks reported failures")
				}
			}

			if orphanReaper != nil {
				if startErr := orphanReaper.Start(ctx); startErr != nil {
					logger.Error("Failed to start reaper", "error", startErr)
					os.Exit(1)
				}
			}

			monitor.Start(ctx)
			probeService.StartEnabled()

			if probeWatcher != nil {
				if startErr := probeWatcher.Start(); startErr != nil {
					logger.Warn("Failed to watch probe definitions", "error", startErr)
				}
			}

			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if probeWatcher != nil {
				if stopErr := probeWatcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping probe watcher", "error", stopErr)
				}
			}

			probeService.StopAll()
			monitor.Stop()
			if orphanReaper != nil {
				orphanReaper.Stop()
			}
			cancel()
		})
	})

	cli.Root().AddCommand(cmd.CreatePollCmd())
	cli.Root().AddCommand(cmd.CreateCheckCmd())

	cli.Run()
}
