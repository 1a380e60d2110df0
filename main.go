package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/game"
)

func main() {
	os.Exit(realMain())
}

// realMain runs the simulation and returns the exit code. Deferred cleanup
// (final snapshot, CSV flush, watcher) runs before main exits.
func realMain() int {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	scriptPath := flag.String("script", "", "Scenario script (empty = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for a final state snapshot")
	watch := flag.Bool("watch", false, "Reload tunable config values when -config changes")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		return 2
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	opts := game.Options{
		Seed:        *seed,
		OutputDir:   *outputDir,
		LogStats:    *logStats,
		StatsWindow: *statsWindow,
		ScriptPath:  *scriptPath,
		SnapshotDir: *snapshotDir,
	}

	var watcher *config.Watcher
	if *watch {
		if *configPath == "" {
			slog.Warn("-watch needs -config, ignoring")
		} else {
			w, err := config.NewWatcher(*configPath)
			if err != nil {
				slog.Error("failed to watch config", "error", err)
				return 1
			}
			defer w.Close()
			watcher = w
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulate(ctx, cfg, opts, watcher, *maxTicks); err != nil {
		slog.Error("simulation stopped", "error", err)
		return 1
	}
	return 0
}

// simulate builds a game, runs it and always closes it, so the final
// snapshot and CSV flush happen on the error path too.
func simulate(ctx context.Context, cfg *config.Config, opts game.Options, watcher *config.Watcher, maxTicks uint64) (err error) {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return fmt.Errorf("starting simulation: %w", err)
	}
	defer func() {
		if cerr := g.Close(); cerr != nil {
			slog.Error("failed to close output", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	slog.Info("starting simulation",
		"seed", g.Seed(),
		"max_ticks", maxTicks,
		"watch", watcher != nil,
	)

	if err := run(ctx, g, watcher, maxTicks); err != nil {
		return fmt.Errorf("tick %d: %w", g.Tick(), err)
	}
	slog.Info("simulation finished", "tick", g.Tick())
	return nil
}

// run steps g until maxTicks, ctx is cancelled or a step fails. Reloaded
// configs are applied between ticks.
func run(ctx context.Context, g *game.Game, watcher *config.Watcher, maxTicks uint64) error {
	var configs <-chan *config.Config
	var errs <-chan error
	if watcher != nil {
		configs = watcher.Configs
		errs = watcher.Errors
	}

	for maxTicks == 0 || g.Tick() < maxTicks {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", g.Tick())
			return nil
		case cfg, ok := <-configs:
			if ok {
				g.ApplyConfig(cfg)
			}
		case err, ok := <-errs:
			if ok {
				slog.Warn("config reload failed", "error", err)
			}
		default:
		}

		if err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}
