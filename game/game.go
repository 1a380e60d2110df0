// Package game drives the headless falling-drifter simulation: an ark world
// of drifters and attractors coupled through the gravity field.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/scenario"
	"github.com/pthm-cable/meditation/systems"
	"github.com/pthm-cable/meditation/telemetry"
)

// Options configures game initialization.
type Options struct {
	Seed        int64  // RNG seed (0 = config seed, then time-based)
	OutputDir   string // Directory for CSV logs and config snapshot (empty = disabled)
	LogStats    bool   // Log stats windows via slog
	StatsWindow int    // Ticks per stats window (0 = use config)
	ScriptPath  string // Scenario script (empty = use config)
	SnapshotDir string // Directory for a final state snapshot (empty = disabled)
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64
	cfg   *config.Config

	// Entity mappers
	drifterMapper   *ecs.Map4[components.Position, components.Velocity, components.Drifter, components.Body]
	attractorMapper *ecs.Map2[components.Position, components.Attractor]
	wandererMapper  *ecs.Map3[components.Position, components.Attractor, components.Wanderer]
	speedFilter     *ecs.Filter2[components.Velocity, components.Drifter]
	drifterFilter   *ecs.Filter3[components.Position, components.Velocity, components.Drifter]
	attractorFilter *ecs.Filter2[components.Position, components.Attractor]
	wandererMap     *ecs.Map[components.Wanderer]

	// Systems
	queue        *systems.UpdateQueue
	fieldSys     *systems.FieldSystem
	attractorSys *systems.AttractorSystem
	wanderSys    *systems.WanderSystem
	physicsSys   *systems.PhysicsSystem
	script       *scenario.Runtime

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	snapshotDir   string

	// Scratch buffers for field sampling
	valuesBuf   []float32
	residualBuf []float32
	speedsBuf   []float64

	tick uint64
}

// NewGameWithOptions creates a new game from cfg.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Scenario.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gravity, err := systems.NewGravityField(cfg.Field)
	if err != nil {
		return nil, err
	}

	g := &Game{
		world:       ecs.NewWorld(),
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
		cfg:         cfg,
		queue:       &systems.UpdateQueue{},
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
	}
	w := g.world

	g.drifterMapper = ecs.NewMap4[components.Position, components.Velocity, components.Drifter, components.Body](w)
	g.attractorMapper = ecs.NewMap2[components.Position, components.Attractor](w)
	g.wandererMapper = ecs.NewMap3[components.Position, components.Attractor, components.Wanderer](w)
	g.speedFilter = ecs.NewFilter2[components.Velocity, components.Drifter](w)
	g.drifterFilter = ecs.NewFilter3[components.Position, components.Velocity, components.Drifter](w)
	g.attractorFilter = ecs.NewFilter2[components.Position, components.Attractor](w)
	g.wandererMap = ecs.NewMap[components.Wanderer](w)

	mapping := systems.NewWorldMapping(cfg.Field.Width, cfg.Field.Height, cfg.Derived.CellSize32)
	g.fieldSys = systems.NewFieldSystem(gravity, mapping, g.queue, cfg.Field.SweepsPerTick)
	g.attractorSys = systems.NewAttractorSystem(w, mapping, g.queue)
	g.wanderSys = systems.NewWanderSystem(w, mapping.Bounds(), seed)
	g.physicsSys = systems.NewPhysicsSystem(w, g.fieldSys, cfg.Physics)

	scriptPath := opts.ScriptPath
	if scriptPath == "" {
		scriptPath = cfg.Scenario.Script
	}
	if scriptPath != "" {
		rt, err := scenario.Load(scriptPath)
		if err != nil {
			return nil, err
		}
		g.script = rt
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT32)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}
	g.outputManager = om

	g.spawnScenario()

	slog.Info("game initialized",
		"seed", seed,
		"grid_w", cfg.Field.Width,
		"grid_h", cfg.Field.Height,
		"drifters", cfg.Scenario.Drifters,
		"attractors", len(cfg.Scenario.Attractors),
		"wanderers", cfg.Scenario.Wanderers,
		"stats_window", g.collector.WindowTicks(),
		"script", scriptPath,
		"run_id", om.RunID(),
	)

	return g, nil
}

// Step runs one simulation tick.
func (g *Game) Step() error {
	dt := g.cfg.Derived.DT32

	g.perfCollector.StartTick()

	var emitted int
	if g.script != nil {
		g.perfCollector.StartPhase(telemetry.PhaseScript)
		if err := g.script.Run(g.tick, g); err != nil {
			g.perfCollector.EndTick()
			return err
		}
		emitted = g.script.Emitted()
	}

	g.perfCollector.StartPhase(telemetry.PhaseWander)
	g.wanderSys.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseAttractors)
	g.attractorSys.Update()

	g.perfCollector.StartPhase(telemetry.PhaseUpdates)
	g.fieldSys.ApplyUpdates()

	g.perfCollector.StartPhase(telemetry.PhaseRelax)
	g.fieldSys.Relax()

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.physicsSys.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.Record(telemetry.TickCounts{
		Applied:  g.fieldSys.Applied(),
		Dropped:  g.fieldSys.Dropped(),
		Emitted:  emitted,
		Recycled: g.physicsSys.Recycled(),
	})
	g.tick++
	g.flushTelemetry()

	g.perfCollector.EndTick()
	return nil
}

// ApplyConfig applies the tunable subset of cfg to a running game: physics
// parameters, sweeps per tick and the overcorrection factor. Grid and
// scenario changes need a restart and are ignored. Must be called from the
// goroutine that calls Step. cfg itself is not modified.
func (g *Game) ApplyConfig(next *config.Config) {
	c := *next
	cfg := &c
	if cfg.Field.Width != g.cfg.Field.Width || cfg.Field.Height != g.cfg.Field.Height ||
		cfg.Field.CellSize != g.cfg.Field.CellSize {
		slog.Warn("grid change ignored until restart",
			"grid_w", cfg.Field.Width,
			"grid_h", cfg.Field.Height,
			"cell_size", cfg.Field.CellSize,
		)
		cfg.Field.Width = g.cfg.Field.Width
		cfg.Field.Height = g.cfg.Field.Height
		cfg.Field.CellSize = g.cfg.Field.CellSize
		cfg.Derived = g.cfg.Derived
	}

	g.physicsSys.Configure(cfg.Physics)
	g.fieldSys.SetSweepsPerTick(cfg.Field.SweepsPerTick)
	g.fieldSys.Field().WithOvercorrectionFactor(float32(cfg.Field.Overcorrection))
	g.cfg = cfg

	slog.Info("config applied",
		"tick", g.tick,
		"gain", cfg.Physics.Gain,
		"damping", cfg.Physics.Damping,
		"sweeps_per_tick", cfg.Field.SweepsPerTick,
		"overcorrection", cfg.Field.Overcorrection,
	)
}

// Emit queues a field update at a world position.
func (g *Game) Emit(x, y, delta float32) {
	g.queue.Push(systems.FieldUpdate{Delta: delta, Position: components.Position{X: x, Y: y}})
}

// WorldSize returns the world width and height.
func (g *Game) WorldSize() (float32, float32) {
	b := g.fieldSys.Mapping().Bounds()
	return b.Width, b.Height
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() uint64 { return g.tick }

// Seed returns the RNG seed in use.
func (g *Game) Seed() int64 { return g.seed }

// Field returns the gravity field.
func (g *Game) Field() *systems.GravityField { return g.fieldSys.Field() }

// Drifters returns the number of drifters integrated last tick.
func (g *Game) Drifters() int { return g.physicsSys.Count() }

// Close saves the final snapshot if enabled, then flushes and closes
// output files.
func (g *Game) Close() error {
	if g.snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(g.Snapshot(), g.snapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "tick", g.tick)
		}
	}
	return g.outputManager.Close()
}
