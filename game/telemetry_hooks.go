package game

import (
	"log/slog"

	"github.com/pthm-cable/meditation/field"
	"github.com/pthm-cable/meditation/systems"
	"github.com/pthm-cable/meditation/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleField(), g.sampleSpeeds())
	perfStats := g.perfCollector.Stats()

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write field stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// sampleField reads the solver state into reused buffers.
func (g *Game) sampleField() telemetry.FieldSample {
	f := g.fieldSys.Field()
	g.valuesBuf = f.Values(g.valuesBuf)
	g.residualBuf = f.Residual(g.residualBuf)
	return telemetry.FieldSample{
		Sweeps:         f.Sweeps(),
		LastCorrection: f.LastCorrection(),
		Values:         g.valuesBuf,
		Residual:       g.residualBuf,
		Sources:        f.Sources(),
	}
}

// sampleSpeeds collects drifter speeds for percentile calculation.
func (g *Game) sampleSpeeds() []float64 {
	g.speedsBuf = g.speedsBuf[:0]
	query := g.speedFilter.Query()
	for query.Next() {
		vel, _ := query.Get()
		g.speedsBuf = append(g.speedsBuf, float64(vel.Speed()))
	}
	return g.speedsBuf
}

// Snapshot captures the field and every body at the current tick.
func (g *Game) Snapshot() *telemetry.Snapshot {
	f := g.fieldSys.Field()
	s := &telemetry.Snapshot{
		Version:        telemetry.SnapshotVersion,
		RunID:          g.outputManager.RunID(),
		RNGSeed:        g.seed,
		Tick:           g.tick,
		GridWidth:      f.Width(),
		GridHeight:     f.Height(),
		CellSize:       g.fieldSys.Mapping().CellSize(),
		Overcorrection: f.OvercorrectionFactor(),
		Sweeps:         f.Sweeps(),
		Values:         f.Values(nil),
	}

	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			if f.At(systems.GravityCoords{X: x, Y: y}).Kind == field.Source {
				s.Sources = append(s.Sources, y*f.Width()+x)
			}
		}
	}

	dq := g.drifterFilter.Query()
	for dq.Next() {
		pos, vel, _ := dq.Get()
		s.Drifters = append(s.Drifters, telemetry.DrifterState{X: pos.X, Y: pos.Y, VelX: vel.X, VelY: vel.Y})
	}

	aq := g.attractorFilter.Query()
	for aq.Next() {
		pos, a := aq.Get()
		s.Attractors = append(s.Attractors, telemetry.AttractorState{
			X:        pos.X,
			Y:        pos.Y,
			Strength: a.Strength,
			Wanders:  g.wandererMap.Has(aq.Entity()),
		})
	}

	return s
}
