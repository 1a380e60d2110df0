package telemetry

// TickCounts are the per-tick event counts fed into a Collector.
type TickCounts struct {
	Applied  int // Field updates written
	Dropped  int // Field updates that landed off the grid
	Emitted  int // Field updates produced by the scenario script
	Recycled int // Drifters wrapped from floor to top
}

// Collector accumulates events within tick windows and produces FieldStats.
type Collector struct {
	windowTicks uint64
	dt          float32

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	applied  int
	dropped  int
	emitted  int
	recycled int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window spans
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: uint64(windowTicks),
		dt:          dt,
	}
}

// Record adds one tick's counts to the current window.
func (c *Collector) Record(t TickCounts) {
	c.applied += t.Applied
	c.dropped += t.Dropped
	c.emitted += t.Emitted
	c.recycled += t.Recycled
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a FieldStats and resets counters for the next window.
// speeds are the drifter speeds at window end.
func (c *Collector) Flush(currentTick uint64, sample FieldSample, speeds []float64) FieldStats {
	stats := FieldStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		UpdatesApplied: c.applied,
		UpdatesDropped: c.dropped,
		ScriptEmitted:  c.emitted,
		Recycled:       c.recycled,

		Drifters: len(speeds),
	}
	stats.apply(sample)
	stats.SpeedMean, stats.SpeedP10, stats.SpeedP50, stats.SpeedP90 = ComputeDistribution(speeds)

	// Reset for next window
	c.windowStartTick = currentTick
	c.applied = 0
	c.dropped = 0
	c.emitted = 0
	c.recycled = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() uint64 {
	return c.windowTicks
}
