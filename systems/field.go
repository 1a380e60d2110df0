package systems

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/field"
)

// GravityField is the solver for the field drifters fall through.
type GravityField = field.Solver[components.Gravity]

// NewGravityField builds the gravity solver from config, running the
// configured initial smoothing.
func NewGravityField(cfg config.FieldConfig) (*GravityField, error) {
	f, err := field.New[components.Gravity](cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("creating gravity field: %w", err)
	}
	if !(cfg.Overcorrection > 0) {
		return nil, fmt.Errorf("creating gravity field: overcorrection must be positive, got %v", cfg.Overcorrection)
	}
	if cfg.DownwardAttraction {
		f.WithDownwardAttraction()
	}
	return f.WithOvercorrectionFactor(float32(cfg.Overcorrection)).
		WithInitialSmoothing(cfg.InitialSmoothing), nil
}

// FieldUpdate adds Delta to the source at Position. Sending the negated
// delta later removes the influence.
type FieldUpdate struct {
	Delta    float32
	Position components.Position
}

// UpdateQueue buffers field updates between producers (attractors, scripts)
// and the field system. Not safe for concurrent use.
type UpdateQueue struct {
	pending []FieldUpdate
}

// Push queues an update.
func (q *UpdateQueue) Push(u FieldUpdate) {
	q.pending = append(q.pending, u)
}

// Len returns the number of queued updates.
func (q *UpdateQueue) Len() int { return len(q.pending) }

// Drain calls fn for each queued update in order and empties the queue.
func (q *UpdateQueue) Drain(fn func(FieldUpdate)) {
	for _, u := range q.pending {
		fn(u)
	}
	q.pending = q.pending[:0]
}

// FieldSystem applies queued updates to the gravity field, relaxes it and
// answers gradient queries. Each tick must run ApplyUpdates, then Relax,
// before anything samples the field.
type FieldSystem struct {
	field   *GravityField
	mapping *WorldMapping
	queue   *UpdateQueue

	sweepsPerTick int

	// Per-tick counters, reset by ApplyUpdates
	applied int
	dropped int
}

// NewFieldSystem creates a field system.
func NewFieldSystem(f *GravityField, m *WorldMapping, q *UpdateQueue, sweepsPerTick int) *FieldSystem {
	return &FieldSystem{
		field:         f,
		mapping:       m,
		queue:         q,
		sweepsPerTick: sweepsPerTick,
	}
}

// ApplyUpdates drains the queue into the field. Updates that land off the
// grid are dropped and logged.
func (s *FieldSystem) ApplyUpdates() {
	s.applied, s.dropped = 0, 0
	s.queue.Drain(func(u FieldUpdate) {
		c := s.mapping.Locate(u.Position.X, u.Position.Y)
		if !s.field.Contains(c) {
			s.dropped++
			slog.Warn("field update off grid",
				"x", u.Position.X, "y", u.Position.Y,
				"col", c.X, "row", c.Y,
				"delta", u.Delta,
			)
			return
		}
		s.field.Set(c, u.Delta)
		s.applied++
	})
}

// Relax runs the per-tick sweeps unless the host has paused smoothing.
// Returns the correction of the last sweep, or 0 if none ran.
func (s *FieldSystem) Relax() float32 {
	if s.field.StopSmoothingOut {
		return 0
	}
	var correction float32
	for i := 0; i < s.sweepsPerTick; i++ {
		correction = s.field.SmoothOut()
	}
	return correction
}

// Sample returns the field gradient at a world position.
func (s *FieldSystem) Sample(pos components.Position) field.Vec2 {
	return s.field.GradientAt(s.mapping.Point(pos))
}

// SetSweepsPerTick changes how many sweeps Relax runs.
func (s *FieldSystem) SetSweepsPerTick(n int) {
	if n < 0 {
		n = 0
	}
	s.sweepsPerTick = n
}

// Field returns the underlying solver.
func (s *FieldSystem) Field() *GravityField { return s.field }

// Mapping returns the world to grid mapping.
func (s *FieldSystem) Mapping() *WorldMapping { return s.mapping }

// Applied returns how many updates the last ApplyUpdates wrote.
func (s *FieldSystem) Applied() int { return s.applied }

// Dropped returns how many updates the last ApplyUpdates discarded.
func (s *FieldSystem) Dropped() int { return s.dropped }
