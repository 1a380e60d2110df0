package systems

import (
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/meditation/components"
)

// WanderSystem slides wandering attractors left and right along a smooth
// noise curve. Vertical position is left alone.
type WanderSystem struct {
	filter ecs.Filter2[components.Position, components.Wanderer]
	noise  opensimplex.Noise
	bounds Bounds
}

// NewWanderSystem creates a wander system with its own noise seed.
func NewWanderSystem(w *ecs.World, bounds Bounds, seed int64) *WanderSystem {
	return &WanderSystem{
		filter: *ecs.NewFilter2[components.Position, components.Wanderer](w),
		noise:  opensimplex.New(seed),
		bounds: bounds,
	}
}

// Update advances every wanderer by dt seconds.
func (s *WanderSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, wd := query.Get()

		wd.Time += float64(dt) * wd.Speed
		n := float32(s.noise.Eval2(wd.Time, wd.Seed)) // roughly [-1, 1]

		half := s.bounds.Width/2 - wd.Margin
		if half < 0 {
			half = 0
		}
		pos.X = clampFloat(s.bounds.Width/2+n*half, wd.Margin, s.bounds.Width-wd.Margin)
	}
}
