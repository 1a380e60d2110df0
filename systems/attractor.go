package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meditation/components"
)

// AttractorSystem turns attractor entities into field updates. It sends the
// difference between what an attractor should contribute and what it last
// wrote, so moving or retuning an attractor never leaves a stale source.
type AttractorSystem struct {
	filter  ecs.Filter2[components.Position, components.Attractor]
	attrMap *ecs.Map[components.Attractor]
	mapping *WorldMapping
	queue   *UpdateQueue
}

// NewAttractorSystem creates an attractor system.
func NewAttractorSystem(w *ecs.World, m *WorldMapping, q *UpdateQueue) *AttractorSystem {
	return &AttractorSystem{
		filter:  *ecs.NewFilter2[components.Position, components.Attractor](w),
		attrMap: ecs.NewMap[components.Attractor](w),
		mapping: m,
		queue:   q,
	}
}

// Update queues updates for every attractor that is new, moved to another
// cell, or changed strength.
func (s *AttractorSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		pos, a := query.Get()
		cell := s.mapping.Locate(pos.X, pos.Y)

		switch {
		case !a.Placed:
			s.push(cell, a.Strength)
		case cell != a.Cell:
			s.push(a.Cell, -a.Written)
			s.push(cell, a.Strength)
		case a.Strength != a.Written:
			s.push(cell, a.Strength-a.Written)
		default:
			continue
		}
		a.Cell = cell
		a.Written = a.Strength
		a.Placed = true
	}
}

// Release queues the negation of whatever e last wrote. Call it before
// removing the entity. Entities without an attractor are ignored.
func (s *AttractorSystem) Release(e ecs.Entity) {
	if !s.attrMap.Has(e) {
		return
	}
	a := s.attrMap.Get(e)
	if !a.Placed {
		return
	}
	s.push(a.Cell, -a.Written)
	a.Written = 0
	a.Placed = false
}

// push queues delta for cell c, expressed as the cell's world centre so it
// travels through the same world-position channel as every other update.
func (s *AttractorSystem) push(c GravityCoords, delta float32) {
	if delta == 0 {
		return
	}
	x, y := s.mapping.CellCenter(c)
	s.queue.Push(FieldUpdate{Delta: delta, Position: components.Position{X: x, Y: y}})
}
