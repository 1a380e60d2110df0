// Package systems contains ECS systems for the simulation.
package systems

import (
	"github.com/jakecoffman/cp"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/config"
)

// PhysicsSystem integrates drifters through the gravity field. Each drifter
// gets a rigid body in a zero-gravity space; the field gradient, scaled by
// gain, is applied as the only external force.
type PhysicsSystem struct {
	space  *cp.Space
	filter ecs.Filter4[components.Position, components.Velocity, components.Drifter, components.Body]
	field  *FieldSystem
	bounds Bounds

	gain       float32
	wallBounce float32

	// Stats from the last Update
	recycled  int
	meanSpeed float32
	count     int
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, fs *FieldSystem, cfg config.PhysicsConfig) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(cp.Vector{})

	s := &PhysicsSystem{
		space:  space,
		filter: *ecs.NewFilter4[components.Position, components.Velocity, components.Drifter, components.Body](w),
		field:  fs,
		bounds: fs.Mapping().Bounds(),
	}
	s.Configure(cfg)
	return s
}

// Configure applies the tunable subset of physics config. Safe to call
// between ticks.
func (s *PhysicsSystem) Configure(cfg config.PhysicsConfig) {
	s.gain = float32(cfg.Gain)
	s.wallBounce = float32(cfg.WallBounce)
	s.space.SetDamping(cfg.Damping)
}

// Update samples the field for every drifter, steps the space by dt and
// writes positions back. Must run after the field has been relaxed for this
// tick.
func (s *PhysicsSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, d, body := query.Get()
		if body.Body == nil {
			body.Body = s.addBody(pos, vel, d)
		}

		g := s.field.Sample(*pos).Scale(s.gain * d.Mass)
		body.Body.SetForce(cp.Vector{X: float64(g.X), Y: float64(g.Y)})
	}

	s.space.Step(float64(dt))

	s.recycled = 0
	s.count = 0
	var speedSum float32

	query = s.filter.Query()
	for query.Next() {
		pos, vel, d, body := query.Get()

		p := body.Body.Position()
		v := body.Body.Velocity()
		pos.X, pos.Y = float32(p.X), float32(p.Y)
		vel.X, vel.Y = float32(v.X), float32(v.Y)

		s.constrain(pos, vel, d.Radius)

		body.Body.SetPosition(cp.Vector{X: float64(pos.X), Y: float64(pos.Y)})
		body.Body.SetVelocity(float64(vel.X), float64(vel.Y))

		s.count++
		speedSum += vel.Speed()
	}

	if s.count > 0 {
		s.meanSpeed = speedSum / float32(s.count)
	} else {
		s.meanSpeed = 0
	}
}

// constrain keeps a drifter inside the world. Side walls bounce; a drifter
// that reaches the floor is recycled to the top with its sideways speed,
// so the column keeps scrolling.
func (s *PhysicsSystem) constrain(pos *components.Position, vel *components.Velocity, r float32) {
	if pos.X < r {
		pos.X = r
		vel.X = -vel.X * s.wallBounce
	}
	if pos.X > s.bounds.Width-r {
		pos.X = s.bounds.Width - r
		vel.X = -vel.X * s.wallBounce
	}
	if pos.Y > s.bounds.Height-r {
		pos.Y = s.bounds.Height - r
		vel.Y = -vel.Y * s.wallBounce
	}
	if pos.Y < r {
		pos.Y = s.bounds.Height - r
		vel.Y = 0
		s.recycled++
	}
}

func (s *PhysicsSystem) addBody(pos *components.Position, vel *components.Velocity, d *components.Drifter) *cp.Body {
	mass := float64(d.Mass)
	if mass <= 0 {
		mass = 1
	}
	radius := float64(d.Radius)

	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: float64(pos.X), Y: float64(pos.Y)})
	body.SetVelocity(float64(vel.X), float64(vel.Y))

	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetElasticity(float64(s.wallBounce))
	shape.SetFriction(0.2)

	s.space.AddBody(body)
	s.space.AddShape(shape)
	return body
}

// Recycled returns how many drifters wrapped from floor to top last tick.
func (s *PhysicsSystem) Recycled() int { return s.recycled }

// MeanSpeed returns the mean drifter speed after the last tick.
func (s *PhysicsSystem) MeanSpeed() float32 { return s.meanSpeed }

// Count returns the number of drifters integrated last tick.
func (s *PhysicsSystem) Count() int { return s.count }
