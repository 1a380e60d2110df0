package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meditation/components"
)

// spawnScenario creates the configured attractors, wanderers and drifters.
func (g *Game) spawnScenario() {
	cfg := g.cfg
	w, h := g.WorldSize()

	for _, a := range cfg.Scenario.Attractors {
		g.SpawnAttractor(float32(a.X), float32(a.Y), float32(a.Strength))
	}

	// Wanderers are spread evenly over the height of the world
	n := cfg.Scenario.Wanderers
	for i := 0; i < n; i++ {
		y := h * float32(i+1) / float32(n+1)
		g.spawnWanderer(w/2, y)
	}

	r := float32(cfg.Physics.BodyRadius)
	for i := 0; i < cfg.Scenario.Drifters; i++ {
		x := r + g.rng.Float32()*(w-2*r)
		y := r + g.rng.Float32()*(h-2*r)
		g.SpawnDrifter(x, y)
	}
}

// SpawnDrifter adds a drifter at rest at a world position. The physics
// system gives it a body on its next update.
func (g *Game) SpawnDrifter(x, y float32) {
	cfg := g.cfg
	g.drifterMapper.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Velocity{},
		&components.Drifter{
			Radius: float32(cfg.Physics.BodyRadius),
			Mass:   float32(cfg.Physics.BodyMass),
		},
		&components.Body{},
	)
}

// SpawnAttractor adds a fixed attractor. Its strength reaches the field on
// the next tick.
func (g *Game) SpawnAttractor(x, y, strength float32) ecs.Entity {
	return g.attractorMapper.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Attractor{Strength: strength},
	)
}

func (g *Game) spawnWanderer(x, y float32) ecs.Entity {
	cfg := g.cfg
	return g.wandererMapper.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Attractor{Strength: float32(cfg.Scenario.WanderStrength)},
		&components.Wanderer{
			Seed:   g.rng.Float64() * 1000,
			Speed:  cfg.Scenario.WanderSpeed,
			Margin: cfg.Derived.CellSize32,
		},
	)
}

// RemoveAttractor takes an attractor's influence back out of the field and
// removes the entity. Must not be called while a query is running.
func (g *Game) RemoveAttractor(e ecs.Entity) {
	if !g.world.Alive(e) {
		slog.Warn("remove of dead attractor ignored", "entity", e)
		return
	}
	g.attractorSys.Release(e)
	g.world.RemoveEntity(e)
}
