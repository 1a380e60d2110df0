package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/config"
)

func testPhysicsConfig() config.PhysicsConfig {
	return config.PhysicsConfig{
		DT:         1.0 / 60,
		Gain:       900,
		Damping:    1,
		Iterations: 10,
		BodyRadius: 2,
		BodyMass:   1,
		WallBounce: 0.5,
	}
}

func spawnTestDrifter(w *ecs.World, x, y, vx, vy float32) ecs.Entity {
	mapper := ecs.NewMap4[components.Position, components.Velocity, components.Drifter, components.Body](w)
	return mapper.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Velocity{X: vx, Y: vy},
		&components.Drifter{Radius: 2, Mass: 1},
		&components.Body{},
	)
}

func TestPhysicsDrifterFalls(t *testing.T) {
	world := ecs.NewWorld()
	fs := newTestFieldSystem(t, testFieldConfig())
	sys := NewPhysicsSystem(world, fs, testPhysicsConfig())

	e := spawnTestDrifter(world, 30, 80, 0, 0)
	posMap := ecs.NewMap[components.Position](world)
	velMap := ecs.NewMap[components.Velocity](world)

	for i := 0; i < 20; i++ {
		sys.Update(1.0 / 60)
	}

	if sys.Count() != 1 {
		t.Fatalf("expected 1 drifter, got %d", sys.Count())
	}
	if v := velMap.Get(e); v.Y >= 0 {
		t.Errorf("expected downward velocity, got %+v", *v)
	}
	if p := posMap.Get(e); p.Y >= 80 {
		t.Errorf("expected drifter below its start, got %+v", *p)
	}
	if sys.MeanSpeed() <= 0 {
		t.Errorf("expected positive mean speed, got %v", sys.MeanSpeed())
	}
}

func TestPhysicsConstraints(t *testing.T) {
	world := ecs.NewWorld()
	fs := newTestFieldSystem(t, testFieldConfig())
	sys := NewPhysicsSystem(world, fs, testPhysicsConfig())

	floor := spawnTestDrifter(world, 30, 1, 0, -10)
	wall := spawnTestDrifter(world, 1, 50, -30, 0)
	posMap := ecs.NewMap[components.Position](world)
	velMap := ecs.NewMap[components.Velocity](world)

	sys.Update(1.0 / 60)

	if sys.Recycled() != 1 {
		t.Errorf("expected 1 recycled drifter, got %d", sys.Recycled())
	}
	if p := posMap.Get(floor); p.Y != 98 {
		t.Errorf("expected recycled drifter at the top, got %+v", *p)
	}
	if v := velMap.Get(floor); v.Y != 0 {
		t.Errorf("expected recycled drifter to lose vertical speed, got %+v", *v)
	}

	p := posMap.Get(wall)
	if p.X != 2 {
		t.Errorf("expected drifter pushed back to the wall, got %+v", *p)
	}
	if v := velMap.Get(wall); v.X <= 0 {
		t.Errorf("expected bounce off the left wall, got %+v", *v)
	}
}

func TestPhysicsConfigure(t *testing.T) {
	world := ecs.NewWorld()
	fs := newTestFieldSystem(t, testFieldConfig())
	sys := NewPhysicsSystem(world, fs, testPhysicsConfig())

	cfg := testPhysicsConfig()
	cfg.Gain = 0
	sys.Configure(cfg)

	e := spawnTestDrifter(world, 30, 50, 0, 0)
	velMap := ecs.NewMap[components.Velocity](world)
	for i := 0; i < 10; i++ {
		sys.Update(1.0 / 60)
	}
	if v := velMap.Get(e); v.Y != 0 || v.X != 0 {
		t.Errorf("expected a drifter at rest with zero gain, got %+v", *v)
	}
}
