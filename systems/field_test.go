package systems

import (
	"testing"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/field"
)

func testFieldConfig() config.FieldConfig {
	return config.FieldConfig{
		Width:              6,
		Height:             10,
		CellSize:           10,
		Overcorrection:     1.5,
		InitialSmoothing:   300,
		SweepsPerTick:      1,
		DownwardAttraction: true,
	}
}

func newTestFieldSystem(t *testing.T, cfg config.FieldConfig) *FieldSystem {
	t.Helper()
	f, err := NewGravityField(cfg)
	if err != nil {
		t.Fatalf("NewGravityField: %v", err)
	}
	m := NewWorldMapping(cfg.Width, cfg.Height, float32(cfg.CellSize))
	return NewFieldSystem(f, m, &UpdateQueue{}, cfg.SweepsPerTick)
}

func TestWorldMappingLocate(t *testing.T) {
	m := NewWorldMapping(6, 10, 10) // 60 x 100 world

	tests := []struct {
		name string
		x, y float32
		want GravityCoords
	}{
		{"top left", 0.5, 99.5, GravityCoords{X: 0, Y: 0}},
		{"bottom right", 59.5, 0.5, GravityCoords{X: 5, Y: 9}},
		{"middle", 25, 55, GravityCoords{X: 2, Y: 4}},
		{"floor", 5, 0, GravityCoords{X: 0, Y: 9}},
		{"ceiling", 5, 100, GravityCoords{X: 0, Y: -1}},
		{"cell edge", 10, 50, GravityCoords{X: 1, Y: 4}},
		{"above world", 5, 120, GravityCoords{X: 0, Y: -3}},
		{"left of world", -5, 45, GravityCoords{X: -1, Y: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Locate(tc.x, tc.y); got != tc.want {
				t.Errorf("Locate(%v, %v): expected %v, got %v", tc.x, tc.y, tc.want, got)
			}
		})
	}

	if got := m.LocateClamped(-5, 120); got != (GravityCoords{X: 0, Y: 0}) {
		t.Errorf("LocateClamped: expected (0,0), got %v", got)
	}
	if got := m.LocateClamped(100, -3); got != (GravityCoords{X: 5, Y: 9}) {
		t.Errorf("LocateClamped: expected (5,9), got %v", got)
	}
}

func TestWorldMappingCellCenterRoundTrip(t *testing.T) {
	m := NewWorldMapping(6, 10, 10)
	for y := -1; y <= 10; y++ {
		for x := -1; x <= 6; x++ {
			c := GravityCoords{X: x, Y: y}
			if got := m.Locate(m.CellCenter(c)); got != c {
				t.Errorf("round trip %v -> %v", c, got)
			}
		}
	}
}

func TestNewGravityFieldAppliesConfig(t *testing.T) {
	cfg := testFieldConfig()
	f, err := NewGravityField(cfg)
	if err != nil {
		t.Fatalf("NewGravityField: %v", err)
	}
	if f.Sweeps() != uint64(cfg.InitialSmoothing) {
		t.Errorf("expected %d initial sweeps, got %d", cfg.InitialSmoothing, f.Sweeps())
	}
	if f.OvercorrectionFactor() != 1.5 {
		t.Errorf("expected factor 1.5, got %v", f.OvercorrectionFactor())
	}
	if p := f.At(GravityCoords{X: 0, Y: 9}); p.Kind != field.Source || p.Value != 1 {
		t.Errorf("expected bottom row Source(1), got %v(%v)", p.Kind, p.Value)
	}

	cfg.Width = 2
	if _, err := NewGravityField(cfg); err == nil {
		t.Error("expected error for 2-wide grid")
	}
}

func TestFieldSystemAppliesAndDrops(t *testing.T) {
	cfg := testFieldConfig()
	cfg.DownwardAttraction = false
	cfg.InitialSmoothing = 0
	fs := newTestFieldSystem(t, cfg)
	q := fs.queue

	q.Push(FieldUpdate{Delta: 2, Position: components.Position{X: 25, Y: 55}})
	q.Push(FieldUpdate{Delta: 0.5, Position: components.Position{X: 25, Y: 55}})
	q.Push(FieldUpdate{Delta: 9, Position: components.Position{X: 25, Y: 150}}) // above the world
	q.Push(FieldUpdate{Delta: 0.25, Position: components.Position{X: 25, Y: 0}})

	fs.ApplyUpdates()

	if fs.Applied() != 3 || fs.Dropped() != 1 {
		t.Errorf("expected 3 applied 1 dropped, got %d/%d", fs.Applied(), fs.Dropped())
	}
	if p := fs.Field().At(GravityCoords{X: 2, Y: 9}); p.Kind != field.Source || p.Value != 0.25 {
		t.Errorf("floor update: expected Source(0.25), got %v(%v)", p.Kind, p.Value)
	}
	if q.Len() != 0 {
		t.Errorf("expected queue drained, %d left", q.Len())
	}
	if p := fs.Field().At(GravityCoords{X: 2, Y: 4}); p.Kind != field.Source || p.Value != 2.5 {
		t.Errorf("expected Source(2.5), got %v(%v)", p.Kind, p.Value)
	}
}

func TestFieldSystemRelaxHonoursStopFlag(t *testing.T) {
	cfg := testFieldConfig()
	cfg.InitialSmoothing = 0
	cfg.SweepsPerTick = 3
	fs := newTestFieldSystem(t, cfg)

	fs.ApplyUpdates()
	fs.Relax()
	if fs.Field().Sweeps() != 3 {
		t.Errorf("expected 3 sweeps, got %d", fs.Field().Sweeps())
	}

	fs.Field().StopSmoothingOut = true
	if c := fs.Relax(); c != 0 {
		t.Errorf("expected no correction while stopped, got %v", c)
	}
	if fs.Field().Sweeps() != 3 {
		t.Errorf("expected sweeps to stay at 3, got %d", fs.Field().Sweeps())
	}

	fs.Field().StopSmoothingOut = false
	fs.SetSweepsPerTick(-2)
	fs.Relax()
	if fs.Field().Sweeps() != 3 {
		t.Errorf("negative sweeps should clamp to zero, got %d sweeps", fs.Field().Sweeps())
	}
}

func TestFieldSystemSamplePullsDown(t *testing.T) {
	fs := newTestFieldSystem(t, testFieldConfig())

	g := fs.Sample(components.Position{X: 30, Y: 50})
	if g.Y >= 0 {
		t.Errorf("expected downward pull, got %+v", g)
	}

	// Off-world positions clamp to the nearest edge cell instead of panicking.
	_ = fs.Sample(components.Position{X: -20, Y: 500})
}

func TestUpdateQueueOrder(t *testing.T) {
	var q UpdateQueue
	for i := 0; i < 4; i++ {
		q.Push(FieldUpdate{Delta: float32(i)})
	}
	var got []float32
	q.Drain(func(u FieldUpdate) { got = append(got, u.Delta) })
	for i, d := range got {
		if d != float32(i) {
			t.Fatalf("expected FIFO order, got %v", got)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after drain")
	}
}
