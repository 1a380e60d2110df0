package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, p10, p50, p90 := ComputeDistribution(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}

	// Input must not be reordered
	if values[0] != 1.0 {
		t.Error("ComputeDistribution sorted its input")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeDistribution(nil)

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestResidualNorms(t *testing.T) {
	maxAbs, meanAbs := ResidualNorms([]float32{0.25, -0.75, 0, 0.5})
	if maxAbs != 0.75 {
		t.Errorf("max = %v, want 0.75", maxAbs)
	}
	if meanAbs != 0.375 {
		t.Errorf("mean = %v, want 0.375", meanAbs)
	}

	if maxAbs, meanAbs := ResidualNorms(nil); maxAbs != 0 || meanAbs != 0 {
		t.Error("empty residual should return zeros")
	}
}

func TestValueRange(t *testing.T) {
	lo, hi, mean := ValueRange([]float32{0.5, -1, 2, 0.5})
	if lo != -1 || hi != 2 || mean != 0.5 {
		t.Errorf("got lo=%v hi=%v mean=%v", lo, hi, mean)
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3, 0.5)

	for tick := uint64(1); tick <= 3; tick++ {
		c.Record(TickCounts{Applied: 2, Dropped: 1, Recycled: 1})
		if tick < 3 && c.ShouldFlush(tick) {
			t.Fatalf("flushed early at tick %d", tick)
		}
	}
	if !c.ShouldFlush(3) {
		t.Fatal("expected flush at tick 3")
	}

	stats := c.Flush(3, FieldSample{
		Sweeps:   12,
		Values:   []float32{0, 1},
		Residual: []float32{0, 0.5},
		Sources:  1,
	}, []float64{2, 4})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 3 || stats.SimTimeSec != 1.5 {
		t.Errorf("unexpected window: %+v", stats)
	}
	if stats.UpdatesApplied != 6 || stats.UpdatesDropped != 3 || stats.Recycled != 3 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.Sweeps != 12 || stats.ResidualMax != 0.5 || stats.FieldMax != 1 || stats.Sources != 1 {
		t.Errorf("unexpected field columns: %+v", stats)
	}
	if stats.Drifters != 2 || stats.SpeedMean != 3 {
		t.Errorf("unexpected speed columns: %+v", stats)
	}

	// Counters reset and the next window starts where this one ended
	next := c.Flush(6, FieldSample{}, nil)
	if next.WindowStartTick != 3 || next.UpdatesApplied != 0 {
		t.Errorf("expected a fresh window, got %+v", next)
	}
}
