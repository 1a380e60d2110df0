package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats holds aggregated statistics for a time window.
type FieldStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Solver state at window end
	Sweeps         uint64  `csv:"sweeps"`
	LastCorrection float64 `csv:"last_correction"`
	ResidualMax    float64 `csv:"residual_max"`  // Largest |delta| a sweep would apply
	ResidualMean   float64 `csv:"residual_mean"` // Mean |delta| over all cells
	FieldMin       float64 `csv:"field_min"`
	FieldMax       float64 `csv:"field_max"`
	FieldMean      float64 `csv:"field_mean"`
	Sources        int     `csv:"sources"`

	// Events during window
	UpdatesApplied int `csv:"updates_applied"`
	UpdatesDropped int `csv:"updates_dropped"`
	ScriptEmitted  int `csv:"script_emitted"`
	Recycled       int `csv:"recycled"`

	// Drifter speed distribution (sampled at window end)
	Drifters  int     `csv:"drifters"`
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
}

// FieldSample is the raw solver state summarised into FieldStats.
type FieldSample struct {
	Sweeps         uint64
	LastCorrection float32
	Values         []float32 // Row-major cell values
	Residual       []float32 // Row-major stencil deltas, 0 for sources
	Sources        int
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles from values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ResidualNorms returns the largest absolute residual and the mean absolute
// residual.
func ResidualNorms(residual []float32) (maxAbs, meanAbs float64) {
	n := len(residual)
	if n == 0 {
		return 0, 0
	}
	v := blas32.Vector{N: n, Inc: 1, Data: residual}
	maxAbs = math.Abs(float64(residual[blas32.Iamax(v)]))
	meanAbs = float64(blas32.Asum(v)) / float64(n)
	return maxAbs, meanAbs
}

// ValueRange returns the min, max and mean cell value.
func ValueRange(values []float32) (lo, hi, mean float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	v64 := make([]float64, len(values))
	for i, v := range values {
		v64[i] = float64(v)
	}
	return floats.Min(v64), floats.Max(v64), stat.Mean(v64, nil)
}

// apply fills the solver columns of s from a sample.
func (s *FieldStats) apply(f FieldSample) {
	s.Sweeps = f.Sweeps
	s.LastCorrection = float64(f.LastCorrection)
	s.ResidualMax, s.ResidualMean = ResidualNorms(f.Residual)
	s.FieldMin, s.FieldMax, s.FieldMean = ValueRange(f.Values)
	s.Sources = f.Sources
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Uint64("sweeps", s.Sweeps),
		slog.Float64("last_correction", s.LastCorrection),
		slog.Float64("residual_max", s.ResidualMax),
		slog.Float64("residual_mean", s.ResidualMean),
		slog.Float64("field_min", s.FieldMin),
		slog.Float64("field_max", s.FieldMax),
		slog.Float64("field_mean", s.FieldMean),
		slog.Int("sources", s.Sources),
		slog.Int("updates_applied", s.UpdatesApplied),
		slog.Int("updates_dropped", s.UpdatesDropped),
		slog.Int("script_emitted", s.ScriptEmitted),
		slog.Int("recycled", s.Recycled),
		slog.Int("drifters", s.Drifters),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
	)
}

// LogStats logs the window stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("stats", "window", s)
}
