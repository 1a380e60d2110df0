package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/systems"
	"github.com/pthm-cable/meditation/telemetry"
)

// EvalResult is one evaluation, as logged to the CSV.
type EvalResult struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	Overcorrection float64 `csv:"overcorrection"`
	Sweeps         int     `csv:"sweeps"`
	Converged      bool    `csv:"converged"`
	ResidualMax    float64 `csv:"residual_max"`
}

// FitnessEvaluator relaxes a fresh field per parameter vector and scores
// how many sweeps it takes to settle.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	tolerance  float64
	maxSweeps  int

	mu          sync.Mutex
	evals       int
	best        EvalResult
	last        EvalResult
	residualBuf []float32
}

// NewFitnessEvaluator creates a new evaluator. A field counts as settled
// once no cell would move by more than tolerance.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, tolerance float64, maxSweeps int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		tolerance:  tolerance,
		maxSweeps:  maxSweeps,
		best:       EvalResult{Fitness: math.Inf(1)},
	}
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the sweep count to tolerance; runs that never settle score
// maxSweeps plus a penalty growing with the final residual.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	r := fe.run(cfg)
	fe.evals++
	r.Eval = fe.evals
	r.Overcorrection = cfg.Field.Overcorrection

	if r.Converged {
		r.Fitness = float64(r.Sweeps)
	} else {
		penalty := r.ResidualMax
		if math.IsNaN(penalty) || penalty > 1e3 {
			penalty = 1e3
		}
		r.Fitness = float64(fe.maxSweeps) * (1 + penalty)
	}

	fe.last = r
	if r.Fitness < fe.best.Fitness {
		fe.best = r
	}
	return r.Fitness
}

// run relaxes the configured field with its fixed attractors until the
// residual drops under tolerance or maxSweeps is reached.
func (fe *FitnessEvaluator) run(cfg *config.Config) EvalResult {
	cfg.Field.InitialSmoothing = 0
	f, err := systems.NewGravityField(cfg.Field)
	if err != nil {
		return EvalResult{ResidualMax: math.Inf(1)}
	}

	m := systems.NewWorldMapping(cfg.Field.Width, cfg.Field.Height, cfg.Derived.CellSize32)
	for _, a := range cfg.Scenario.Attractors {
		if c := m.Locate(float32(a.X), float32(a.Y)); f.Contains(c) {
			f.Set(c, float32(a.Strength))
		}
	}

	var resMax float64
	for sweep := 1; sweep <= fe.maxSweeps; sweep++ {
		f.SmoothOut()
		fe.residualBuf = f.Residual(fe.residualBuf)
		resMax, _ = telemetry.ResidualNorms(fe.residualBuf)
		if resMax < fe.tolerance {
			return EvalResult{Sweeps: sweep, Converged: true, ResidualMax: resMax}
		}
		if math.IsNaN(resMax) || math.IsInf(resMax, 0) {
			break
		}
	}
	return EvalResult{Sweeps: fe.maxSweeps, ResidualMax: resMax}
}

// copyConfig returns a shallow copy of the base config with its own
// attractor slice.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Scenario.Attractors = append([]config.AttractorConfig(nil), fe.baseConfig.Scenario.Attractors...)
	return &cfg
}

// Best returns the best evaluation so far.
func (fe *FitnessEvaluator) Best() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best
}

// Last returns the most recent evaluation.
func (fe *FitnessEvaluator) Last() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}
