// Package main searches for the overcorrection factor that relaxes the
// configured gravity field in the fewest sweeps.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/meditation/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	tolerance := flag.Float64("tolerance", 1e-4, "Largest per-cell residual that counts as settled")
	maxSweeps := flag.Int("max-sweeps", 5000, "Sweep cap per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	methodName := flag.String("method", "cmaes", "Optimizer: cmaes or neldermead")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, baseCfg, *tolerance, *maxSweeps)

	method, err := newMethod(*methodName)
	if err != nil {
		log.Fatal(err)
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalLog := &evalLogger{w: logFile}
	startTime := time.Now()

	// The optimizer works in normalized [0,1] space
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(params.Denormalize(x))
			r := evaluator.Last()
			if err := evalLog.write(r); err != nil {
				log.Printf("failed to log evaluation: %v", err)
			}

			elapsed := time.Since(startTime)
			best := evaluator.Best()
			fmt.Printf("Eval %d/%d: overcorrection=%.4f sweeps=%d converged=%v (best=%.0f at %.4f) | elapsed: %s\n",
				r.Eval, *maxEvals, r.Overcorrection, r.Sweeps, r.Converged,
				best.Fitness, best.Overcorrection, formatDuration(elapsed))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	fmt.Printf("Starting %s search over %d parameter(s), max_evals=%d, tolerance=%g\n",
		*methodName, params.Dim(), *maxEvals, *tolerance)

	if _, err := optimize.Minimize(problem, initX, settings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := evaluator.Best()
	fmt.Printf("\nOptimization complete after %d evaluations in %s\n",
		evaluator.Last().Eval, formatDuration(time.Since(startTime)))
	fmt.Printf("Best: overcorrection=%.6f sweeps=%d converged=%v\n",
		best.Overcorrection, best.Sweeps, best.Converged)

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, []float64{best.Overcorrection})

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}

func newMethod(name string) (optimize.Method, error) {
	switch name {
	case "cmaes":
		return &optimize.CmaEsChol{InitStepSize: 0.3}, nil
	case "neldermead":
		return &optimize.NelderMead{}, nil
	default:
		return nil, fmt.Errorf("unknown method %q", name)
	}
}

// evalLogger appends evaluations to a CSV file, writing the header once.
type evalLogger struct {
	w             *os.File
	headerWritten bool
}

func (l *evalLogger) write(r EvalResult) error {
	records := []EvalResult{r}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.w); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.w)
}
