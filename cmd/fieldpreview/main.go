// Gravity field preview tool - renders a relaxed field as a heatmap PNG.
//
// Usage: go run ./cmd/fieldpreview -config config.yaml -sweeps 500 -out field.png
//
//	go run ./cmd/fieldpreview -snapshot out/snapshot_6000.json -out field.png
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/meditation/config"
	"github.com/pthm-cable/meditation/systems"
	"github.com/pthm-cable/meditation/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	sweeps := flag.Int("sweeps", 500, "Sweeps to run after placing attractors")
	out := flag.String("out", "field.png", "Output PNG path")
	width := flag.Float64("width", 6, "Image width in inches (height follows the grid aspect)")
	snapshotPath := flag.String("snapshot", "", "Render a saved snapshot instead of relaxing a new field")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(*snapshotPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		grid := newFieldGrid(snap.Values, snap.GridWidth, snap.GridHeight, float64(snap.CellSize))
		title := fmt.Sprintf("gravity field, tick %d, %d sweeps", snap.Tick, snap.Sweeps)
		if err := savePlot(grid, *out, *width, title); err != nil {
			slog.Error("failed to save plot", "error", err)
			os.Exit(1)
		}
		slog.Info("saved", "path", *out, "snapshot", *snapshotPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	f, err := relaxedField(cfg, *sweeps)
	if err != nil {
		slog.Error("failed to build field", "error", err)
		os.Exit(1)
	}

	values := f.Values(nil)
	lo, hi, mean := telemetry.ValueRange(values)
	resMax, resMean := telemetry.ResidualNorms(f.Residual(nil))
	slog.Info("field relaxed",
		"sweeps", f.Sweeps(),
		"min", lo,
		"max", hi,
		"mean", mean,
		"residual_max", resMax,
		"residual_mean", resMean,
	)

	grid := newFieldGrid(values, f.Width(), f.Height(), cfg.Field.CellSize)
	if err := savePlot(grid, *out, *width, fmt.Sprintf("gravity field, %d sweeps", f.Sweeps())); err != nil {
		slog.Error("failed to save plot", "error", err)
		os.Exit(1)
	}
	slog.Info("saved", "path", *out)
}

// relaxedField builds the configured field, writes the fixed attractors and
// relaxes it.
func relaxedField(cfg *config.Config, sweeps int) (*systems.GravityField, error) {
	f, err := systems.NewGravityField(cfg.Field)
	if err != nil {
		return nil, err
	}

	m := systems.NewWorldMapping(cfg.Field.Width, cfg.Field.Height, cfg.Derived.CellSize32)
	for _, a := range cfg.Scenario.Attractors {
		c := m.Locate(float32(a.X), float32(a.Y))
		if !f.Contains(c) {
			slog.Warn("attractor off grid", "x", a.X, "y", a.Y)
			continue
		}
		f.Set(c, float32(a.Strength))
	}

	for i := 0; i < sweeps; i++ {
		f.SmoothOut()
	}
	return f, nil
}

func savePlot(grid *fieldGrid, path string, widthIn float64, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	p.Add(plotter.NewHeatMap(grid, palette.Heat(32, 1)))

	w := vg.Length(widthIn) * vg.Inch
	h := w * vg.Length(grid.rows) / vg.Length(grid.cols)
	return p.Save(w, h, path)
}

// fieldGrid adapts row-major field values to plotter.GridXYZ in world
// coordinates. Grid row 0 is the top of the world, so rows are flipped to
// keep y increasing upward.
type fieldGrid struct {
	values     []float32
	cols, rows int
	cellSize   float64
}

func newFieldGrid(values []float32, cols, rows int, cellSize float64) *fieldGrid {
	return &fieldGrid{values: values, cols: cols, rows: rows, cellSize: cellSize}
}

func (g *fieldGrid) Dims() (c, r int) { return g.cols, g.rows }

func (g *fieldGrid) Z(c, r int) float64 {
	row := g.rows - 1 - r
	return float64(g.values[row*g.cols+c])
}

func (g *fieldGrid) X(c int) float64 { return (float64(c) + 0.5) * g.cellSize }

func (g *fieldGrid) Y(r int) float64 { return (float64(r) + 0.5) * g.cellSize }
