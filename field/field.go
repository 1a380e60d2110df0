// Package field implements a discretised Poisson relaxation solver over a
// 2D grid of scalar points. Sources pin values, Average points relax toward
// the mean of their neighbours, and the gradient between adjacent points is
// sampled as a force.
package field

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidDimensions is returned when a grid is smaller than 3x3.
var ErrInvalidDimensions = errors.New("field: width and height must both be greater than 2")

// PointKind distinguishes relaxed points from fixed sources.
type PointKind uint8

const (
	Average PointKind = iota // Value derived from neighbours each sweep
	Source                   // Value fixed under relaxation, changed only by Set
)

func (k PointKind) String() string {
	switch k {
	case Average:
		return "average"
	case Source:
		return "source"
	default:
		return fmt.Sprintf("PointKind(%d)", uint8(k))
	}
}

// GridPoint is the state of a single grid cell.
type GridPoint struct {
	Kind  PointKind
	Value float32
}

// Inner returns the scalar value regardless of kind.
func (p GridPoint) Inner() float32 {
	return p.Value
}

// GridCoords addresses a cell. T tags which field the coordinates belong to
// and carries no data.
type GridCoords[T any] struct {
	X, Y int
}

// GridCoords lets plain coordinates be passed wherever a Locator is expected.
func (c GridCoords[T]) GridCoords() GridCoords[T] {
	return c
}

// Locator converts a host position into grid coordinates for field T.
// The host decides scale and origin.
type Locator[T any] interface {
	GridCoords() GridCoords[T]
}

// Vec2 is a gradient sample.
type Vec2 struct {
	X, Y float32
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float32) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Solver owns one grid and the relaxation parameters for field T.
// It is not safe for concurrent use: Set and SmoothOut need exclusive
// access, GradientAt only needs the writes of the current tick to be visible.
type Solver[T any] struct {
	width, height int
	points        []GridPoint // row-major, y*width + x

	overcorrection float32
	lastCorrection float32
	sweeps         uint64

	// StopSmoothingOut is scheduling state for the host. The solver never
	// reads it.
	StopSmoothingOut bool
}

// New creates a width x height solver with every cell Average(0).
func New[T any](width, height int) (*Solver[T], error) {
	if width <= 2 || height <= 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Solver[T]{
		width:          width,
		height:         height,
		points:         make([]GridPoint, width*height),
		overcorrection: 1.0,
	}, nil
}

// MustNew is like New but panics on invalid dimensions.
func MustNew[T any](width, height int) *Solver[T] {
	s, err := New[T](width, height)
	if err != nil {
		panic(err)
	}
	return s
}

// WithDownwardAttraction pins the top row to Source(0) and the bottom row to
// Source(1), giving a constant pull toward the bottom when nothing else is
// placed on the grid.
func (s *Solver[T]) WithDownwardAttraction() *Solver[T] {
	bottom := (s.height - 1) * s.width
	for x := 0; x < s.width; x++ {
		s.points[x] = GridPoint{Kind: Source, Value: 0}
		s.points[bottom+x] = GridPoint{Kind: Source, Value: 1}
	}
	return s
}

// WithOvercorrectionFactor sets the relaxation multiplier. Values above 1
// over-relax. Panics if factor is not positive.
func (s *Solver[T]) WithOvercorrectionFactor(factor float32) *Solver[T] {
	if !(factor > 0) {
		panic(fmt.Sprintf("field: overcorrection factor must be positive, got %v", factor))
	}
	s.overcorrection = factor
	return s
}

// WithInitialSmoothing runs exactly iterations sweeps and keeps only the
// final sweep's correction.
func (s *Solver[T]) WithInitialSmoothing(iterations int) *Solver[T] {
	if iterations <= 0 {
		return s
	}
	s.StopSmoothingOut = false
	for i := 0; i < iterations-1; i++ {
		s.SmoothOut()
	}
	s.lastCorrection = s.SmoothOut()

	slog.Debug("field: initial smoothing done",
		"iterations", iterations,
		"last_correction", s.lastCorrection,
		"width", s.width,
		"height", s.height,
	)
	return s
}

// Set adds value to the cell at c. An Average cell becomes Source(value);
// a Source accumulates. There is no way back to Average: to undo an
// influence, Set the negated value.
func (s *Solver[T]) Set(c GridCoords[T], value float32) {
	p := &s.points[s.index(c)]
	if p.Kind == Source {
		p.Value += value
		return
	}
	*p = GridPoint{Kind: Source, Value: value}
}

// Contains reports whether c lies on the grid.
func (s *Solver[T]) Contains(c GridCoords[T]) bool {
	return c.X >= 0 && c.X < s.width && c.Y >= 0 && c.Y < s.height
}

// At returns the point at c.
func (s *Solver[T]) At(c GridCoords[T]) GridPoint {
	return s.points[s.index(c)]
}

// Values copies the inner value of every cell in row-major order into dst,
// growing it if needed.
func (s *Solver[T]) Values(dst []float32) []float32 {
	if cap(dst) < len(s.points) {
		dst = make([]float32, len(s.points))
	}
	dst = dst[:len(s.points)]
	for i, p := range s.points {
		dst[i] = p.Value
	}
	return dst
}

// Sources returns the number of source cells.
func (s *Solver[T]) Sources() int {
	n := 0
	for _, p := range s.points {
		if p.Kind == Source {
			n++
		}
	}
	return n
}

// Width returns the grid width in cells.
func (s *Solver[T]) Width() int { return s.width }

// Height returns the grid height in cells.
func (s *Solver[T]) Height() int { return s.height }

// OvercorrectionFactor returns the relaxation multiplier.
func (s *Solver[T]) OvercorrectionFactor() float32 { return s.overcorrection }

// LastCorrection returns the value returned by the most recent sweep.
func (s *Solver[T]) LastCorrection() float32 { return s.lastCorrection }

// Sweeps returns how many relaxation sweeps have run.
func (s *Solver[T]) Sweeps() uint64 { return s.sweeps }

// index panics on coordinates outside the grid, including the ones that
// would alias into a neighbouring row of the flat slice.
func (s *Solver[T]) index(c GridCoords[T]) int {
	if !s.Contains(c) {
		panic(fmt.Sprintf("field: coords (%d,%d) outside %dx%d grid", c.X, c.Y, s.width, s.height))
	}
	return c.Y*s.width + c.X
}
