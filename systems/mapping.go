package systems

import (
	"math"

	"github.com/pthm-cable/meditation/components"
	"github.com/pthm-cable/meditation/field"
)

// GravityCoords addresses a cell of the gravity field.
type GravityCoords = field.GridCoords[components.Gravity]

// Bounds represents the simulation bounds.
type Bounds struct {
	Width, Height float32
}

// WorldMapping converts between world units and gravity field cells.
// The world spans [0, Width) x [0, Height) with Y up; grid row 0 is the top
// of the world so the solver's "top" and "bottom" rows line up with the
// screen.
type WorldMapping struct {
	cols, rows int
	cellSize   float32
	bounds     Bounds
}

// NewWorldMapping creates a mapping for a cols x rows grid of square cells.
func NewWorldMapping(cols, rows int, cellSize float32) *WorldMapping {
	return &WorldMapping{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		bounds: Bounds{
			Width:  float32(cols) * cellSize,
			Height: float32(rows) * cellSize,
		},
	}
}

// Bounds returns the world rectangle covered by the grid.
func (m *WorldMapping) Bounds() Bounds { return m.bounds }

// CellSize returns world units per cell.
func (m *WorldMapping) CellSize() float32 { return m.cellSize }

// Locate returns the cell containing (x, y). Cells are half-open, so y = 0
// is in the bottom row and y = Height is just above the grid. The result
// may lie outside the grid; check it with Solver.Contains before writing.
func (m *WorldMapping) Locate(x, y float32) GravityCoords {
	col := int(math.Floor(float64(x / m.cellSize)))
	row := m.rows - 1 - int(math.Floor(float64(y/m.cellSize)))
	return GravityCoords{X: col, Y: row}
}

// LocateClamped is Locate pinned to the nearest cell on the grid.
func (m *WorldMapping) LocateClamped(x, y float32) GravityCoords {
	c := m.Locate(x, y)
	c.X = clampInt(c.X, 0, m.cols-1)
	c.Y = clampInt(c.Y, 0, m.rows-1)
	return c
}

// CellCenter returns the world position at the middle of cell c.
func (m *WorldMapping) CellCenter(c GravityCoords) (x, y float32) {
	x = (float32(c.X) + 0.5) * m.cellSize
	y = m.bounds.Height - (float32(c.Y)+0.5)*m.cellSize
	return x, y
}

// Point wraps a world position as a field locator.
func (m *WorldMapping) Point(pos components.Position) WorldPoint {
	return WorldPoint{Position: pos, mapping: m}
}

// WorldPoint is a world position that knows how to find its cell. Points
// off the grid resolve to the nearest edge cell so bodies resting against a
// wall still sample a gradient.
type WorldPoint struct {
	components.Position
	mapping *WorldMapping
}

// GridCoords implements field.Locator.
func (p WorldPoint) GridCoords() GravityCoords {
	return p.mapping.LocateClamped(p.X, p.Y)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
