package field

// GradientAt returns the one-sided difference of the field at loc.
//
// x is right-minus-here; on the right edge it falls back to left-minus-here,
// as if the last value continued forever, which flips the sign there.
// y is here-minus-below; on the bottom edge it falls back to
// above-minus-here. With row 0 at the top of a y-up world, the vector
// points toward higher values everywhere except along the right edge.
//
// Panics if loc maps outside the grid.
func (s *Solver[T]) GradientAt(loc Locator[T]) Vec2 {
	c := loc.GridCoords()
	i := s.index(c)
	w := s.width
	pts := s.points
	at := pts[i].Value

	var g Vec2
	if c.X+1 < w {
		g.X = pts[i+1].Value - at
	} else {
		g.X = pts[i-1].Value - at
	}

	if c.Y+1 < s.height {
		g.Y = at - pts[i+w].Value
	} else {
		g.Y = pts[i-w].Value - at
	}
	return g
}
