package field

// SmoothOut runs one in-place Gauss-Seidel sweep in row-major order and
// returns |delta| of the last Average cell visited. The return value is a
// rough convergence signal only: it is neither a sum nor a maximum over the
// grid. Use Residual for a full picture.
func (s *Solver[T]) SmoothOut() float32 {
	var correction float32
	w, h := s.width, s.height
	pts := s.points

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			if pts[i].Kind == Source {
				continue
			}
			old := pts[i].Value
			delta := s.stencil(x, y, old)
			pts[i].Value = old + delta*s.overcorrection

			correction = abs32(delta)
		}
	}

	s.sweeps++
	s.lastCorrection = correction
	return correction
}

// Residual writes the stencil delta of every cell into dst (0 for sources)
// without touching the grid. dst is grown if needed and returned.
func (s *Solver[T]) Residual(dst []float32) []float32 {
	n := len(s.points)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	for y := 0; y < s.height; y++ {
		row := y * s.width
		for x := 0; x < s.width; x++ {
			i := row + x
			p := s.points[i]
			if p.Kind == Source {
				dst[i] = 0
				continue
			}
			dst[i] = s.stencil(x, y, p.Value)
		}
	}
	return dst
}

// stencil returns the 4-neighbour Laplacian step for the cell at (x, y).
// A neighbour off the grid counts as the cell itself, so edges contribute no
// flux in that direction.
func (s *Solver[T]) stencil(x, y int, own float32) float32 {
	w := s.width
	pts := s.points
	i := y*w + x

	above, below, left, right := own, own, own, own
	if y > 0 {
		above = pts[i-w].Value
	}
	if y+1 < s.height {
		below = pts[i+w].Value
	}
	if x > 0 {
		left = pts[i-1].Value
	}
	if x+1 < w {
		right = pts[i+1].Value
	}

	sum := above + below + left + right
	return (sum - 4*own) / 4
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
