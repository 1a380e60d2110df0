package components

// Position is a world position in world units. Y points up: the top of the
// world is Y = world height.
type Position struct {
	X, Y float32
}

// Velocity is in world units per second.
type Velocity struct {
	X, Y float32
}

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float32 {
	return sqrt32(v.X*v.X + v.Y*v.Y)
}
