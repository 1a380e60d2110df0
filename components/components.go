// Package components defines ECS components for the simulation.
package components

import (
	"math"

	"github.com/pthm-cable/meditation/field"
)

// Attractor feeds its strength into the gravity field at its position.
// Cell and Written remember what was last sent to the field so the
// influence can be taken back by sending the negation.
type Attractor struct {
	Strength float32
	Cell     field.GridCoords[Gravity]
	Written  float32
	Placed   bool
}

// Wanderer moves an attractor sideways along a noise curve.
type Wanderer struct {
	Seed   float64 // Offset into the noise domain, distinct per wanderer
	Speed  float64 // Noise units per second
	Time   float64 // Accumulated noise time
	Margin float32 // Distance kept from the side walls
}

// Gravity tags the field that drifters fall through.
type Gravity struct{}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
