package components

import "github.com/jakecoffman/cp"

// Drifter marks an entity that is pulled by the gravity field.
type Drifter struct {
	Radius float32
	Mass   float32
}

// Body links an entity to its rigid body in the physics space.
// Nil until the physics system has registered the entity.
type Body struct {
	Body *cp.Body
}
