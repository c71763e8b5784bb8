package generator

import (
	"github.com/Faultbox/cavegen/internal/engine/terrain"
	"github.com/Faultbox/cavegen/internal/scatter"
)

// Renderer consumes the assembled mesh.
type Renderer interface {
	Render(m *terrain.Mesh) error
}

// Instantiator consumes placements one at a time.
type Instantiator interface {
	Instantiate(p scatter.Placement) error
}

// Publish hands a result to its consumers: the mesh first, then every
// placement in acceptance order. Either consumer may be nil. The first
// failure stops publishing.
func Publish(res *Result, renderer Renderer, instantiator Instantiator) error {
	if res == nil {
		return nil
	}
	if renderer != nil && res.Mesh != nil {
		if err := renderer.Render(res.Mesh); err != nil {
			return &CollaboratorError{Phase: PhaseRender, Index: -1, Err: err}
		}
	}
	if instantiator == nil {
		return nil
	}
	for i, p := range res.Placements {
		if err := instantiator.Instantiate(p); err != nil {
			return &CollaboratorError{Phase: PhaseInstantiate, Index: i, Err: err}
		}
	}
	return nil
}
