// Package terrain assembles renderable meshes from extracted isosurfaces.
package terrain

import "github.com/Faultbox/cavegen/pkg/math"

// Vertex represents a terrain mesh vertex with all attributes.
type Vertex struct {
	Position math.Vec3 // voxel index space
	Normal   math.Vec3
	UV       math.Vec2
}

// Mesh holds the complete terrain mesh ready for a renderer.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds

	// Origin is the world offset of the mesh: (-w/2, -h/2, -d/2) in
	// integer division of the grid size.
	Origin math.Vec3

	// FallbackNormals counts vertices whose normal came from triangle
	// winding instead of the field gradient.
	FallbackNormals int
}

// Bounds holds the axis-aligned bounding box of the terrain in mesh space.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Size is the voxel grid a mesh was extracted from.
type Size struct {
	Width  int
	Height int
	Depth  int
}

// Valid reports whether every axis is at least 2.
func (s Size) Valid() bool {
	return s.Width >= 2 && s.Height >= 2 && s.Depth >= 2
}

// Origin returns the world offset that centres a grid of this size.
func (s Size) Origin() math.Vec3 {
	return math.Vec3{
		X: float32(-(s.Width / 2)),
		Y: float32(-(s.Height / 2)),
		Z: float32(-(s.Depth / 2)),
	}
}
