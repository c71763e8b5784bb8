package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/cavegen/pkg/isosurface"
	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// ErrNoGeometry is returned when Assemble is given no extractor output.
var ErrNoGeometry = errors.New("terrain: no raw mesh")

// Options controls mesh assembly.
type Options struct {
	// Size is the grid the raw mesh was extracted from. It is required when
	// no field is passed; otherwise the field's dimensions are used.
	Size Size
	// SmoothFallback welds coincident vertices when normals have to be
	// rebuilt from triangle winding.
	SmoothFallback bool
}

// Assemble builds a mesh from extractor output. Vertex normals are sampled
// from the field gradient at the vertex position normalized by the grid
// size. Without a field, normals are rebuilt from the triangles.
func Assemble(raw *isosurface.RawMesh, field *voxel.Field, opts Options) (*Mesh, error) {
	if raw == nil {
		return nil, ErrNoGeometry
	}
	size := opts.Size
	if field != nil {
		w, h, d := field.Dims()
		size = Size{Width: w, Height: h, Depth: d}
	}
	if !size.Valid() {
		return nil, fmt.Errorf("terrain: grid %dx%dx%d: %w", size.Width, size.Height, size.Depth, voxel.ErrInvalidDimensions)
	}
	if len(raw.Indices)%3 != 0 {
		return nil, fmt.Errorf("terrain: index count %d is not a multiple of 3", len(raw.Indices))
	}
	for i, idx := range raw.Indices {
		if int(idx) >= len(raw.Vertices) {
			return nil, fmt.Errorf("terrain: index %d at %d out of range (%d vertices)", idx, i, len(raw.Vertices))
		}
	}

	mesh := &Mesh{
		Vertices: make([]Vertex, len(raw.Vertices)),
		Indices:  append([]uint32(nil), raw.Indices...),
		Origin:   size.Origin(),
	}

	scale := math.Vec3{
		X: 1 / float32(size.Width-1),
		Y: 1 / float32(size.Height-1),
		Z: 1 / float32(size.Depth-1),
	}
	missing := make([]bool, len(raw.Vertices))
	for i, p := range raw.Vertices {
		v := &mesh.Vertices[i]
		v.Position = p
		if field != nil {
			v.Normal = field.Normal(p.X*scale.X, p.Y*scale.Y, p.Z*scale.Z)
		}
		missing[i] = v.Normal.LengthSq() == 0
	}

	// Vertices without a usable gradient take the normals of the triangles
	// that use them.
	if field == nil || anyTrue(missing) {
		mesh.FallbackNormals = recalculateNormals(mesh, missing)
		if field == nil && opts.SmoothFallback {
			SmoothNormals(mesh.Vertices)
		}
	}

	for i := range mesh.Vertices {
		mesh.Vertices[i].UV = ProjectUV(mesh.Vertices[i].Position, mesh.Vertices[i].Normal, size)
	}

	mesh.Bounds = computeBounds(mesh.Vertices)
	return mesh, nil
}

// ProjectUV maps a position onto the plane perpendicular to the dominant
// axis of normal. Ties go to x, then y.
func ProjectUV(p, normal math.Vec3, size Size) math.Vec2 {
	n := normal.Abs()
	w, h, d := float32(size.Width), float32(size.Height), float32(size.Depth)
	switch {
	case n.X >= n.Y && n.X >= n.Z:
		return math.Vec2{X: p.Y / h, Y: p.Z / d}
	case n.Y >= n.Z:
		return math.Vec2{X: p.X / w, Y: p.Z / d}
	default:
		return math.Vec2{X: p.X / w, Y: p.Y / h}
	}
}

// RecalculateNormals replaces every vertex normal with the normalized sum
// of the face normals of the triangles that reference it.
func RecalculateNormals(mesh *Mesh) {
	all := make([]bool, len(mesh.Vertices))
	for i := range all {
		all[i] = true
	}
	mesh.FallbackNormals = recalculateNormals(mesh, all)
}

// recalculateNormals rebuilds the normals of the selected vertices and
// returns how many were replaced.
func recalculateNormals(mesh *Mesh, selected []bool) int {
	sums := make([]math.Vec3, len(mesh.Vertices))
	for t := 0; t < mesh.TriangleCount(); t++ {
		// Area weighted: the cross product is not normalized.
		n := mesh.faceCross(t)
		for k := 0; k < 3; k++ {
			idx := mesh.Indices[3*t+k]
			sums[idx] = sums[idx].Add(n)
		}
	}
	count := 0
	for i, sel := range selected {
		if !sel {
			continue
		}
		mesh.Vertices[i].Normal = sums[i].Normalize()
		count++
	}
	return count
}

// SmoothNormals averages normals at shared vertex positions.
// Extracted meshes carry one vertex per triangle corner, so this is what
// turns flat fallback normals into smooth ones.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		p := vertices[i].Position
		key := [3]int32{
			int32(p.X / epsilon),
			int32(p.Y / epsilon),
			int32(p.Z / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, indices := range posMap {
		if len(indices) < 2 {
			continue
		}

		var sum math.Vec3
		for _, idx := range indices {
			sum = sum.Add(vertices[idx].Normal)
		}
		if sum.LengthSq() < 1e-8 {
			continue
		}

		avg := sum.Normalize()
		for _, idx := range indices {
			vertices[idx].Normal = avg
		}
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// TriangleNormal returns the unit normal implied by the winding of triangle t.
func (m *Mesh) TriangleNormal(t int) math.Vec3 {
	return m.faceCross(t).Normalize()
}

// Triangle returns the mesh-space corners of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c math.Vec3) {
	return m.Vertices[m.Indices[3*t]].Position,
		m.Vertices[m.Indices[3*t+1]].Position,
		m.Vertices[m.Indices[3*t+2]].Position
}

// WorldPositions returns every vertex position shifted by Origin.
func (m *Mesh) WorldPositions() []math.Vec3 {
	out := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position.Add(m.Origin)
	}
	return out
}

// Normals returns every vertex normal.
func (m *Mesh) Normals() []math.Vec3 {
	out := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Normal
	}
	return out
}

func (m *Mesh) faceCross(t int) math.Vec3 {
	a, b, c := m.Triangle(t)
	return b.Sub(a).Cross(c.Sub(a))
}

// Helper functions

func computeBounds(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		updateBounds(&b, v.Position)
	}
	return b
}

func updateBounds(b *Bounds, p math.Vec3) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.Z < b.Min.Z {
		b.Min.Z = p.Z
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
	if p.Z > b.Max.Z {
		b.Max.Z = p.Z
	}
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
