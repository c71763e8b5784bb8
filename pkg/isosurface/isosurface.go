// Package isosurface extracts triangle meshes from voxel fields.
//
// Two strategies share one contract: MarchingCubes polygonises each unit
// cell through a 256-case table, MarchingTetrahedra splits each cell into
// six tetrahedra first. Both use the same sign convention and the same
// edge interpolation:
//
//   - a sample is empty when value <= isovalue and solid otherwise;
//   - a crossing on an edge with endpoint values a, b sits at
//     (isovalue-a)/(b-a) of the way from a to b;
//   - triangles wind counter-clockwise seen from the empty side, so
//     (v1-v0)×(v2-v0) points toward lower field values, the same
//     direction as voxel.Field.Normal.
//
// Vertices are not shared: every triangle emits its own three vertices.
package isosurface

import (
	"fmt"
	"strings"

	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// Mode selects an extraction strategy.
type Mode int

const (
	// Cubes is classic marching cubes.
	Cubes Mode = iota
	// Tetrahedra is marching tetrahedra over a six-tetrahedron cell split.
	Tetrahedra
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case Cubes:
		return "cubes"
	case Tetrahedra:
		return "tetrahedra"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. Singular forms are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cubes", "cube":
		return Cubes, nil
	case "tetrahedra", "tetrahedron":
		return Tetrahedra, nil
	default:
		return 0, fmt.Errorf("isosurface: unknown mode %q", s)
	}
}

// Stats describes one extraction run.
type Stats struct {
	Cells      int // cells visited
	Crossed    int // cells the surface passes through
	Triangles  int // triangles emitted
	Degenerate int // zero-area triangles dropped
}

// RawMesh is extractor output: positions in voxel index space and triangle
// index triples.
type RawMesh struct {
	Vertices []math.Vec3
	Indices  []uint32
	Stats    Stats
}

// TriangleCount returns the number of triangles.
func (m *RawMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Extractor turns a field into a raw triangle mesh.
type Extractor interface {
	Generate(field *voxel.Field, isovalue float32) (*RawMesh, error)
	Mode() Mode
}

// New returns the extractor for mode.
func New(mode Mode) (Extractor, error) {
	switch mode {
	case Cubes:
		return &MarchingCubes{}, nil
	case Tetrahedra:
		return &MarchingTetrahedra{}, nil
	default:
		return nil, fmt.Errorf("isosurface: unknown mode %d", int(mode))
	}
}

// checkField fails fast on fields that cannot be polygonised.
func checkField(field *voxel.Field) (w, h, d int, err error) {
	if field == nil {
		return 0, 0, 0, fmt.Errorf("isosurface: nil field: %w", voxel.ErrInvalidDimensions)
	}
	w, h, d = field.Dims()
	if w < voxel.MinDimension || h < voxel.MinDimension || d < voxel.MinDimension {
		return 0, 0, 0, fmt.Errorf("isosurface: %dx%dx%d: %w", w, h, d, voxel.ErrInvalidDimensions)
	}
	return w, h, d, nil
}

// crossingFraction locates the isovalue between endpoint values a and b.
// The result is clamped to [0,1]; equal endpoints yield the midpoint.
func crossingFraction(a, b, isovalue float32) float32 {
	delta := b - a
	if delta == 0 {
		return 0.5
	}
	t := (isovalue - a) / delta
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// interpolate returns the crossing point on the edge pa-pb. Endpoints are
// put in a fixed spatial order first, so an edge shared by neighbouring
// cells yields bit-identical positions from either side.
func interpolate(pa, pb math.Vec3, va, vb, isovalue float32) math.Vec3 {
	if less(pb, pa) {
		pa, pb = pb, pa
		va, vb = vb, va
	}
	t := crossingFraction(va, vb, isovalue)
	return math.Vec3{
		X: pa.X + t*(pb.X-pa.X),
		Y: pa.Y + t*(pb.Y-pa.Y),
		Z: pa.Z + t*(pb.Z-pa.Z),
	}
}

func less(a, b math.Vec3) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// minDoubleAreaSq is the squared cross-product length below which a
// triangle counts as degenerate.
const minDoubleAreaSq = 1e-12

// builder accumulates triangles into a RawMesh.
type builder struct {
	mesh *RawMesh
}

func newBuilder() *builder {
	return &builder{mesh: &RawMesh{}}
}

// triangle appends a, b, c as three fresh vertices unless the triangle has
// no area.
func (b *builder) triangle(v0, v1, v2 math.Vec3) {
	if v1.Sub(v0).Cross(v2.Sub(v0)).LengthSq() < minDoubleAreaSq {
		b.mesh.Stats.Degenerate++
		return
	}
	base := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, v0, v1, v2)
	b.mesh.Indices = append(b.mesh.Indices, base, base+1, base+2)
	b.mesh.Stats.Triangles++
}

// cubeCorners are the unit-cell corner offsets.
var cubeCorners = [8]math.Vec3{
	{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
}

// cell holds the corner positions and values of one grid cell.
type cell struct {
	pos [8]math.Vec3
	val [8]float32
}

// load reads the cell whose minimum corner is (x, y, z).
func (c *cell) load(field *voxel.Field, x, y, z int) {
	base := math.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
	for i, off := range cubeCorners {
		c.pos[i] = base.Add(off)
		c.val[i] = field.Get(x+int(off.X), y+int(off.Y), z+int(off.Z))
	}
}

// caseIndex returns the 8-bit configuration: bit i set when corner i is empty.
func (c *cell) caseIndex(isovalue float32) int {
	idx := 0
	for i, v := range c.val {
		if v <= isovalue {
			idx |= 1 << i
		}
	}
	return idx
}

// march visits every cell in x, y, z order.
func march(field *voxel.Field, visit func(c *cell)) {
	w, h, d := field.Dims()
	var c cell
	for x := 0; x < w-1; x++ {
		for y := 0; y < h-1; y++ {
			for z := 0; z < d-1; z++ {
				c.load(field, x, y, z)
				visit(&c)
			}
		}
	}
}
