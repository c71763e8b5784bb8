package isosurface

import (
	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// Compile-time interface check.
var _ Extractor = (*MarchingTetrahedra)(nil)

// cubeTetrahedra splits a cell into six tetrahedra sharing the 0-6
// diagonal. Every cell uses the same split, so face diagonals line up
// between neighbours.
var cubeTetrahedra = [6][4]int{
	{0, 5, 1, 6},
	{0, 1, 2, 6},
	{0, 2, 3, 6},
	{0, 3, 7, 6},
	{0, 7, 4, 6},
	{0, 4, 5, 6},
}

// MarchingTetrahedra extracts an isosurface by polygonising six
// tetrahedra per cell. It yields more triangles than MarchingCubes but has
// no ambiguous cases.
type MarchingTetrahedra struct{}

// Mode returns Tetrahedra.
func (*MarchingTetrahedra) Mode() Mode { return Tetrahedra }

// Generate polygonises field at isovalue.
func (mt *MarchingTetrahedra) Generate(field *voxel.Field, isovalue float32) (*RawMesh, error) {
	if _, _, _, err := checkField(field); err != nil {
		return nil, err
	}

	b := newBuilder()

	march(field, func(c *cell) {
		b.mesh.Stats.Cells++

		idx := c.caseIndex(isovalue)
		if idx == 0 || idx == 0xff {
			return
		}
		b.mesh.Stats.Crossed++

		for _, tet := range cubeTetrahedra {
			mt.tetrahedron(b, c, tet, isovalue)
		}
	})

	return b.mesh, nil
}

func (mt *MarchingTetrahedra) tetrahedron(b *builder, c *cell, tet [4]int, isovalue float32) {
	var empty, solid []int
	for _, k := range tet {
		if c.val[k] <= isovalue {
			empty = append(empty, k)
		} else {
			solid = append(solid, k)
		}
	}
	if len(empty) == 0 || len(solid) == 0 {
		return
	}

	toEmpty := centroid(c, empty).Sub(centroid(c, solid))
	cross := func(i, j int) math.Vec3 {
		return interpolate(c.pos[i], c.pos[j], c.val[i], c.val[j], isovalue)
	}

	switch len(empty) {
	case 1, 3:
		lone, others := empty[0], solid
		if len(empty) == 3 {
			lone, others = solid[0], empty
		}
		v0 := cross(lone, others[0])
		v1 := cross(lone, others[1])
		v2 := cross(lone, others[2])
		if v1.Sub(v0).Cross(v2.Sub(v0)).Dot(toEmpty) < 0 {
			v1, v2 = v2, v1
		}
		b.triangle(v0, v1, v2)

	case 2:
		e0, e1 := empty[0], empty[1]
		s0, s1 := solid[0], solid[1]
		// Cycle around the quad: consecutive points share a corner.
		q := [4]math.Vec3{cross(e0, s0), cross(e0, s1), cross(e1, s1), cross(e1, s0)}
		if q[2].Sub(q[0]).Cross(q[3].Sub(q[1])).Dot(toEmpty) < 0 {
			q[1], q[3] = q[3], q[1]
		}
		b.triangle(q[0], q[1], q[2])
		b.triangle(q[0], q[2], q[3])
	}
}

func centroid(c *cell, corners []int) math.Vec3 {
	var sum math.Vec3
	for _, k := range corners {
		sum = sum.Add(c.pos[k])
	}
	return sum.Scale(1 / float32(len(corners)))
}
