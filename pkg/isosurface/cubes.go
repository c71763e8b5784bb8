package isosurface

import (
	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// Compile-time interface check.
var _ Extractor = (*MarchingCubes)(nil)

// MarchingCubes extracts an isosurface cell by cell using the cube case
// table.
type MarchingCubes struct{}

// Mode returns Cubes.
func (*MarchingCubes) Mode() Mode { return Cubes }

// Generate polygonises field at isovalue.
func (mc *MarchingCubes) Generate(field *voxel.Field, isovalue float32) (*RawMesh, error) {
	if _, _, _, err := checkField(field); err != nil {
		return nil, err
	}

	b := newBuilder()
	var edgeVerts [12]math.Vec3

	march(field, func(c *cell) {
		b.mesh.Stats.Cells++

		idx := c.caseIndex(isovalue)
		mask := cubeEdgeMask[idx]
		if mask == 0 {
			return
		}
		b.mesh.Stats.Crossed++

		for e, ends := range cubeEdges {
			if mask&(1<<e) == 0 {
				continue
			}
			i, j := ends[0], ends[1]
			edgeVerts[e] = interpolate(c.pos[i], c.pos[j], c.val[i], c.val[j], isovalue)
		}

		tris := cubeTriangles[idx]
		for t := 0; t+2 < len(tris); t += 3 {
			b.triangle(edgeVerts[tris[t]], edgeVerts[tris[t+1]], edgeVerts[tris[t+2]])
		}
	})

	return b.mesh, nil
}
