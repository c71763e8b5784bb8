// Package export writes generated terrain and placements to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/cavegen/internal/engine/terrain"
	"github.com/Faultbox/cavegen/pkg/math"
)

// STLWriter renders a mesh to a binary STL file in world space.
type STLWriter struct {
	Path string
}

// NewSTLWriter returns a writer for path.
func NewSTLWriter(path string) *STLWriter {
	return &STLWriter{Path: path}
}

// Render writes every triangle of m, shifted by m.Origin.
func (w *STLWriter) Render(m *terrain.Mesh) error {
	if m == nil {
		return fmt.Errorf("export: nil mesh")
	}
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return err
	}
	if err := render.SaveSTL(w.Path, MeshTriangles(m)); err != nil {
		return fmt.Errorf("export: writing %s: %w", w.Path, err)
	}
	return nil
}

// MeshTriangles converts a mesh to sdfx triangles in world space.
func MeshTriangles(m *terrain.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		out = append(out, &sdf.Triangle3{
			toVec(a.Add(m.Origin)),
			toVec(b.Add(m.Origin)),
			toVec(c.Add(m.Origin)),
		})
	}
	return out
}

func toVec(p math.Vec3) v3.Vec {
	return v3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}
