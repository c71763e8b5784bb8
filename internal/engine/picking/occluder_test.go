package picking

import (
	"math/rand"
	"testing"

	"github.com/Faultbox/cavegen/internal/engine/terrain"
	"github.com/Faultbox/cavegen/pkg/isosurface"
	"github.com/Faultbox/cavegen/pkg/math"
	"github.com/Faultbox/cavegen/pkg/voxel"
)

// floor is a unit quad at y=0 facing +y.
func floor(origin math.Vec3) *terrain.Mesh {
	pos := []math.Vec3{{}, {Z: 1}, {X: 1, Z: 1}, {X: 1}}
	m := &terrain.Mesh{Indices: []uint32{0, 1, 2, 0, 2, 3}, Origin: origin}
	for _, p := range pos {
		m.Vertices = append(m.Vertices, terrain.Vertex{Position: p, Normal: math.Up})
	}
	return m
}

func TestMeshOccluderFloor(t *testing.T) {
	o := NewMeshOccluder(floor(math.Vec3{}))
	if o.TriangleCount() != 2 {
		t.Fatalf("TriangleCount = %d", o.TriangleCount())
	}

	tests := []struct {
		name    string
		origin  math.Vec3
		dir     math.Vec3
		maxDist float32
		want    bool
	}{
		{"down onto floor", math.Vec3{X: 0.5, Y: 1, Z: 0.5}, math.Vec3{Y: -1}, 2, true},
		{"short probe", math.Vec3{X: 0.5, Y: 1, Z: 0.5}, math.Vec3{Y: -1}, 0.5, false},
		{"unnormalized direction", math.Vec3{X: 0.5, Y: 1, Z: 0.5}, math.Vec3{Y: -10}, 1.5, true},
		{"from below", math.Vec3{X: 0.5, Y: -1, Z: 0.5}, math.Vec3{Y: 1}, 2, false},
		{"beside", math.Vec3{X: 1.5, Y: 1, Z: 0.5}, math.Vec3{Y: -1}, 2, false},
		{"zero direction", math.Vec3{X: 0.5, Y: 1, Z: 0.5}, math.Vec3{}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.IsOccluded(tt.origin, tt.dir, tt.maxDist)
			if err != nil {
				t.Fatalf("IsOccluded: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsOccluded = %v, want %v", got, tt.want)
			}
		})
	}

	o.CullBackFaces = false
	if hit, _ := o.IsOccluded(math.Vec3{X: 0.5, Y: -1, Z: 0.5}, math.Vec3{Y: 1}, 2); !hit {
		t.Error("back face should hit with culling off")
	}
}

func TestMeshOccluderUsesOrigin(t *testing.T) {
	o := NewMeshOccluder(floor(math.Vec3{X: -2, Y: -2, Z: -2}))
	hit, ok := o.Raycast(NewRay(math.Vec3{X: -1.5, Y: 0, Z: -1.5}, math.Vec3{Y: -1}), 5)
	if !ok {
		t.Fatal("expected a hit on the shifted floor")
	}
	if !near(hit.T, 2) || !near(hit.Point.Y, -2) {
		t.Errorf("hit = %+v", hit)
	}
}

func TestMeshOccluderEmpty(t *testing.T) {
	for _, m := range []*terrain.Mesh{nil, {}} {
		o := NewMeshOccluder(m)
		if hit, err := o.IsOccluded(math.Vec3{}, math.Up, 100); hit || err != nil {
			t.Errorf("empty occluder: hit=%v err=%v", hit, err)
		}
	}
}

// The BVH must agree with a brute-force scan over every triangle.
func TestRaycastMatchesLinearScan(t *testing.T) {
	const n = 10
	f, err := voxel.NewField(n, n, n)
	if err != nil {
		t.Fatal(err)
	}
	c := float32(n-1) / 2
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				d := math.Vec3{X: float32(x) - c, Y: float32(y) - c, Z: float32(z) - c}.Length()
				f.Set(x, y, z, 3.4-d)
			}
		}
	}
	raw, err := (&isosurface.MarchingCubes{}).Generate(f, 0)
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := terrain.Assemble(raw, f, terrain.Options{})
	if err != nil {
		t.Fatal(err)
	}
	o := NewMeshOccluder(mesh)
	o.CullBackFaces = false

	rng := rand.New(rand.NewSource(7))
	randVec := func(scale float32) math.Vec3 {
		return math.Vec3{
			X: (rng.Float32()*2 - 1) * scale,
			Y: (rng.Float32()*2 - 1) * scale,
			Z: (rng.Float32()*2 - 1) * scale,
		}
	}

	hits := 0
	for i := 0; i < 300; i++ {
		r := NewRay(randVec(6), randVec(1))
		if r.Direction.LengthSq() == 0 {
			continue
		}
		got, ok := o.Raycast(r, 20)

		want := float32(20)
		found := false
		for tri := 0; tri < o.TriangleCount(); tri++ {
			a, b, cc := o.corners[3*tri], o.corners[3*tri+1], o.corners[3*tri+2]
			if tt, hit := r.IntersectTriangle(a, b, cc, 0, want, false); hit {
				want = tt
				found = true
			}
		}
		if ok != found {
			t.Fatalf("ray %d: bvh hit=%v, scan hit=%v", i, ok, found)
		}
		if ok {
			hits++
			if !near(got.T, want) {
				t.Fatalf("ray %d: bvh t=%v, scan t=%v", i, got.T, want)
			}
		}
	}
	if hits == 0 {
		t.Error("no ray hit the sphere; test is not exercising the tree")
	}
}
