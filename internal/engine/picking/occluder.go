package picking

import (
	"sort"

	"github.com/Faultbox/cavegen/internal/engine/terrain"
	"github.com/Faultbox/cavegen/pkg/math"
)

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// boxPad widens node boxes so float32 rounding cannot hide a hit that the
// triangle test would accept.
const boxPad = 1e-4

type bvhNode struct {
	box         AABB
	left, right *bvhNode
	tris        []int32
}

// Hit describes the nearest intersection found by Raycast.
type Hit struct {
	T        float32
	Point    math.Vec3
	Triangle int
}

// MeshOccluder answers ray queries against a terrain mesh in world space.
// It stands in for an engine mesh collider.
type MeshOccluder struct {
	// CullBackFaces ignores triangles whose winding faces away from the ray,
	// like engine raycasts against mesh colliders. On by default.
	CullBackFaces bool

	corners []math.Vec3 // 3 per triangle
	root    *bvhNode
}

// NewMeshOccluder indexes every triangle of mesh, shifted by mesh.Origin.
func NewMeshOccluder(mesh *terrain.Mesh) *MeshOccluder {
	o := &MeshOccluder{CullBackFaces: true}
	if mesh == nil || mesh.IsEmpty() {
		return o
	}

	n := mesh.TriangleCount()
	o.corners = make([]math.Vec3, 0, 3*n)
	boxes := make([]AABB, n)
	tris := make([]int32, n)
	for t := 0; t < n; t++ {
		a, b, c := mesh.Triangle(t)
		a, b, c = a.Add(mesh.Origin), b.Add(mesh.Origin), c.Add(mesh.Origin)
		o.corners = append(o.corners, a, b, c)
		boxes[t] = NewAABB(a, b).Extend(c).Pad(boxPad)
		tris[t] = int32(t)
	}
	o.root = buildBVH(tris, boxes)
	return o
}

// buildBVH splits at the median centre along the longest axis.
func buildBVH(tris []int32, boxes []AABB) *bvhNode {
	box := boxes[tris[0]]
	for _, t := range tris[1:] {
		box = box.Union(boxes[t])
	}

	if len(tris) <= leafThreshold {
		return &bvhNode{box: box, tris: tris}
	}

	axis := box.LongestAxis()
	sort.Slice(tris, func(i, j int) bool {
		return boxes[tris[i]].Center().Array()[axis] < boxes[tris[j]].Center().Array()[axis]
	})

	mid := len(tris) / 2
	return &bvhNode{
		box:   box,
		left:  buildBVH(tris[:mid], boxes),
		right: buildBVH(tris[mid:], boxes),
	}
}

// TriangleCount returns the number of indexed triangles.
func (o *MeshOccluder) TriangleCount() int {
	return len(o.corners) / 3
}

// Raycast returns the nearest triangle hit within maxDist.
func (o *MeshOccluder) Raycast(r Ray, maxDist float32) (Hit, bool) {
	best := Hit{T: maxDist, Triangle: -1}
	if o.root == nil || r.Direction.LengthSq() == 0 || maxDist < 0 {
		return best, false
	}

	stack := []*bvhNode{o.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t, ok := r.IntersectAABB(node.box)
		if !ok || (t > best.T && !node.box.Contains(r.Origin)) {
			continue
		}
		if node.tris == nil {
			stack = append(stack, node.left, node.right)
			continue
		}
		for _, tri := range node.tris {
			a, b, c := o.corners[3*tri], o.corners[3*tri+1], o.corners[3*tri+2]
			if t, hit := r.IntersectTriangle(a, b, c, 0, best.T, o.CullBackFaces); hit {
				best.T = t
				best.Triangle = int(tri)
			}
		}
	}

	if best.Triangle < 0 {
		return best, false
	}
	best.Point = r.At(best.T)
	return best, true
}

// IsOccluded reports whether a ray from origin along dir hits the mesh
// within maxDist. dir need not be normalized; a zero dir never hits.
func (o *MeshOccluder) IsOccluded(origin, dir math.Vec3, maxDist float32) (bool, error) {
	_, hit := o.Raycast(NewRay(origin, dir), maxDist)
	return hit, nil
}
