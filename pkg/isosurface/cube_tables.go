package isosurface

import "github.com/Faultbox/cavegen/pkg/math"

// cubeEdges lists the corner pairs of the twelve cell edges.
var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// cubeFace is one side of the cell: corners in cyclic order and the
// outward normal.
type cubeFace struct {
	corners [4]int
	normal  math.Vec3
}

var cubeFaces = [6]cubeFace{
	{[4]int{0, 1, 2, 3}, math.Vec3{X: 0, Y: 0, Z: -1}},
	{[4]int{4, 5, 6, 7}, math.Vec3{X: 0, Y: 0, Z: 1}},
	{[4]int{0, 1, 5, 4}, math.Vec3{X: 0, Y: -1, Z: 0}},
	{[4]int{3, 2, 6, 7}, math.Vec3{X: 0, Y: 1, Z: 0}},
	{[4]int{0, 3, 7, 4}, math.Vec3{X: -1, Y: 0, Z: 0}},
	{[4]int{1, 2, 6, 5}, math.Vec3{X: 1, Y: 0, Z: 0}},
}

// cubeEdgeMask[c] has bit e set when edge e is crossed in configuration c.
// cubeTriangles[c] lists edge indices, three per triangle.
var (
	cubeEdgeMask  [256]uint16
	cubeTriangles [256][]int8
)

func init() {
	var edgeOf [8][8]int
	for i := range edgeOf {
		for j := range edgeOf[i] {
			edgeOf[i][j] = -1
		}
	}
	for e, ends := range cubeEdges {
		edgeOf[ends[0]][ends[1]] = e
		edgeOf[ends[1]][ends[0]] = e
	}

	for c := 0; c < 256; c++ {
		cubeEdgeMask[c], cubeTriangles[c] = buildCubeCase(c, &edgeOf)
	}
}

// buildCubeCase polygonises one configuration by walking the cell faces.
//
// On each face the crossed edges are joined by segments that cut empty
// corners away from solid ones; on an ambiguous face (two empty corners on
// a diagonal) each empty corner is cut off separately. Because the choice
// depends only on the face, neighbouring cells agree on shared faces.
// Each segment is directed so that, with the face normal n and the
// in-face direction f toward the empty side, it runs along f×n. Chaining
// segments head to tail yields closed loops wound counter-clockwise when
// seen from the empty side, which are then fanned into triangles.
func buildCubeCase(c int, edgeOf *[8][8]int) (uint16, []int8) {
	empty := func(i int) bool { return c&(1<<i) != 0 }

	var mask uint16
	for e, ends := range cubeEdges {
		if empty(ends[0]) != empty(ends[1]) {
			mask |= 1 << e
		}
	}
	if mask == 0 {
		return 0, nil
	}

	var next [12]int
	for i := range next {
		next[i] = -1
	}

	link := func(face cubeFace, a, b int, toEmpty math.Vec3) {
		d := edgeMidpoint(b).Sub(edgeMidpoint(a))
		if d.Dot(toEmpty.Cross(face.normal)) < 0 {
			a, b = b, a
		}
		next[a] = b
	}

	for _, face := range cubeFaces {
		var faceEdges [4]int
		for i := 0; i < 4; i++ {
			faceEdges[i] = edgeOf[face.corners[i]][face.corners[(i+1)%4]]
		}

		var crossed []int
		for _, e := range faceEdges {
			if mask&(1<<e) != 0 {
				crossed = append(crossed, e)
			}
		}

		switch len(crossed) {
		case 2:
			var emptySum, solidSum math.Vec3
			var emptyN, solidN float32
			for _, k := range face.corners {
				if empty(k) {
					emptySum = emptySum.Add(cubeCorners[k])
					emptyN++
				} else {
					solidSum = solidSum.Add(cubeCorners[k])
					solidN++
				}
			}
			toEmpty := emptySum.Scale(1 / emptyN).Sub(solidSum.Scale(1 / solidN))
			link(face, crossed[0], crossed[1], toEmpty)
		case 4:
			center := faceCenter(face)
			for i, k := range face.corners {
				if !empty(k) {
					continue
				}
				before := faceEdges[(i+3)%4]
				after := faceEdges[i]
				link(face, before, after, cubeCorners[k].Sub(center))
			}
		}
	}

	var tris []int8
	var seen [12]bool
	for start := 0; start < 12; start++ {
		if mask&(1<<start) == 0 || seen[start] {
			continue
		}
		var loop []int
		for e := start; !seen[e]; e = next[e] {
			seen[e] = true
			loop = append(loop, e)
		}
		for i := 1; i+1 < len(loop); i++ {
			tris = append(tris, int8(loop[0]), int8(loop[i]), int8(loop[i+1]))
		}
	}
	return mask, tris
}

func edgeMidpoint(e int) math.Vec3 {
	a := cubeCorners[cubeEdges[e][0]]
	b := cubeCorners[cubeEdges[e][1]]
	return a.Add(b).Scale(0.5)
}

func faceCenter(f cubeFace) math.Vec3 {
	var sum math.Vec3
	for _, k := range f.corners {
		sum = sum.Add(cubeCorners[k])
	}
	return sum.Scale(0.25)
}
