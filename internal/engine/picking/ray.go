// Package picking provides ray casting against generated terrain.
package picking

import (
	gomath "math"

	"github.com/Faultbox/cavegen/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay returns a ray with a normalized direction. A zero direction stays
// zero and hits nothing.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates an AABB spanning two corners given in any order.
func NewAABB(a, b math.Vec3) AABB {
	box := AABB{Min: a, Max: a}
	return box.Extend(b)
}

// Extend grows the box to contain p.
func (b AABB) Extend(p math.Vec3) AABB {
	b.Min.X = min(b.Min.X, p.X)
	b.Min.Y = min(b.Min.Y, p.Y)
	b.Min.Z = min(b.Min.Z, p.Z)
	b.Max.X = max(b.Max.X, p.X)
	b.Max.Y = max(b.Max.Y, p.Y)
	b.Max.Z = max(b.Max.Z, p.Z)
	return b
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return b.Extend(other.Min).Extend(other.Max)
}

// Pad grows the box by d on every side.
func (b AABB) Pad(d float32) AABB {
	pad := math.Vec3{X: d, Y: d, Z: d}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// Contains reports whether p lies inside the box or on its boundary.
func (b AABB) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the centre of the box.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// LongestAxis returns 0, 1 or 2 for the box's longest extent.
func (b AABB) LongestAxis() int {
	e := b.Max.Sub(b.Min)
	switch {
	case e.X >= e.Y && e.X >= e.Z:
		return 0
	case e.Y >= e.Z:
		return 1
	default:
		return 2
	}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] != 0 {
			t1 := (lo[axis] - origin[axis]) / dir[axis]
			t2 := (hi[axis] - origin[axis]) / dir[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
			return 0, false
		}
	}

	// Check if intersection is valid
	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// triangleEpsilon bounds the determinant below which a ray counts as
// parallel to a triangle.
const triangleEpsilon = 1e-8

// IntersectTriangle tests the ray against triangle (a, b, c) with the
// Möller-Trumbore algorithm. Only hits with tMin <= t <= tMax count. When
// cullBack is set, triangles whose winding faces away from the ray are
// skipped.
func (r Ray) IntersectTriangle(a, b, c math.Vec3, tMin, tMax float32, cullBack bool) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	h := r.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// det > 0 means the ray travels against the winding normal.
	if cullBack {
		if det < triangleEpsilon {
			return 0, false
		}
	} else if det > -triangleEpsilon && det < triangleEpsilon {
		return 0, false
	}

	f := 1 / det
	s := r.Origin.Sub(a)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return 0, false
	}
	return t, true
}
