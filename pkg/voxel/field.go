// Package voxel provides a dense 3D scalar field with trilinear sampling
// and gradient-based surface normals.
//
// Field coordinates come in two flavours: integer voxel indices in
// [0,width)×[0,height)×[0,depth), and normalized coordinates in [0,1]^3
// where 0 maps to the first voxel and 1 to the last along each axis.
package voxel

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/cavegen/pkg/math"
)

// MinDimension is the smallest extent a field may have along any axis.
// Normalized coordinates divide by (dimension-1).
const MinDimension = 2

// gradientStep is the central-difference step in normalized space.
const gradientStep = 0.005

// ErrInvalidDimensions is returned when a field is too small along an axis.
var ErrInvalidDimensions = errors.New("voxel: invalid field dimensions")

// Sampler produces the scalar field value at normalized coordinates.
// Implementations must be deterministic.
type Sampler interface {
	Sample(u, v, w float32) (float32, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(u, v, w float32) (float32, error)

// Sample calls f(u, v, w).
func (f SamplerFunc) Sample(u, v, w float32) (float32, error) {
	return f(u, v, w)
}

// SampleError reports a sampler failure at a specific voxel.
type SampleError struct {
	Index   int // flat voxel index (x + y*width + z*width*height)
	X, Y, Z int
	Err     error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("voxel: sample (%d,%d,%d) index %d: %v", e.X, e.Y, e.Z, e.Index, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Field is a dense grid of float32 densities.
type Field struct {
	width, height, depth int
	values               []float32
}

// NewField allocates a zero-filled field. Every dimension must be at least
// MinDimension.
func NewField(width, height, depth int) (*Field, error) {
	if width < MinDimension || height < MinDimension || depth < MinDimension {
		return nil, fmt.Errorf("%w: %dx%dx%d (each axis must be >= %d)",
			ErrInvalidDimensions, width, height, depth, MinDimension)
	}
	return &Field{
		width:  width,
		height: height,
		depth:  depth,
		values: make([]float32, width*height*depth),
	}, nil
}

// Dims returns the field extents.
func (f *Field) Dims() (width, height, depth int) {
	return f.width, f.height, f.depth
}

// Len returns the number of voxels.
func (f *Field) Len() int {
	return len(f.values)
}

// Index returns the flat index of (x, y, z).
func (f *Field) Index(x, y, z int) int {
	return x + y*f.width + z*f.width*f.height
}

func (f *Field) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < f.width && y < f.height && z < f.depth
}

// Get returns the value at (x, y, z). Out-of-range indices are a
// programming error and panic, like slice indexing.
func (f *Field) Get(x, y, z int) float32 {
	if !f.inBounds(x, y, z) {
		panic(fmt.Sprintf("voxel: Get(%d,%d,%d) out of range %dx%dx%d", x, y, z, f.width, f.height, f.depth))
	}
	return f.values[f.Index(x, y, z)]
}

// Set stores value at (x, y, z). Out-of-range indices panic.
func (f *Field) Set(x, y, z int, value float32) {
	if !f.inBounds(x, y, z) {
		panic(fmt.Sprintf("voxel: Set(%d,%d,%d) out of range %dx%dx%d", x, y, z, f.width, f.height, f.depth))
	}
	f.values[f.Index(x, y, z)] = value
}

// at returns the value with indices clamped to the grid.
func (f *Field) at(x, y, z int) float32 {
	x = clampi(x, 0, f.width-1)
	y = clampi(y, 0, f.height-1)
	z = clampi(z, 0, f.depth-1)
	return f.values[x+y*f.width+z*f.width*f.height]
}

// Fill evaluates s at every voxel's normalized coordinate, iterating x, then
// y, then z. The first sampler error aborts the fill and is returned as a
// *SampleError.
func (f *Field) Fill(s Sampler) error {
	fw := float32(f.width - 1)
	fh := float32(f.height - 1)
	fd := float32(f.depth - 1)

	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			for z := 0; z < f.depth; z++ {
				v, err := s.Sample(float32(x)/fw, float32(y)/fh, float32(z)/fd)
				if err != nil {
					return &SampleError{Index: f.Index(x, y, z), X: x, Y: y, Z: z, Err: err}
				}
				f.values[f.Index(x, y, z)] = v
			}
		}
	}
	return nil
}

// Range returns the smallest and largest stored values.
func (f *Field) Range() (lo, hi float32) {
	lo, hi = f.values[0], f.values[0]
	for _, v := range f.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Sample trilinearly interpolates the field at normalized coordinates.
// Coordinates outside [0,1] are clamped to the border voxels.
func (f *Field) Sample(u, v, w float32) float32 {
	x := u * float32(f.width-1)
	y := v * float32(f.height-1)
	z := w * float32(f.depth-1)

	xi := int(gomath.Floor(float64(x)))
	yi := int(gomath.Floor(float64(y)))
	zi := int(gomath.Floor(float64(z)))

	tx := clamp01(x - float32(xi))
	ty := clamp01(y - float32(yi))
	tz := clamp01(z - float32(zi))

	v000 := f.at(xi, yi, zi)
	v100 := f.at(xi+1, yi, zi)
	v010 := f.at(xi, yi+1, zi)
	v110 := f.at(xi+1, yi+1, zi)
	v001 := f.at(xi, yi, zi+1)
	v101 := f.at(xi+1, yi, zi+1)
	v011 := f.at(xi, yi+1, zi+1)
	v111 := f.at(xi+1, yi+1, zi+1)

	x00 := lerp(v000, v100, tx)
	x10 := lerp(v010, v110, tx)
	x01 := lerp(v001, v101, tx)
	x11 := lerp(v011, v111, tx)

	y0 := lerp(x00, x10, ty)
	y1 := lerp(x01, x11, ty)

	return lerp(y0, y1, tz)
}

// Gradient estimates the field derivative in normalized space with central
// differences. Probe points are clamped to [0,1], so at the boundary the
// estimate degrades to a one-sided difference over the clamped span.
func (f *Field) Gradient(u, v, w float32) math.Vec3 {
	const hh = gradientStep * 0.5

	var g math.Vec3

	lo, hi := clamp01(u-hh), clamp01(u+hh)
	if hi > lo {
		g.X = (f.Sample(hi, v, w) - f.Sample(lo, v, w)) / (hi - lo)
	}

	lo, hi = clamp01(v-hh), clamp01(v+hh)
	if hi > lo {
		g.Y = (f.Sample(u, hi, w) - f.Sample(u, lo, w)) / (hi - lo)
	}

	lo, hi = clamp01(w-hh), clamp01(w+hh)
	if hi > lo {
		g.Z = (f.Sample(u, v, hi) - f.Sample(u, v, lo)) / (hi - lo)
	}

	return g
}

// Normal returns the outward surface normal at normalized coordinates: the
// negated, normalized gradient. It points from higher (solid) values toward
// lower (empty) values. A flat neighbourhood yields the zero vector.
func (f *Field) Normal(u, v, w float32) math.Vec3 {
	return f.Gradient(u, v, w).Normalize().Neg()
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
