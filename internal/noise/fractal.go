// Package noise provides the default density sampler for cave fields.
package noise

import (
	"errors"
	"fmt"

	"github.com/aquilax/go-perlin"

	"github.com/Faultbox/cavegen/pkg/voxel"
)

var _ voxel.Sampler = (*Fractal)(nil)

// Settings configures fractal Perlin noise.
type Settings struct {
	Octaves   int     // summed noise layers
	Frequency float64 // scale applied to normalized coordinates
	Alpha     float64 // amplitude divisor between octaves
	Beta      float64 // frequency multiplier between octaves
	Amplitude float64 // scale of the summed noise
	Offset    float64 // added after scaling
}

// DefaultSettings returns three octaves at unit frequency, each octave
// doubling frequency and halving amplitude.
func DefaultSettings() Settings {
	return Settings{
		Octaves:   3,
		Frequency: 1,
		Alpha:     2,
		Beta:      2,
		Amplitude: 1,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	var errs []error
	if s.Octaves < 1 {
		errs = append(errs, fmt.Errorf("octaves must be >= 1, got %d", s.Octaves))
	}
	if s.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("frequency must be > 0, got %v", s.Frequency))
	}
	if s.Alpha <= 0 {
		errs = append(errs, fmt.Errorf("alpha must be > 0, got %v", s.Alpha))
	}
	if s.Beta <= 0 {
		errs = append(errs, fmt.Errorf("beta must be > 0, got %v", s.Beta))
	}
	return errors.Join(errs...)
}

// Fractal samples seeded multi-octave Perlin noise.
type Fractal struct {
	settings Settings
	seed     int64
	perlin   *perlin.Perlin
}

// NewFractal creates a sampler for the given settings and seed.
func NewFractal(s Settings, seed int64) (*Fractal, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}
	return &Fractal{
		settings: s,
		seed:     seed,
		perlin:   perlin.NewPerlin(s.Alpha, s.Beta, int32(s.Octaves), seed),
	}, nil
}

// Seed returns the seed the sampler was built with.
func (f *Fractal) Seed() int64 {
	return f.seed
}

// Sample evaluates the noise at normalized coordinates. It never fails.
func (f *Fractal) Sample(u, v, w float32) (float32, error) {
	s := f.settings
	n := f.perlin.Noise3D(float64(u)*s.Frequency, float64(v)*s.Frequency, float64(w)*s.Frequency)
	return float32(n*s.Amplitude + s.Offset), nil
}
