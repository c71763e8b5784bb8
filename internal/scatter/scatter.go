package scatter

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"math/rand"
	"strings"

	"github.com/Faultbox/cavegen/pkg/math"
)

// Order selects how surface vertices are offered to the categories.
type Order int

const (
	// ByCategory runs every vertex for mushrooms, then every vertex for
	// plants, then crystals. Later categories see every earlier placement.
	ByCategory Order = iota
	// ByVertex offers each vertex to mushroom, plant and crystal before
	// moving to the next vertex. A mushroom placed late may then sit close
	// to an earlier plant or crystal.
	ByVertex
)

func (o Order) String() string {
	switch o {
	case ByCategory:
		return "category"
	case ByVertex:
		return "vertex"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder parses "category" or "vertex". Empty means category.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "category":
		return ByCategory, nil
	case "vertex":
		return ByVertex, nil
	default:
		return 0, fmt.Errorf("scatter: unknown order %q", s)
	}
}

// CategoryConfig is the spawn setting of one category.
type CategoryConfig struct {
	Chance   float64 // probability in [0,1] per eligible candidate
	Variants int     // size of the variant catalog
}

// Config holds spawn settings for every category.
type Config struct {
	Categories [numCategories]CategoryConfig
	Order      Order
}

// For returns the settings of c.
func (c *Config) For(cat Category) CategoryConfig {
	return c.Categories[cat]
}

// Set replaces the settings of cat.
func (c *Config) Set(cat Category, cc CategoryConfig) {
	c.Categories[cat] = cc
}

// Validate checks chances and variant catalogs.
func (c *Config) Validate() error {
	var errs []error
	for _, cat := range Categories {
		cc := c.Categories[cat]
		if gomath.IsNaN(cc.Chance) || cc.Chance < 0 || cc.Chance > 1 {
			errs = append(errs, fmt.Errorf("%s: chance %v outside [0,1]", cat, cc.Chance))
		}
		if cc.Variants < 0 {
			errs = append(errs, fmt.Errorf("%s: negative variant count %d", cat, cc.Variants))
		}
		if cc.Chance > 0 && cc.Variants == 0 {
			errs = append(errs, fmt.Errorf("%s: chance %v with an empty variant catalog", cat, cc.Chance))
		}
	}
	if c.Order != ByVertex && c.Order != ByCategory {
		errs = append(errs, fmt.Errorf("unknown order %d", int(c.Order)))
	}
	return errors.Join(errs...)
}

// Occluder probes for solid geometry along a ray.
type Occluder interface {
	IsOccluded(origin, dir math.Vec3, maxDist float32) (bool, error)
}

// OccluderError reports a failed occlusion probe for firefly candidate
// Index.
type OccluderError struct {
	Index int
	Err   error
}

func (e *OccluderError) Error() string {
	return fmt.Sprintf("scatter: occlusion probe for candidate %d: %v", e.Index, e.Err)
}

func (e *OccluderError) Unwrap() error { return e.Err }

// Surface is the vertex cloud to scatter on.
type Surface struct {
	Positions []math.Vec3 // mesh space
	Normals   []math.Vec3
	Offset    math.Vec3 // added to positions to get world space
}

// CategoryStats counts outcomes for one category.
type CategoryStats struct {
	Candidates int // eligible vertices, or derived candidates for fireflies
	Drawn      int // candidates that passed the chance draw
	Occluded   int // fireflies rejected by the wall probe
	Spaced     int // rejected by a spacing constraint
	Placed     int
}

// Stats holds per-category counters.
type Stats [numCategories]CategoryStats

// Result is the output of one scattering pass.
type Result struct {
	Store *PlacementStore
	Stats Stats
}

// Placements returns every placement in acceptance order.
func (r *Result) Placements() []Placement {
	return r.Store.Placements()
}

// Scatter runs one pass over surface. rng is the only source of randomness:
// for every eligible candidate it draws the chance roll, then the variant
// index only when the candidate is accepted. A nil occluder never reports
// a hit. ctx is checked once per vertex and once per firefly candidate.
func Scatter(ctx context.Context, surface Surface, cfg Config, occ Occluder, rng *rand.Rand) (*Result, error) {
	if len(surface.Positions) != len(surface.Normals) {
		return nil, fmt.Errorf("scatter: %d positions but %d normals", len(surface.Positions), len(surface.Normals))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	if rng == nil {
		return nil, errors.New("scatter: nil random source")
	}

	s := &scatterer{cfg: cfg, rng: rng, res: &Result{Store: NewPlacementStore()}}

	switch cfg.Order {
	case ByVertex:
		for i := range surface.Positions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pos := surface.Positions[i].Add(surface.Offset)
			for _, cat := range surfaceCategories {
				s.placeSurface(cat, pos, surface.Normals[i])
			}
		}
	default:
		for _, cat := range surfaceCategories {
			for i := range surface.Positions {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				s.placeSurface(cat, surface.Positions[i].Add(surface.Offset), surface.Normals[i])
			}
		}
	}

	if err := s.placeFireflies(ctx, occ); err != nil {
		return nil, err
	}
	return s.res, nil
}

type scatterer struct {
	cfg Config
	rng *rand.Rand
	res *Result
}

// roll draws the chance roll for cat.
func (s *scatterer) roll(cat Category) bool {
	return s.rng.Float64() < s.cfg.Categories[cat].Chance
}

func (s *scatterer) variant(cat Category) int {
	return s.rng.Intn(s.cfg.Categories[cat].Variants)
}

// placeSurface offers one world-space vertex to cat.
func (s *scatterer) placeSurface(cat Category, pos, normal math.Vec3) {
	r := rules[cat]
	st := &s.res.Stats[cat]
	if !r.eligible(normal) {
		return
	}
	st.Candidates++
	if !s.roll(cat) {
		return
	}
	st.Drawn++
	store := s.res.Store
	if store.violates(pos, r.spacing) {
		st.Spaced++
		return
	}
	store.Add(Placement{
		Category:    cat,
		Variant:     s.variant(cat),
		Position:    pos,
		Normal:      normal,
		Orientation: math.QuatFromTo(math.Up, normal),
	})
	st.Placed++
}

// placeFireflies derives candidates from the surface placements, lifted
// along the normal each was placed with.
func (s *scatterer) placeFireflies(ctx context.Context, occ Occluder) error {
	store := s.res.Store
	var sources []Placement
	for _, cat := range surfaceCategories {
		sources = append(sources, store.Of(cat)...)
	}

	st := &s.res.Stats[Firefly]
	r := rules[Firefly]
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.Candidates++
		if !s.roll(Firefly) {
			continue
		}
		st.Drawn++

		n := src.Normal
		candidate := src.Position.Add(n.Scale(FireflyLift))
		if occ != nil {
			hit, err := occ.IsOccluded(candidate.Sub(n.Scale(WallProbeBackoff)), n, WallProbeDistance)
			if err != nil {
				return &OccluderError{Index: i, Err: err}
			}
			if hit {
				st.Occluded++
				continue
			}
		}
		if store.violates(candidate, r.spacing) {
			st.Spaced++
			continue
		}
		store.Add(Placement{
			Category:    Firefly,
			Variant:     s.variant(Firefly),
			Position:    candidate,
			Normal:      n,
			Orientation: math.QuatIdentity(),
		})
		st.Placed++
	}
	return nil
}
