// Package scatter places decorative objects on an extracted surface.
//
// Surface categories are offered every vertex in turn and must satisfy a
// slope rule and minimum spacing against what has already been placed.
// Fireflies are derived afterwards from the surface placements and are
// validated against an occlusion probe.
package scatter

import (
	"fmt"
	"strings"

	"github.com/Faultbox/cavegen/pkg/math"
)

// Category is a kind of placed object.
type Category int

const (
	Mushroom Category = iota
	Plant
	Crystal
	Firefly

	numCategories
)

// Categories lists every category in placement order.
var Categories = [...]Category{Mushroom, Plant, Crystal, Firefly}

// surfaceCategories are placed directly on mesh vertices.
var surfaceCategories = [...]Category{Mushroom, Plant, Crystal}

func (c Category) String() string {
	switch c {
	case Mushroom:
		return "mushroom"
	case Plant:
		return "plant"
	case Crystal:
		return "crystal"
	case Firefly:
		return "firefly"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("scatter: unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || c >= numCategories {
		return nil, fmt.Errorf("scatter: invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Placement policy. Angles are degrees between world up and the surface
// normal; distances are world units.
const (
	MushroomMaxSlope = 30
	PlantMaxSlope    = 70
	CrystalMinSlope  = 60

	MushroomSpacing        = 5
	PlantMushroomSpacing   = 4
	PlantSpacing           = 2
	CrystalMushroomSpacing = 2
	CrystalPlantSpacing    = 2
	CrystalSpacing         = 10

	FireflySurfaceSpacing = 2
	FireflySpacing        = 15

	// FireflyLift is how far along the source normal a firefly candidate
	// sits above its surface placement.
	FireflyLift = 3
	// Wall probe: cast from candidate-n*WallProbeBackoff along n for
	// WallProbeDistance.
	WallProbeBackoff  = 0.1
	WallProbeDistance = 0.2
)

// spacing rejects a candidate closer than Distance to any placement of
// Against.
type spacing struct {
	Against  Category
	Distance float32
}

type rule struct {
	eligible func(n math.Vec3) bool
	spacing  []spacing
}

var rules = [numCategories]rule{
	Mushroom: {
		eligible: func(n math.Vec3) bool { return math.Up.Angle(n) <= MushroomMaxSlope && n.Y > 0 },
		spacing:  []spacing{{Mushroom, MushroomSpacing}},
	},
	Plant: {
		eligible: func(n math.Vec3) bool { return math.Up.Angle(n) <= PlantMaxSlope && n.Y > 0 },
		spacing:  []spacing{{Mushroom, PlantMushroomSpacing}, {Plant, PlantSpacing}},
	},
	Crystal: {
		eligible: func(n math.Vec3) bool { return math.Up.Angle(n) >= CrystalMinSlope },
		spacing: []spacing{
			{Mushroom, CrystalMushroomSpacing},
			{Plant, CrystalPlantSpacing},
			{Crystal, CrystalSpacing},
		},
	},
	Firefly: {
		eligible: func(math.Vec3) bool { return true },
		spacing: []spacing{
			{Mushroom, FireflySurfaceSpacing},
			{Plant, FireflySurfaceSpacing},
			{Crystal, FireflySurfaceSpacing},
			{Firefly, FireflySpacing},
		},
	},
}

// Eligible reports whether a surface normal satisfies the slope rule of c.
func Eligible(c Category, normal math.Vec3) bool {
	if c < 0 || c >= numCategories {
		return false
	}
	return rules[c].eligible(normal)
}
