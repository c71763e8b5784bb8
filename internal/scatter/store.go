package scatter

import "github.com/Faultbox/cavegen/pkg/math"

// Placement is one object to instantiate.
type Placement struct {
	Category Category  `json:"category"`
	Variant  int       `json:"variant"`
	Position math.Vec3 `json:"position"`
	// Normal is the surface normal the object was placed with. Fireflies
	// carry the normal of the placement they were derived from.
	Normal      math.Vec3 `json:"normal"`
	Orientation math.Quat `json:"orientation"`
}

// PlacementStore accumulates placements for one scattering pass.
type PlacementStore struct {
	all        []Placement
	byCategory [numCategories][]Placement
}

// NewPlacementStore returns an empty store.
func NewPlacementStore() *PlacementStore {
	return &PlacementStore{}
}

// Add records p.
func (s *PlacementStore) Add(p Placement) {
	s.all = append(s.all, p)
	s.byCategory[p.Category] = append(s.byCategory[p.Category], p)
}

// Placements returns every placement in acceptance order.
func (s *PlacementStore) Placements() []Placement {
	return s.all
}

// Of returns the placements of category c in acceptance order.
func (s *PlacementStore) Of(c Category) []Placement {
	if c < 0 || c >= numCategories {
		return nil
	}
	return s.byCategory[c]
}

// Count returns the number of placements of category c.
func (s *PlacementStore) Count(c Category) int {
	return len(s.Of(c))
}

// Len returns the total number of placements.
func (s *PlacementStore) Len() int {
	return len(s.all)
}

// Within reports whether any placement of category c lies closer than d
// to p.
func (s *PlacementStore) Within(c Category, p math.Vec3, d float32) bool {
	for _, other := range s.Of(c) {
		if other.Position.Distance(p) < d {
			return true
		}
	}
	return false
}

// violates reports whether p breaks any of the spacing constraints.
func (s *PlacementStore) violates(p math.Vec3, constraints []spacing) bool {
	for _, sp := range constraints {
		if s.Within(sp.Against, p, sp.Distance) {
			return true
		}
	}
	return false
}
