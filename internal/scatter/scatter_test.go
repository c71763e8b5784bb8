package scatter

import (
	"context"
	"errors"
	gomath "math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Faultbox/cavegen/pkg/math"
)

func uniformConfig(chance float64, variants int, order Order) Config {
	var cfg Config
	for _, c := range Categories {
		cfg.Set(c, CategoryConfig{Chance: chance, Variants: variants})
	}
	cfg.Order = order
	return cfg
}

func tilted(deg float64) math.Vec3 {
	r := deg * gomath.Pi / 180
	return math.Vec3{X: float32(gomath.Sin(r)), Y: float32(gomath.Cos(r))}
}

// denseCloud scatters n points through a 40 unit cube with a mix of floor,
// slope, wall and ceiling normals.
func denseCloud(n int, seed int64) Surface {
	rng := rand.New(rand.NewSource(seed))
	normals := []math.Vec3{tilted(0), tilted(20), tilted(45), tilted(65), tilted(90), tilted(180)}
	var s Surface
	for i := 0; i < n; i++ {
		s.Positions = append(s.Positions, math.Vec3{
			X: rng.Float32() * 40,
			Y: rng.Float32() * 40,
			Z: rng.Float32() * 40,
		})
		s.Normals = append(s.Normals, normals[rng.Intn(len(normals))])
	}
	return s
}

func run(t *testing.T, s Surface, cfg Config, occ Occluder, seed int64) *Result {
	t.Helper()
	res, err := Scatter(context.Background(), s, cfg, occ, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	return res
}

func minDistance(a, b []Placement, same bool) float32 {
	best := float32(gomath.MaxFloat32)
	for i := range a {
		start := 0
		if same {
			start = i + 1
		}
		for j := start; j < len(b); j++ {
			if d := a[i].Position.Distance(b[j].Position); d < best {
				best = d
			}
		}
	}
	return best
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		normal math.Vec3
		want   [3]bool // mushroom, plant, crystal
	}{
		{"floor", tilted(0), [3]bool{true, true, false}},
		{"gentle", tilted(25), [3]bool{true, true, false}},
		{"slope", tilted(45), [3]bool{false, true, false}},
		{"steep", tilted(65), [3]bool{false, true, true}},
		{"wall", tilted(90), [3]bool{false, false, true}},
		{"ceiling", tilted(180), [3]bool{false, false, true}},
		{"zero", math.Vec3{}, [3]bool{false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, c := range surfaceCategories {
				if got := Eligible(c, tt.normal); got != tt.want[i] {
					t.Errorf("Eligible(%s) = %v, want %v", c, got, tt.want[i])
				}
			}
		})
	}
}

func TestSameCategorySpacing(t *testing.T) {
	want := map[Category]float32{
		Mushroom: MushroomSpacing,
		Plant:    PlantSpacing,
		Crystal:  CrystalSpacing,
		Firefly:  FireflySpacing,
	}
	for _, order := range []Order{ByVertex, ByCategory} {
		t.Run(order.String(), func(t *testing.T) {
			res := run(t, denseCloud(3000, 1), uniformConfig(1, 3, order), nil, 42)
			for _, c := range Categories {
				placed := res.Store.Of(c)
				if len(placed) < 2 {
					t.Fatalf("%s: only %d placements, cloud too sparse", c, len(placed))
				}
				if d := minDistance(placed, placed, true); d < want[c] {
					t.Errorf("%s: two placements %.3f apart, want >= %v", c, d, want[c])
				}
			}
		})
	}
}

func TestCrossCategorySpacing(t *testing.T) {
	var defaults Config
	if defaults.Order != ByCategory {
		t.Fatalf("zero Config order = %s, want category", defaults.Order)
	}
	order, err := ParseOrder("")
	if err != nil || order != ByCategory {
		t.Fatalf("ParseOrder(\"\") = %s, %v", order, err)
	}

	res := run(t, denseCloud(3000, 2), uniformConfig(1, 2, defaults.Order), nil, 9)
	store := res.Store

	tests := []struct {
		a, b Category
		want float32
	}{
		{Plant, Mushroom, PlantMushroomSpacing},
		{Crystal, Mushroom, CrystalMushroomSpacing},
		{Crystal, Plant, CrystalPlantSpacing},
		{Firefly, Mushroom, FireflySurfaceSpacing},
		{Firefly, Plant, FireflySurfaceSpacing},
		{Firefly, Crystal, FireflySurfaceSpacing},
	}
	for _, tt := range tests {
		if d := minDistance(store.Of(tt.a), store.Of(tt.b), false); d < tt.want {
			t.Errorf("%s vs %s: %.3f apart, want >= %v", tt.a, tt.b, d, tt.want)
		}
	}
}

func TestFirefliesKeepClearOfSurfaceInVertexOrder(t *testing.T) {
	res := run(t, denseCloud(2000, 3), uniformConfig(1, 2, ByVertex), nil, 5)
	for _, c := range surfaceCategories {
		if d := minDistance(res.Store.Of(Firefly), res.Store.Of(c), false); d < FireflySurfaceSpacing {
			t.Errorf("firefly within %.3f of a %s", d, c)
		}
	}
}

func TestZeroChance(t *testing.T) {
	cfg := uniformConfig(1, 2, ByVertex)
	cfg.Set(Mushroom, CategoryConfig{Chance: 0, Variants: 0})
	res := run(t, denseCloud(500, 4), cfg, nil, 1)
	if n := res.Store.Count(Mushroom); n != 0 {
		t.Errorf("got %d mushrooms with chance 0", n)
	}
	if res.Stats[Mushroom].Candidates == 0 {
		t.Error("expected eligible mushroom candidates")
	}
	if res.Store.Count(Plant) == 0 {
		t.Error("plants should still be placed")
	}
}

func TestNoFirefliesWithoutSources(t *testing.T) {
	// Ceiling normals are only eligible for crystals, which are disabled.
	s := Surface{}
	for i := 0; i < 50; i++ {
		s.Positions = append(s.Positions, math.Vec3{X: float32(i) * 20})
		s.Normals = append(s.Normals, math.Vec3{Y: -1})
	}
	cfg := uniformConfig(1, 1, ByVertex)
	cfg.Set(Crystal, CategoryConfig{})

	res := run(t, s, cfg, nil, 3)
	if res.Store.Len() != 0 {
		t.Fatalf("got %d placements, want 0", res.Store.Len())
	}
	if res.Stats[Firefly].Candidates != 0 {
		t.Errorf("firefly candidates = %d, want 0", res.Stats[Firefly].Candidates)
	}
}

func TestSeedDeterminism(t *testing.T) {
	s := denseCloud(1500, 6)
	cfg := uniformConfig(0.5, 4, ByVertex)

	a := run(t, s, cfg, nil, 77)
	b := run(t, s, cfg, nil, 77)
	if !reflect.DeepEqual(a.Placements(), b.Placements()) {
		t.Fatal("same seed produced different placements")
	}
	if a.Stats != b.Stats {
		t.Error("same seed produced different stats")
	}

	c := run(t, s, cfg, nil, 78)
	if reflect.DeepEqual(a.Placements(), c.Placements()) {
		t.Error("different seeds produced identical placements")
	}
}

// A single floor vertex: mushroom roll, mushroom variant if placed, plant
// roll, plant variant if placed, then firefly roll and variant.
func TestDrawOrder(t *testing.T) {
	pos := math.Vec3{X: 1, Y: 2, Z: 3}
	s := Surface{Positions: []math.Vec3{pos}, Normals: []math.Vec3{math.Up}}
	var cfg Config
	cfg.Set(Mushroom, CategoryConfig{Chance: 0.5, Variants: 3})
	cfg.Set(Plant, CategoryConfig{Chance: 0.5, Variants: 2})
	cfg.Set(Crystal, CategoryConfig{Chance: 0.5, Variants: 4})
	cfg.Set(Firefly, CategoryConfig{Chance: 0.5, Variants: 5})

	for seed := int64(0); seed < 32; seed++ {
		mirror := rand.New(rand.NewSource(seed))
		var want []Placement
		if mirror.Float64() < 0.5 {
			want = append(want, Placement{Category: Mushroom, Variant: mirror.Intn(3)})
		}
		// A plant on the same spot as a mushroom is rejected without a
		// variant draw.
		if mirror.Float64() < 0.5 && len(want) == 0 {
			want = append(want, Placement{Category: Plant, Variant: mirror.Intn(2)})
		}
		// Crystals are not eligible on a floor, so nothing is drawn.
		if len(want) == 1 && mirror.Float64() < 0.5 {
			want = append(want, Placement{Category: Firefly, Variant: mirror.Intn(5)})
		}

		res := run(t, s, cfg, nil, seed)
		got := res.Placements()
		if len(got) != len(want) {
			t.Fatalf("seed %d: %d placements, want %d", seed, len(got), len(want))
		}
		for i := range got {
			if got[i].Category != want[i].Category || got[i].Variant != want[i].Variant {
				t.Errorf("seed %d placement %d: got %s/%d, want %s/%d", seed, i,
					got[i].Category, got[i].Variant, want[i].Category, want[i].Variant)
			}
		}
	}
}

type probe struct {
	origin, dir math.Vec3
	maxDist     float32
}

type recordingOccluder struct {
	calls []probe
	hit   bool
	err   error
}

func (o *recordingOccluder) IsOccluded(origin, dir math.Vec3, maxDist float32) (bool, error) {
	o.calls = append(o.calls, probe{origin, dir, maxDist})
	return o.hit, o.err
}

func near(a, b math.Vec3) bool {
	return a.Distance(b) < 1e-5
}

func singleMushroom() (Surface, Config) {
	n := tilted(20)
	s := Surface{
		Positions: []math.Vec3{{X: 10, Y: 10, Z: 10}},
		Normals:   []math.Vec3{n},
		Offset:    math.Vec3{X: -5, Y: -5, Z: -5},
	}
	var cfg Config
	cfg.Set(Mushroom, CategoryConfig{Chance: 1, Variants: 1})
	cfg.Set(Firefly, CategoryConfig{Chance: 1, Variants: 1})
	return s, cfg
}

func TestFireflyWallProbe(t *testing.T) {
	s, cfg := singleMushroom()
	n := s.Normals[0]
	world := math.Vec3{X: 5, Y: 5, Z: 5}

	occ := &recordingOccluder{}
	res := run(t, s, cfg, occ, 1)

	if len(occ.calls) != 1 {
		t.Fatalf("occluder called %d times, want 1", len(occ.calls))
	}
	call := occ.calls[0]
	if !near(call.origin, world.Add(n.Scale(2.9))) {
		t.Errorf("probe origin = %v", call.origin)
	}
	if call.dir != n || call.maxDist != WallProbeDistance {
		t.Errorf("probe dir = %v, maxDist = %v", call.dir, call.maxDist)
	}

	flies := res.Store.Of(Firefly)
	if len(flies) != 1 {
		t.Fatalf("got %d fireflies, want 1", len(flies))
	}
	if !near(flies[0].Position, world.Add(n.Scale(3))) {
		t.Errorf("firefly at %v", flies[0].Position)
	}
	if flies[0].Orientation != math.QuatIdentity() {
		t.Errorf("firefly orientation = %v, want identity", flies[0].Orientation)
	}

	occ = &recordingOccluder{hit: true}
	res = run(t, s, cfg, occ, 1)
	if res.Store.Count(Firefly) != 0 {
		t.Error("occluded candidate was placed")
	}
	if res.Stats[Firefly].Occluded != 1 {
		t.Errorf("Occluded = %d, want 1", res.Stats[Firefly].Occluded)
	}
}

func TestOccluderFailure(t *testing.T) {
	s, cfg := singleMushroom()
	boom := errors.New("physics offline")
	_, err := Scatter(context.Background(), s, cfg, &recordingOccluder{err: boom}, rand.New(rand.NewSource(1)))

	var oe *OccluderError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OccluderError", err)
	}
	if oe.Index != 0 || !errors.Is(err, boom) {
		t.Errorf("got %+v", oe)
	}
}

func TestPlacementOrientation(t *testing.T) {
	s, cfg := singleMushroom()
	res := run(t, s, cfg, nil, 1)
	m := res.Store.Of(Mushroom)
	if len(m) != 1 {
		t.Fatalf("got %d mushrooms", len(m))
	}
	p := m[0]
	if p.Position != (math.Vec3{X: 5, Y: 5, Z: 5}) {
		t.Errorf("position = %v, want offset applied", p.Position)
	}
	if up := p.Orientation.Rotate(math.Up); !near(up, s.Normals[0]) {
		t.Errorf("orientation maps up to %v, want %v", up, s.Normals[0])
	}
}

func TestScatterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scatter(ctx, denseCloud(10, 1), uniformConfig(1, 1, ByVertex), nil, rand.New(rand.NewSource(1)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestScatterInputErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bad := Surface{Positions: make([]math.Vec3, 2), Normals: make([]math.Vec3, 1)}
	if _, err := Scatter(context.Background(), bad, Config{}, nil, rng); err == nil {
		t.Error("mismatched normals should fail")
	}
	if _, err := Scatter(context.Background(), Surface{}, Config{}, nil, nil); err == nil {
		t.Error("nil rng should fail")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cc      CategoryConfig
		wantErr bool
	}{
		{"disabled", CategoryConfig{}, false},
		{"valid", CategoryConfig{Chance: 0.3, Variants: 2}, false},
		{"empty catalog", CategoryConfig{Chance: 0.3}, true},
		{"chance above one", CategoryConfig{Chance: 1.5, Variants: 1}, true},
		{"negative chance", CategoryConfig{Chance: -0.1, Variants: 1}, true},
		{"nan chance", CategoryConfig{Chance: gomath.NaN(), Variants: 1}, true},
		{"negative variants", CategoryConfig{Variants: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.Set(Crystal, tt.cc)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := Config{Order: Order(9)}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown order should fail")
	}
}

func TestParseNames(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c, got, err)
		}
		text, err := c.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Category
		if err := back.UnmarshalText(text); err != nil || back != c {
			t.Errorf("text round trip of %s gave %s, %v", c, back, err)
		}
	}
	if _, err := ParseCategory("moss"); err == nil {
		t.Error("unknown category should fail")
	}

	for in, want := range map[string]Order{"": ByCategory, "vertex": ByVertex, "Category": ByCategory} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Error("unknown order should fail")
	}
}

func TestPlacementStoreWithin(t *testing.T) {
	s := NewPlacementStore()
	s.Add(Placement{Category: Crystal, Position: math.Vec3{}})
	if !s.Within(Crystal, math.Vec3{X: 9.9}, CrystalSpacing) {
		t.Error("9.9 should be within 10")
	}
	if s.Within(Crystal, math.Vec3{X: 10}, CrystalSpacing) {
		t.Error("exactly 10 is not within 10")
	}
	if s.Within(Plant, math.Vec3{}, 100) {
		t.Error("no plants placed")
	}
	if s.Of(Category(-1)) != nil || s.Count(Category(12)) != 0 {
		t.Error("invalid category should be empty")
	}
}
