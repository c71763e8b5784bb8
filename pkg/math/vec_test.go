package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	if l := n.Length(); l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %v, want zero", z)
	}
}

func TestVec3Abs(t *testing.T) {
	got := Vec3{-1, 2, -3}.Abs()
	want := Vec3{1, 2, 3}
	if got != want {
		t.Errorf("Vec3.Abs() = %v, want %v", got, want)
	}
}

func TestVec3Angle(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float32
	}{
		{"parallel", Vec3{0, 2, 0}, 0},
		{"perpendicular", Vec3{1, 0, 0}, 90},
		{"opposite", Vec3{0, -1, 0}, 180},
		{"forty five", Vec3{1, 1, 0}, 45},
		{"zero", Vec3{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Up.Angle(tt.v)
			if math.Abs(float64(got-tt.want)) > 1e-3 {
				t.Errorf("Up.Angle(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestVec3Distance(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 6, 3}
	if got := a.Distance(b); got != 5 {
		t.Errorf("Vec3.Distance() = %v, want 5", got)
	}
}
