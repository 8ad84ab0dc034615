package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// AABB Tests
// =============================================================================

func TestAABBOverlaps(t *testing.T) {
	unit := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"separated on X (positive)", AABB{Min: mgl64.Vec2{2, 0}, Max: mgl64.Vec2{3, 1}}, false},
		{"separated on X (negative)", AABB{Min: mgl64.Vec2{-2, 0}, Max: mgl64.Vec2{-1, 1}}, false},
		{"separated on Y (positive)", AABB{Min: mgl64.Vec2{0, 2}, Max: mgl64.Vec2{1, 3}}, false},
		{"separated on Y (negative)", AABB{Min: mgl64.Vec2{0, -2}, Max: mgl64.Vec2{1, -1}}, false},
		{"diagonal separation", AABB{Min: mgl64.Vec2{1.5, 1.5}, Max: mgl64.Vec2{2, 2}}, false},
		{"partial overlap", AABB{Min: mgl64.Vec2{0.5, 0.5}, Max: mgl64.Vec2{1.5, 1.5}}, true},
		{"contained", AABB{Min: mgl64.Vec2{0.25, 0.25}, Max: mgl64.Vec2{0.75, 0.75}}, true},
		{"edge touching", AABB{Min: mgl64.Vec2{1, 0}, Max: mgl64.Vec2{2, 1}}, true},
		{"corner touching", AABB{Min: mgl64.Vec2{1, 1}, Max: mgl64.Vec2{2, 2}}, true},
		{"zero area inside", AABB{Min: mgl64.Vec2{0.5, 0.5}, Max: mgl64.Vec2{0.5, 0.5}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// Test symmetry
			if got := tt.other.Overlaps(unit); got != tt.want {
				t.Errorf("Overlaps() symmetry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	aabb := AABB{Min: mgl64.Vec2{-1, -2}, Max: mgl64.Vec2{1, 2}}

	tests := []struct {
		name  string
		point mgl64.Vec2
		want  bool
	}{
		{"center", mgl64.Vec2{0, 0}, true},
		{"min corner", mgl64.Vec2{-1, -2}, true},
		{"max corner", mgl64.Vec2{1, 2}, true},
		{"edge midpoint", mgl64.Vec2{1, 0}, true},
		{"outside X", mgl64.Vec2{1.001, 0}, false},
		{"outside Y", mgl64.Vec2{0, -2.001}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aabb.ContainsPoint(tt.point); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestAABBContainsAndUnion(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}
	b := AABB{Min: mgl64.Vec2{2, -1}, Max: mgl64.Vec2{3, 0.5}}

	u := a.Union(b)
	want := AABB{Min: mgl64.Vec2{0, -1}, Max: mgl64.Vec2{3, 1}}
	if u != want {
		t.Fatalf("Union() = %v, want %v", u, want)
	}
	if !u.Contains(a) || !u.Contains(b) {
		t.Error("union should contain both boxes")
	}
	if a.Contains(u) {
		t.Error("smaller box should not contain the union")
	}
	if u.Width() != 3 || u.Height() != 2 {
		t.Errorf("Width/Height = %v/%v, want 3/2", u.Width(), u.Height())
	}

	moved := a.Translate(mgl64.Vec2{5, -5})
	if moved.Min != (mgl64.Vec2{5, -5}) || moved.Max != (mgl64.Vec2{6, -4}) {
		t.Errorf("Translate() = %v", moved)
	}
}

func TestAABBFromCircle(t *testing.T) {
	aabb := NewAABBFromCircle(mgl64.Vec2{1, 2}, 0.5)
	if aabb.Min != (mgl64.Vec2{0.5, 1.5}) || aabb.Max != (mgl64.Vec2{1.5, 2.5}) {
		t.Errorf("NewAABBFromCircle() = %v", aabb)
	}
}

func TestAABBRaycast(t *testing.T) {
	aabb := AABB{Min: mgl64.Vec2{1, -1}, Max: mgl64.Vec2{2, 1}}

	tests := []struct {
		name      string
		ray       Ray
		maxLength float64
		want      bool
	}{
		{"hit along X", NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), 0, true},
		{"pointing away", NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{-1, 0}), 0, false},
		{"too short", NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), 0.5, false},
		{"long enough", NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), 1.5, true},
		{"parallel outside", NewRay(mgl64.Vec2{0, 2}, mgl64.Vec2{1, 0}), 0, false},
		{"diagonal hit", NewRay(mgl64.Vec2{0, -2}, mgl64.Vec2{1, 1.5}), 0, true},
		{"start inside", NewRay(mgl64.Vec2{1.5, 0}, mgl64.Vec2{0, 1}), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aabb.Raycast(tt.ray, tt.maxLength); got != tt.want {
				t.Errorf("Raycast() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBRaycast_InfiniteBox(t *testing.T) {
	aabb := AABB{Min: mgl64.Vec2{-math.MaxFloat64, 0}, Max: mgl64.Vec2{math.MaxFloat64, 1}}
	if !aabb.Raycast(NewRay(mgl64.Vec2{0, -5}, mgl64.Vec2{0, 1}), 0) {
		t.Error("ray should hit a box spanning the whole X axis")
	}
}
