package ccd

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func mustCircle(t testing.TB, radius float64) *actor.Circle {
	c, err := actor.NewCircle(radius)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustRectangle(t testing.TB, width, height float64) *actor.Polygon {
	p, err := actor.NewRectangle(width, height)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// sweep moves a shape from start by translation while rotating by rotation.
func sweep(start mgl64.Vec2, translation mgl64.Vec2, rotation, radius float64) actor.Sweep {
	from := actor.NewTransformAt(start, 0)
	to := actor.NewTransformAt(start.Add(translation), rotation)
	return actor.NewSweep(from, to, mgl64.Vec2{}, radius)
}

func still(position mgl64.Vec2) actor.Sweep {
	return sweep(position, mgl64.Vec2{}, 0, 0)
}

func TestConservativeAdvancement_Solve(t *testing.T) {
	detector := NewConservativeAdvancement()

	tests := []struct {
		name     string
		a        actor.Convex
		sweepA   actor.Sweep
		b        actor.Convex
		sweepB   actor.Sweep
		wantHit  bool
		wantTime float64
	}{
		{
			name:     "bullet through thin wall",
			a:        mustCircle(t, 0.1),
			sweepA:   sweep(mgl64.Vec2{-1, 0}, mgl64.Vec2{100.0 / 60.0, 0}, 0, 0.1),
			b:        mustRectangle(t, 0.1, 2),
			sweepB:   still(mgl64.Vec2{0, 0}),
			wantHit:  true,
			wantTime: 0.85 / (100.0 / 60.0),
		},
		{
			name:     "both moving toward each other",
			a:        mustCircle(t, 0.5),
			sweepA:   sweep(mgl64.Vec2{-2, 0}, mgl64.Vec2{2, 0}, 0, 0.5),
			b:        mustCircle(t, 0.5),
			sweepB:   sweep(mgl64.Vec2{2, 0}, mgl64.Vec2{-2, 0}, 0, 0.5),
			wantHit:  true,
			wantTime: 0.75,
		},
		{
			name:    "moving away",
			a:       mustCircle(t, 0.5),
			sweepA:  sweep(mgl64.Vec2{-2, 0}, mgl64.Vec2{-2, 0}, 0, 0.5),
			b:       mustCircle(t, 0.5),
			sweepB:  still(mgl64.Vec2{2, 0}),
			wantHit: false,
		},
		{
			name:    "stops short",
			a:       mustCircle(t, 0.5),
			sweepA:  sweep(mgl64.Vec2{-2, 0}, mgl64.Vec2{1, 0}, 0, 0.5),
			b:       mustCircle(t, 0.5),
			sweepB:  still(mgl64.Vec2{2, 0}),
			wantHit: false,
		},
		{
			name:    "passes beside",
			a:       mustCircle(t, 0.1),
			sweepA:  sweep(mgl64.Vec2{-1, 3}, mgl64.Vec2{2, 0}, 0, 0.1),
			b:       mustRectangle(t, 0.1, 2),
			sweepB:  still(mgl64.Vec2{0, 0}),
			wantHit: false,
		},
		{
			name:    "not moving",
			a:       mustCircle(t, 0.5),
			sweepA:  still(mgl64.Vec2{-2, 0}),
			b:       mustCircle(t, 0.5),
			sweepB:  still(mgl64.Vec2{2, 0}),
			wantHit: false,
		},
		{
			name:    "already overlapping",
			a:       mustCircle(t, 1),
			sweepA:  sweep(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, 0, 1),
			b:       mustCircle(t, 1),
			sweepB:  still(mgl64.Vec2{1, 0}),
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toi, hit := detector.Solve(tt.a, tt.sweepA, tt.b, tt.sweepB, 0, 1)
			if hit != tt.wantHit {
				t.Fatalf("Solve() hit = %v, want %v", hit, tt.wantHit)
			}
			if !hit {
				return
			}
			if math.Abs(toi.Time-tt.wantTime) > 1e-4 {
				t.Errorf("Solve() time = %v, want %v", toi.Time, tt.wantTime)
			}
			if toi.Separation.Distance > DefaultDistanceTolerance {
				t.Errorf("Solve() distance at impact = %v, want under %v", toi.Separation.Distance, DefaultDistanceTolerance)
			}
		})
	}
}

func TestConservativeAdvancement_Rotating(t *testing.T) {
	// a long plank spinning around its center hits a box placed near its tip
	plank := mustRectangle(t, 4, 0.2)
	target := mustRectangle(t, 0.5, 0.5)

	sweepA := sweep(mgl64.Vec2{0, 0}, mgl64.Vec2{}, math.Pi/2, plank.RadiusFrom(mgl64.Vec2{}))
	sweepB := still(mgl64.Vec2{1, 1.5})

	toi, hit := NewConservativeAdvancement().Solve(plank, sweepA, target, sweepB, 0, 1)
	if !hit {
		t.Fatal("Expected the spinning plank to hit the box")
	}
	if toi.Time <= 0 || toi.Time >= 1 {
		t.Errorf("Solve() time = %v, want inside (0, 1)", toi.Time)
	}

	// at the impact time the shapes are still disjoint
	ta := sweepA.TransformAt(toi.Time)
	tb := sweepB.TransformAt(toi.Time)
	for _, v := range target.Vertices() {
		if plank.Contains(tb.ToWorld(v), ta) {
			t.Errorf("vertex %v overlaps the plank at the impact time", v)
		}
	}
}

func TestConservativeAdvancement_Interval(t *testing.T) {
	a := mustCircle(t, 0.5)
	b := mustCircle(t, 0.5)
	sweepA := sweep(mgl64.Vec2{-2, 0}, mgl64.Vec2{4, 0}, 0, 0.5)
	sweepB := still(mgl64.Vec2{2, 0})

	if _, hit := NewConservativeAdvancement().Solve(a, sweepA, b, sweepB, 0, 0.5); hit {
		t.Error("impact at 0.75 should not be found within [0, 0.5]")
	}

	toi, hit := NewConservativeAdvancement().Solve(a, sweepA, b, sweepB, 0.5, 1)
	if !hit {
		t.Fatal("Expected a hit within [0.5, 1]")
	}
	if math.Abs(toi.Time-0.75) > 1e-4 {
		t.Errorf("Solve() time = %v, want 0.75", toi.Time)
	}
}

func TestConservativeAdvancement_ZeroValue(t *testing.T) {
	var detector ConservativeAdvancement
	a := mustCircle(t, 0.5)
	b := mustCircle(t, 0.5)

	toi, hit := detector.Solve(a, sweep(mgl64.Vec2{-2, 0}, mgl64.Vec2{4, 0}, 0, 0.5), b, still(mgl64.Vec2{2, 0}), 0, 1)
	if !hit || math.Abs(toi.Time-0.75) > 1e-4 {
		t.Errorf("Solve() = %v, %v, want a hit at 0.75 with default tolerances", toi, hit)
	}
}

func BenchmarkConservativeAdvancement(b *testing.B) {
	bullet := mustCircle(b, 0.1)
	wall := mustRectangle(b, 0.1, 2)
	sweepA := sweep(mgl64.Vec2{-1, 0}, mgl64.Vec2{100.0 / 60.0, 0}, 0, 0.1)
	sweepB := still(mgl64.Vec2{0, 0})
	detector := NewConservativeAdvancement()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		detector.Solve(bullet, sweepA, wall, sweepB, 0, 1)
	}
}
