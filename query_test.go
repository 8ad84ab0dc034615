package feather2d

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/ccd"
	"github.com/go-gl/mathgl/mgl64"
)

// newQueryWorld has two static unit boxes on the x axis, at 3 and 10
func newQueryWorld(t *testing.T) (w *World, near, far *actor.Body) {
	t.Helper()
	w = newTestWorld(t, WithGravity(mgl64.Vec2{}))
	near = newTestBody(t, box(t, 1, 1), mgl64.Vec2{3, 0}, actor.MassInfinite)
	far = newTestBody(t, box(t, 1, 1), mgl64.Vec2{10, 0}, actor.MassInfinite)
	mustAdd(t, w, near, far)
	return w, near, far
}

type rejectFixture struct {
	RaycastAdapter
	rejected *actor.Fixture
}

func (r rejectFixture) AllowFixture(_ actor.Ray, f *actor.Fixture) bool { return f != r.rejected }

type rejectDetect struct {
	rejected *actor.Fixture
}

func (r rejectDetect) AllowFixture(_ actor.AABB, f *actor.Fixture) bool { return f != r.rejected }

type rejectConvexResult struct {
	ConvexCastAdapter
	rejected *actor.Fixture
}

func (r rejectConvexResult) AllowResult(_ actor.Convex, f *actor.Fixture, _ ccd.TimeOfImpact) bool {
	return f != r.rejected
}

// =============================================================================
// Raycast Tests
// =============================================================================

func TestWorld_Raycast(t *testing.T) {
	w, near, far := newQueryWorld(t)
	ray := actor.NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})

	tests := []struct {
		name      string
		maxLength float64
		all       bool
		want      []*actor.Body
		distances []float64
	}{
		{"nearest", 0, false, []*actor.Body{near}, []float64{2.5}},
		{"all", 0, true, []*actor.Body{near, far}, []float64{2.5, 9.5}},
		{"all within length", 5, true, []*actor.Body{near}, []float64{2.5}},
		{"too short", 2, true, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := w.Raycast(ray, tt.maxLength, tt.all)

			if len(results) != len(tt.want) {
				t.Fatalf("Raycast() = %d results, want %d", len(results), len(tt.want))
			}
			for i, r := range results {
				if r.Body != tt.want[i] {
					t.Errorf("results[%d].Body = %v, want %v", i, r.Body, tt.want[i])
				}
				if math.Abs(r.Distance-tt.distances[i]) > 1e-9 {
					t.Errorf("results[%d].Distance = %v, want %v", i, r.Distance, tt.distances[i])
				}
				if r.Normal.Sub(mgl64.Vec2{-1, 0}).Len() > 1e-9 {
					t.Errorf("results[%d].Normal = %v, want (-1, 0)", i, r.Normal)
				}
			}
		})
	}
}

func TestWorld_Raycast_Filters(t *testing.T) {
	ray := actor.NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})

	t.Run("inactive body", func(t *testing.T) {
		w, near, far := newQueryWorld(t)
		near.SetActive(false)

		results := w.Raycast(ray, 0, false)
		if len(results) != 1 || results[0].Body != far {
			t.Errorf("Raycast() = %v, want the far box", results)
		}
	})

	t.Run("listener", func(t *testing.T) {
		w, near, far := newQueryWorld(t)
		w.Listeners().Raycast.Add(rejectFixture{rejected: near.Fixtures()[0]})

		results := w.Raycast(ray, 0, false)
		if len(results) != 1 || results[0].Body != far {
			t.Errorf("Raycast() = %v, want the far box", results)
		}
	})
}

// =============================================================================
// DetectAABB Tests
// =============================================================================

func TestWorld_DetectAABB(t *testing.T) {
	w, near, far := newQueryWorld(t)

	tests := []struct {
		name string
		aabb actor.AABB
		want []*actor.Body
	}{
		{"empty", actor.AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{1, 1}}, nil},
		{"near", actor.AABB{Min: mgl64.Vec2{2, -1}, Max: mgl64.Vec2{4, 1}}, []*actor.Body{near}},
		{"both", actor.AABB{Min: mgl64.Vec2{0, -1}, Max: mgl64.Vec2{12, 1}}, []*actor.Body{near, far}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := w.DetectAABB(tt.aabb)
			if len(results) != len(tt.want) {
				t.Fatalf("DetectAABB() = %d results, want %d", len(results), len(tt.want))
			}
			for i, r := range results {
				if r.Body != tt.want[i] {
					t.Errorf("results[%d].Body = %v, want %v", i, r.Body, tt.want[i])
				}
				if r.Fixture != tt.want[i].Fixtures()[0] {
					t.Errorf("results[%d].Fixture is not the body fixture", i)
				}
			}
		})
	}
}

func TestWorld_DetectAABB_Listener(t *testing.T) {
	w, near, far := newQueryWorld(t)
	w.Listeners().Detect.Add(rejectDetect{rejected: near.Fixtures()[0]})

	results := w.DetectAABB(actor.AABB{Min: mgl64.Vec2{0, -1}, Max: mgl64.Vec2{12, 1}})
	if len(results) != 1 || results[0].Body != far {
		t.Errorf("DetectAABB() = %v, want the far box", results)
	}
}

// =============================================================================
// ConvexCast Tests
// =============================================================================

func TestWorld_ConvexCast(t *testing.T) {
	w, near, far := newQueryWorld(t)
	sensor := newTestBody(t, box(t, 1, 1), mgl64.Vec2{1.5, 0}, actor.MassInfinite)
	sensor.Fixtures()[0].SetSensor(true)
	mustAdd(t, w, sensor)

	shape := ball(t, 0.5)
	start := actor.NewTransform()

	t.Run("earliest", func(t *testing.T) {
		results := w.ConvexCast(shape, start, mgl64.Vec2{20, 0}, 0, false)
		if len(results) != 1 {
			t.Fatalf("ConvexCast() = %d results, want 1", len(results))
		}
		if results[0].Body != near {
			t.Errorf("Body = %v, want %v", results[0].Body, near)
		}
		// the ball touches the face at x = 2.5 once its center reaches x = 2
		if want := 2.0 / 20.0; math.Abs(results[0].Time-want) > 1e-3 {
			t.Errorf("Time = %v, want %v", results[0].Time, want)
		}
	})

	t.Run("all", func(t *testing.T) {
		results := w.ConvexCast(shape, start, mgl64.Vec2{20, 0}, 0, true)
		if len(results) != 2 {
			t.Fatalf("ConvexCast() = %d results, want 2", len(results))
		}
		if results[0].Body != near || results[1].Body != far {
			t.Errorf("results = [%v %v], want [near far]", results[0].Body, results[1].Body)
		}
		if results[0].Time > results[1].Time {
			t.Error("results not sorted by time")
		}
	})

	t.Run("short", func(t *testing.T) {
		if results := w.ConvexCast(shape, start, mgl64.Vec2{1, 0}, 0, true); len(results) != 0 {
			t.Errorf("ConvexCast() = %d results, want 0", len(results))
		}
	})

	t.Run("listener", func(t *testing.T) {
		w.Listeners().ConvexCast.Add(rejectConvexResult{rejected: near.Fixtures()[0]})
		defer w.Listeners().ConvexCast.Clear()

		results := w.ConvexCast(shape, start, mgl64.Vec2{20, 0}, 0, false)
		if len(results) != 1 || results[0].Body != far {
			t.Errorf("ConvexCast() = %v, want the far box", results)
		}
	})
}
