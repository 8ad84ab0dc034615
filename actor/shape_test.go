package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// Helper functions
func vec2Equal(a, b mgl64.Vec2, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func mustRectangle(t *testing.T, w, h float64) *Polygon {
	t.Helper()
	p, err := NewRectangle(w, h)
	if err != nil {
		t.Fatalf("NewRectangle(%v, %v) error = %v", w, h, err)
	}
	return p
}

func mustCircle(t *testing.T, r float64) *Circle {
	t.Helper()
	c, err := NewCircle(r)
	if err != nil {
		t.Fatalf("NewCircle(%v) error = %v", r, err)
	}
	return c
}

// ========== CONSTRUCTION ==========

func TestNewPolygon_Validation(t *testing.T) {
	tests := []struct {
		name     string
		vertices []mgl64.Vec2
		wantErr  error
	}{
		{"two vertices", []mgl64.Vec2{{0, 0}, {1, 0}}, ErrInvalidPolygon},
		{"collinear", []mgl64.Vec2{{0, 0}, {1, 0}, {2, 0}}, ErrInvalidPolygon},
		{"duplicate", []mgl64.Vec2{{0, 0}, {1, 0}, {1, 0}, {0, 1}}, ErrInvalidPolygon},
		{"concave", []mgl64.Vec2{{0, 0}, {2, 0}, {1, 0.5}, {2, 2}, {0, 2}}, ErrInvalidPolygon},
		{"triangle ccw", []mgl64.Vec2{{0, 0}, {1, 0}, {0, 1}}, nil},
		{"triangle cw", []mgl64.Vec2{{0, 0}, {0, 1}, {1, 0}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolygon(tt.vertices...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPolygon() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPolygon_ClockwiseIsReordered(t *testing.T) {
	p, err := NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{0, 1}, mgl64.Vec2{1, 0})
	if err != nil {
		t.Fatal(err)
	}

	v := p.Vertices()
	area := 0.0
	for i := range v {
		area += Cross(v[i], v[(i+1)%len(v)])
	}
	if area <= 0 {
		t.Errorf("vertices should be counter-clockwise, signed area = %v", area)
	}

	for i, n := range p.Normals() {
		if !floatEqual(n.Len(), 1, 1e-12) {
			t.Errorf("normal %d not unit: %v", i, n)
		}
		// every other vertex lies behind the edge
		for j, w := range v {
			if j == i || j == (i+1)%len(v) {
				continue
			}
			if n.Dot(w.Sub(v[i])) >= 0 {
				t.Errorf("normal %d is not outward", i)
			}
		}
	}
}

func TestShapeDimensions_Invalid(t *testing.T) {
	if _, err := NewCircle(0); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("NewCircle(0) error = %v, want %v", err, ErrInvalidDimension)
	}
	if _, err := NewCircle(math.NaN()); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("NewCircle(NaN) error = %v, want %v", err, ErrInvalidDimension)
	}
	if _, err := NewRectangle(-1, 1); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("NewRectangle(-1, 1) error = %v, want %v", err, ErrInvalidDimension)
	}
}

// ========== MASS ==========

func TestCreateMass(t *testing.T) {
	triangle, err := NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{0, 1})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		shape       Convex
		density     float64
		wantMass    float64
		wantInertia float64
		wantCenter  mgl64.Vec2
	}{
		{
			name:        "unit circle",
			shape:       mustCircle(t, 1),
			density:     1,
			wantMass:    math.Pi,
			wantInertia: math.Pi * 0.5,
		},
		{
			name:        "rectangle 2x1",
			shape:       mustRectangle(t, 2, 1),
			density:     1,
			wantMass:    2,
			wantInertia: 2 * (4 + 1) / 12.0,
		},
		{
			name:        "dense square",
			shape:       mustRectangle(t, 1, 1),
			density:     3,
			wantMass:    3,
			wantInertia: 3 * 2 / 12.0,
		},
		{
			name:     "right triangle",
			shape:    triangle,
			density:  1,
			wantMass: 0.5,
			// about the centroid: m*(a²+b²)/18 for legs a and b
			wantInertia: 0.5 * 2 / 18.0,
			wantCenter:  mgl64.Vec2{1.0 / 3.0, 1.0 / 3.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.shape.CreateMass(tt.density)
			if m.Type != MassNormal {
				t.Errorf("Type = %v, want %v", m.Type, MassNormal)
			}
			if !floatEqual(m.Mass(), tt.wantMass, 1e-9) {
				t.Errorf("Mass() = %v, want %v", m.Mass(), tt.wantMass)
			}
			if !floatEqual(m.Inertia(), tt.wantInertia, 1e-9) {
				t.Errorf("Inertia() = %v, want %v", m.Inertia(), tt.wantInertia)
			}
			if !vec2Equal(m.Center, tt.wantCenter, 1e-9) {
				t.Errorf("Center = %v, want %v", m.Center, tt.wantCenter)
			}
			if !floatEqual(m.InverseMass()*m.Mass(), 1, 1e-12) {
				t.Errorf("InverseMass() = %v", m.InverseMass())
			}
		})
	}
}

func TestCombineMasses_ParallelAxis(t *testing.T) {
	left := NewMass(mgl64.Vec2{-1, 0}, 1, 0.5)
	right := NewMass(mgl64.Vec2{1, 0}, 1, 0.5)

	m := CombineMasses([]Mass{left, right})

	if !floatEqual(m.Mass(), 2, 1e-12) {
		t.Errorf("Mass() = %v, want 2", m.Mass())
	}
	if !vec2Equal(m.Center, mgl64.Vec2{}, 1e-12) {
		t.Errorf("Center = %v, want origin", m.Center)
	}
	// Σ(I_i + m_i·d_i²) = 2 * (0.5 + 1)
	if !floatEqual(m.Inertia(), 3, 1e-12) {
		t.Errorf("Inertia() = %v, want 3", m.Inertia())
	}
}

func TestCombineMasses_Degenerate(t *testing.T) {
	if m := CombineMasses(nil); !m.IsInfinite() {
		t.Errorf("CombineMasses(nil).Type = %v, want infinite", m.Type)
	}

	single := NewMass(mgl64.Vec2{1, 2}, 3, 4)
	if m := CombineMasses([]Mass{single}); m != single {
		t.Errorf("CombineMasses(single) = %+v, want %+v", m, single)
	}
}

func TestMassTypes(t *testing.T) {
	tests := []struct {
		name                 string
		mass                 Mass
		massType             MassType
		wantInvM, wantInvI   float64
		wantMass, wantInertia float64
	}{
		{"normal", NewMass(mgl64.Vec2{}, 2, 4), MassNormal, 0.5, 0.25, 2, 4},
		{"infinite", NewMass(mgl64.Vec2{}, 2, 4), MassInfinite, 0, 0, 0, 0},
		{"fixed linear", NewMass(mgl64.Vec2{}, 2, 4), MassFixedLinearVelocity, 0, 0.25, 0, 4},
		{"fixed angular", NewMass(mgl64.Vec2{}, 2, 4), MassFixedAngularVelocity, 0.5, 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mass
			m.Type = tt.massType
			if m.InverseMass() != tt.wantInvM || m.InverseInertia() != tt.wantInvI {
				t.Errorf("inverse = (%v, %v), want (%v, %v)", m.InverseMass(), m.InverseInertia(), tt.wantInvM, tt.wantInvI)
			}
			if m.Mass() != tt.wantMass || m.Inertia() != tt.wantInertia {
				t.Errorf("mass = (%v, %v), want (%v, %v)", m.Mass(), m.Inertia(), tt.wantMass, tt.wantInertia)
			}
		})
	}

	if NewMass(mgl64.Vec2{}, 0, 1).Type != MassFixedLinearVelocity {
		t.Error("zero mass should give a fixed linear velocity type")
	}
	if NewMass(mgl64.Vec2{}, 1, 0).Type != MassFixedAngularVelocity {
		t.Error("zero inertia should give a fixed angular velocity type")
	}
}

// ========== SUPPORT & FEATURES ==========

func TestSupport(t *testing.T) {
	box := mustRectangle(t, 2, 2)
	circle := mustCircle(t, 1)
	moved := NewTransformAt(mgl64.Vec2{3, 0}, 0)
	rotated := NewTransformAt(mgl64.Vec2{}, math.Pi/4)

	tests := []struct {
		name      string
		shape     Convex
		transform Transform
		direction mgl64.Vec2
		want      mgl64.Vec2
	}{
		{"box corner", box, NewTransform(), mgl64.Vec2{1, 1}, mgl64.Vec2{1, 1}},
		{"box translated", box, moved, mgl64.Vec2{1, -1}, mgl64.Vec2{4, -1}},
		{"box rotated", box, rotated, mgl64.Vec2{1, 0}, mgl64.Vec2{math.Sqrt2, 0}},
		{"circle", circle, NewTransform(), mgl64.Vec2{0, 2}, mgl64.Vec2{0, 1}},
		{"circle translated", circle, moved, mgl64.Vec2{-1, 0}, mgl64.Vec2{2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.shape.Support(tt.direction, tt.transform)
			if !vec2Equal(got, tt.want, 1e-9) {
				t.Errorf("Support(%v) = %v, want %v", tt.direction, got, tt.want)
			}
		})
	}
}

func TestFarthestFeature(t *testing.T) {
	box := mustRectangle(t, 2, 1)

	top := box.FarthestFeature(mgl64.Vec2{0, 1}, NewTransform())
	if !top.IsEdge {
		t.Fatal("box feature should be an edge")
	}
	if !floatEqual(top.Vertex1.Point.Y(), 0.5, 1e-12) || !floatEqual(top.Vertex2.Point.Y(), 0.5, 1e-12) {
		t.Errorf("top edge = %v -> %v", top.Vertex1.Point, top.Vertex2.Point)
	}
	// counter-clockwise: the top edge goes right to left
	if top.Edge().X() >= 0 {
		t.Errorf("top edge direction = %v, want pointing to -X", top.Edge())
	}

	right := box.FarthestFeature(mgl64.Vec2{1, 0.1}, NewTransform())
	if !floatEqual(right.Vertex1.Point.X(), 1, 1e-12) || !floatEqual(right.Vertex2.Point.X(), 1, 1e-12) {
		t.Errorf("right edge = %v -> %v", right.Vertex1.Point, right.Vertex2.Point)
	}

	point := mustCircle(t, 1).FarthestFeature(mgl64.Vec2{0, -1}, NewTransform())
	if point.IsEdge {
		t.Error("circle feature should be a point")
	}
	if !vec2Equal(point.Max.Point, mgl64.Vec2{0, -1}, 1e-12) {
		t.Errorf("circle feature = %v", point.Max.Point)
	}
}

func TestRadiusFrom(t *testing.T) {
	box := mustRectangle(t, 2, 2)
	if r := box.RadiusFrom(mgl64.Vec2{}); !floatEqual(r, math.Sqrt2, 1e-12) {
		t.Errorf("box RadiusFrom(origin) = %v, want √2", r)
	}
	if r := box.RadiusFrom(mgl64.Vec2{1, 1}); !floatEqual(r, 2*math.Sqrt2, 1e-12) {
		t.Errorf("box RadiusFrom(corner) = %v, want 2√2", r)
	}

	circle, _ := NewCircleAt(mgl64.Vec2{1, 0}, 0.5)
	if r := circle.RadiusFrom(mgl64.Vec2{}); !floatEqual(r, 1.5, 1e-12) {
		t.Errorf("circle RadiusFrom(origin) = %v, want 1.5", r)
	}
}

// ========== RAYCAST & CONTAINS ==========

func TestShapeRaycast(t *testing.T) {
	box := mustRectangle(t, 2, 1)
	circle := mustCircle(t, 1)

	tests := []struct {
		name         string
		shape        Convex
		ray          Ray
		maxLength    float64
		wantHit      bool
		wantDistance float64
		wantNormal   mgl64.Vec2
	}{
		{"box from left", box, NewRay(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}), 0, true, 4, mgl64.Vec2{-1, 0}},
		{"box from above", box, NewRay(mgl64.Vec2{0, 3}, mgl64.Vec2{0, -1}), 0, true, 2.5, mgl64.Vec2{0, 1}},
		{"box miss", box, NewRay(mgl64.Vec2{-5, 2}, mgl64.Vec2{1, 0}), 0, false, 0, mgl64.Vec2{}},
		{"box too short", box, NewRay(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}), 3, false, 0, mgl64.Vec2{}},
		{"box from inside", box, NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), 0, false, 0, mgl64.Vec2{}},
		{"circle from left", circle, NewRay(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}), 0, true, 4, mgl64.Vec2{-1, 0}},
		{"circle behind", circle, NewRay(mgl64.Vec2{-5, 0}, mgl64.Vec2{-1, 0}), 0, false, 0, mgl64.Vec2{}},
		{"circle from inside", circle, NewRay(mgl64.Vec2{0.5, 0}, mgl64.Vec2{1, 0}), 0, false, 0, mgl64.Vec2{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, hit := tt.shape.Raycast(tt.ray, tt.maxLength, NewTransform())
			if hit != tt.wantHit {
				t.Fatalf("Raycast() hit = %v, want %v", hit, tt.wantHit)
			}
			if !hit {
				return
			}
			if !floatEqual(result.Distance, tt.wantDistance, 1e-9) {
				t.Errorf("Distance = %v, want %v", result.Distance, tt.wantDistance)
			}
			if !vec2Equal(result.Normal, tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", result.Normal, tt.wantNormal)
			}
			if !vec2Equal(result.Point, tt.ray.PointAt(tt.wantDistance), 1e-9) {
				t.Errorf("Point = %v", result.Point)
			}
		})
	}
}

func TestShapeContains(t *testing.T) {
	box := mustRectangle(t, 2, 2)
	transform := NewTransformAt(mgl64.Vec2{10, 0}, math.Pi/4)

	if !box.Contains(mgl64.Vec2{10, 1.3}, transform) {
		t.Error("rotated box should contain a point near its top corner")
	}
	if box.Contains(mgl64.Vec2{11, 1}, transform) {
		t.Error("rotated box should not contain the unrotated corner")
	}
	if !mustCircle(t, 1).Contains(mgl64.Vec2{0.6, 0.6}, NewTransform()) {
		t.Error("circle should contain (0.6, 0.6)")
	}
}

// ========== TRANSFORM ==========

func TestTransform_RoundTrip(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec2{1, -2}, 0.7)
	local := mgl64.Vec2{0.3, 4}

	world := transform.ToWorld(local)
	if back := transform.ToLocal(world); !vec2Equal(back, local, 1e-12) {
		t.Errorf("ToLocal(ToWorld(%v)) = %v", local, back)
	}
	v := transform.ToWorldVector(local)
	if back := transform.ToLocalVector(v); !vec2Equal(back, local, 1e-12) {
		t.Errorf("ToLocalVector(ToWorldVector(%v)) = %v", local, back)
	}
	if !floatEqual(v.Len(), local.Len(), 1e-12) {
		t.Error("rotating a vector should keep its length")
	}
}

func TestTransform_RotateAbout(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec2{2, 0}, 0)
	transform.RotateAbout(math.Pi/2, mgl64.Vec2{1, 0})

	if !vec2Equal(transform.Position, mgl64.Vec2{1, 1}, 1e-12) {
		t.Errorf("Position = %v, want (1, 1)", transform.Position)
	}
	if !floatEqual(transform.Angle(), math.Pi/2, 1e-12) {
		t.Errorf("Angle() = %v, want π/2", transform.Angle())
	}
}

func TestTransform_LerpAndSweep(t *testing.T) {
	center := mgl64.Vec2{0.5, 0}
	start := NewTransformAt(mgl64.Vec2{0, 0}, 0)
	end := NewTransformAt(mgl64.Vec2{2, 2}, math.Pi/2)

	half := start.Lerp(end, 0.5, center)
	c0, c1 := start.ToWorld(center), end.ToWorld(center)
	wantCenter := c0.Add(c1).Mul(0.5)
	if !vec2Equal(half.ToWorld(center), wantCenter, 1e-12) {
		t.Errorf("Lerp center = %v, want %v", half.ToWorld(center), wantCenter)
	}
	if !floatEqual(half.Angle(), math.Pi/4, 1e-12) {
		t.Errorf("Lerp angle = %v, want π/4", half.Angle())
	}

	sweep := NewSweep(start, end, center, 1)
	for _, alpha := range []float64{0, 0.5, 1} {
		got := sweep.TransformAt(alpha)
		want := start.Lerp(end, alpha, center)
		if !vec2Equal(got.Position, want.Position, 1e-12) || !floatEqual(got.Angle(), want.Angle(), 1e-12) {
			t.Errorf("TransformAt(%v) = %+v, want %+v", alpha, got, want)
		}
	}

	// crossing ±π takes the short way round
	wrap := NewTransformAt(mgl64.Vec2{}, math.Pi-0.1).Lerp(NewTransformAt(mgl64.Vec2{}, -math.Pi+0.1), 0.5, mgl64.Vec2{})
	if !floatEqual(math.Abs(wrap.Angle()), math.Pi, 1e-12) {
		t.Errorf("wrapped Lerp angle = %v, want ±π", wrap.Angle())
	}
}
