package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon represents a convex polygon collision shape.
// Vertices are stored counter-clockwise in local space.
type Polygon struct {
	vertices []mgl64.Vec2
	// normals[i] is the outward unit normal of the edge vertices[i] -> vertices[i+1]
	normals []mgl64.Vec2
	center  mgl64.Vec2
}

// NewPolygon creates a convex polygon. Vertices may be given in either
// winding; collinear, duplicate or concave vertices are rejected.
func NewPolygon(vertices ...mgl64.Vec2) (*Polygon, error) {
	n := len(vertices)
	if n < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d: %w", n, ErrInvalidPolygon)
	}

	v := make([]mgl64.Vec2, n)
	copy(v, vertices)

	// Winding from the signed area
	area := 0.0
	for i := 0; i < n; i++ {
		area += Cross(v[i], v[(i+1)%n])
	}
	if math.Abs(area) <= Epsilon {
		return nil, fmt.Errorf("polygon has no area: %w", ErrInvalidPolygon)
	}
	if area < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			v[i], v[j] = v[j], v[i]
		}
	}

	normals := make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		edge := v[(i+1)%n].Sub(v[i])
		if LenSqr(edge) <= Epsilon*Epsilon {
			return nil, fmt.Errorf("polygon has coincident vertices at %d: %w", i, ErrInvalidPolygon)
		}
		next := v[(i+2)%n].Sub(v[(i+1)%n])
		if Cross(edge, next) <= Epsilon {
			return nil, fmt.Errorf("polygon is not strictly convex at vertex %d: %w", (i+1)%n, ErrInvalidPolygon)
		}
		normals[i], _ = SafeNormalize(mgl64.Vec2{edge[1], -edge[0]})
	}

	p := &Polygon{vertices: v, normals: normals}
	p.center = p.CreateMass(1.0).Center

	return p, nil
}

// NewRectangle creates a width x height box centered on the body origin.
func NewRectangle(width, height float64) (*Polygon, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("rectangle %vx%v: %w", width, height, ErrInvalidDimension)
	}
	hw, hh := width*0.5, height*0.5

	return NewPolygon(
		mgl64.Vec2{-hw, -hh},
		mgl64.Vec2{hw, -hh},
		mgl64.Vec2{hw, hh},
		mgl64.Vec2{-hw, hh},
	)
}

// Vertices returns a copy of the local vertices.
func (p *Polygon) Vertices() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// Normals returns a copy of the local edge normals.
func (p *Polygon) Normals() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(p.normals))
	copy(out, p.normals)
	return out
}

func (p *Polygon) Center() mgl64.Vec2 {
	return p.center
}

func (p *Polygon) RadiusFrom(point mgl64.Vec2) float64 {
	r2 := 0.0
	for _, v := range p.vertices {
		r2 = math.Max(r2, LenSqr(v.Sub(point)))
	}
	return math.Sqrt(r2)
}

func (p *Polygon) CreateAABB(transform Transform) AABB {
	first := transform.ToWorld(p.vertices[0])
	aabb := AABB{Min: first, Max: first}

	for i := 1; i < len(p.vertices); i++ {
		w := transform.ToWorld(p.vertices[i])
		aabb.Min[0] = math.Min(aabb.Min[0], w[0])
		aabb.Min[1] = math.Min(aabb.Min[1], w[1])
		aabb.Max[0] = math.Max(aabb.Max[0], w[0])
		aabb.Max[1] = math.Max(aabb.Max[1], w[1])
	}

	return aabb
}

// CreateMass integrates the polygon as a fan of triangles around the
// average vertex; the inertia is returned about the centroid.
func (p *Polygon) CreateMass(density float64) Mass {
	n := len(p.vertices)

	var s mgl64.Vec2
	for _, v := range p.vertices {
		s = s.Add(v)
	}
	s = s.Mul(1.0 / float64(n))

	var center mgl64.Vec2
	area := 0.0
	inertia := 0.0
	for i := 0; i < n; i++ {
		e1 := p.vertices[i].Sub(s)
		e2 := p.vertices[(i+1)%n].Sub(s)

		d := Cross(e1, e2)
		triangleArea := 0.5 * d
		area += triangleArea
		center = center.Add(e1.Add(e2).Mul(triangleArea / 3.0))

		intx2 := e1[0]*e1[0] + e2[0]*e1[0] + e2[0]*e2[0]
		inty2 := e1[1]*e1[1] + e2[1]*e1[1] + e2[1]*e2[1]
		inertia += (0.25 / 3.0 * d) * (intx2 + inty2)
	}

	center = center.Mul(1.0 / area)
	mass := density * area
	// inertia about s, moved to the centroid
	inertia = density*inertia - mass*LenSqr(center)

	return NewMass(center.Add(s), mass, inertia)
}

// supportIndex returns the index of the vertex farthest along the local direction.
func (p *Polygon) supportIndex(local mgl64.Vec2) int {
	best := 0
	bestDot := p.vertices[0].Dot(local)
	for i := 1; i < len(p.vertices); i++ {
		if d := p.vertices[i].Dot(local); d > bestDot {
			best = i
			bestDot = d
		}
	}
	return best
}

func (p *Polygon) Support(direction mgl64.Vec2, transform Transform) mgl64.Vec2 {
	i := p.supportIndex(transform.ToLocalVector(direction))
	return transform.ToWorld(p.vertices[i])
}

// FarthestFeature returns the edge adjacent to the support vertex whose
// normal is the most aligned with direction.
func (p *Polygon) FarthestFeature(direction mgl64.Vec2, transform Transform) Feature {
	local := transform.ToLocalVector(direction)
	n := len(p.vertices)
	i := p.supportIndex(local)
	prev := (i - 1 + n) % n
	next := (i + 1) % n

	vertex := func(index int) Vertex {
		return Vertex{Point: transform.ToWorld(p.vertices[index]), Index: index}
	}

	farthest := vertex(i)
	if p.normals[i].Dot(local) >= p.normals[prev].Dot(local) {
		return Feature{IsEdge: true, Vertex1: farthest, Vertex2: vertex(next), Max: farthest, Index: i}
	}
	return Feature{IsEdge: true, Vertex1: vertex(prev), Vertex2: farthest, Max: farthest, Index: prev}
}

// Raycast clips the ray against every edge half-plane (Cyrus-Beck).
// A ray starting inside the polygon reports no hit.
func (p *Polygon) Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool) {
	start := transform.ToLocal(ray.Start)
	direction := transform.ToLocalVector(ray.Direction)

	lower := 0.0
	upper := math.Inf(1)
	if maxLength > 0 {
		upper = maxLength
	}
	index := -1

	for i, v := range p.vertices {
		numerator := p.normals[i].Dot(v.Sub(start))
		denominator := p.normals[i].Dot(direction)

		if math.Abs(denominator) <= Epsilon {
			// parallel to the edge, outside of it
			if numerator < 0 {
				return RaycastResult{}, false
			}
			continue
		}

		if denominator < 0 && numerator < lower*denominator {
			lower = numerator / denominator
			index = i
		} else if denominator > 0 && numerator < upper*denominator {
			upper = numerator / denominator
		}

		if upper < lower {
			return RaycastResult{}, false
		}
	}

	if index < 0 {
		return RaycastResult{}, false
	}

	return RaycastResult{
		Point:    ray.PointAt(lower),
		Normal:   transform.ToWorldVector(p.normals[index]),
		Distance: lower,
	}, true
}

func (p *Polygon) Contains(point mgl64.Vec2, transform Transform) bool {
	local := transform.ToLocal(point)
	for i, v := range p.vertices {
		if p.normals[i].Dot(local.Sub(v)) > 0 {
			return false
		}
	}
	return true
}
