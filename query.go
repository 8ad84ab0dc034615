package feather2d

import (
	"cmp"
	"slices"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/ccd"
	"github.com/go-gl/mathgl/mgl64"
)

// RaycastResult is a fixture hit by a ray.
type RaycastResult struct {
	Body    *actor.Body
	Fixture *actor.Fixture
	actor.RaycastResult
}

// DetectResult is a fixture found by a region query.
type DetectResult struct {
	Body    *actor.Body
	Fixture *actor.Fixture
}

// ConvexCastResult is a fixture hit by a moving convex shape.
type ConvexCastResult struct {
	Body    *actor.Body
	Fixture *actor.Fixture
	ccd.TimeOfImpact
}

// Raycast returns the fixtures of active bodies hit by the ray within
// maxLength, nearest first. A maxLength <= 0 means an infinite ray.
// Unless all is set only the nearest hit is returned.
func (w *World) Raycast(ray actor.Ray, maxLength float64, all bool) []RaycastResult {
	var results []RaycastResult

	for _, fixture := range w.broadphase.Raycast(ray, maxLength) {
		body := fixture.Body()
		if body == nil || !body.IsActive() {
			continue
		}
		if !w.listeners.Raycast.allow(func(l RaycastListener) bool { return l.AllowFixture(ray, fixture) }) {
			continue
		}

		hit, ok := fixture.Shape().Raycast(ray, maxLength, body.Transform())
		if !ok {
			continue
		}
		if !w.listeners.Raycast.allow(func(l RaycastListener) bool { return l.AllowResult(ray, fixture, hit) }) {
			continue
		}

		results = append(results, RaycastResult{Body: body, Fixture: fixture, RaycastResult: hit})
	}

	slices.SortStableFunc(results, func(a, b RaycastResult) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if !all && len(results) > 1 {
		results = results[:1]
	}
	return results
}

// DetectAABB returns the fixtures of active bodies whose bounds overlap aabb.
func (w *World) DetectAABB(aabb actor.AABB) []DetectResult {
	var results []DetectResult

	for _, fixture := range w.broadphase.DetectAABB(aabb) {
		body := fixture.Body()
		if body == nil || !body.IsActive() {
			continue
		}
		if !w.listeners.Detect.allow(func(l DetectListener) bool { return l.AllowFixture(aabb, fixture) }) {
			continue
		}
		results = append(results, DetectResult{Body: body, Fixture: fixture})
	}

	return results
}

// ConvexCast sweeps convex from transform by deltaPosition and deltaAngle and
// returns the fixtures of active bodies it hits, earliest first. Sensor
// fixtures are ignored. Unless all is set only the earliest hit is returned.
func (w *World) ConvexCast(convex actor.Convex, transform actor.Transform, deltaPosition mgl64.Vec2, deltaAngle float64, all bool) []ConvexCastResult {
	center := convex.Center()
	radius := convex.RadiusFrom(center)

	end := transform
	end.Translate(deltaPosition)
	end.RotateAbout(deltaAngle, end.ToWorld(center))
	sweep := actor.NewSweep(transform, end, center, radius)

	bounds := actor.NewAABBFromCircle(transform.ToWorld(center), radius).
		Union(actor.NewAABBFromCircle(end.ToWorld(center), radius))

	var results []ConvexCastResult
	for _, fixture := range w.broadphase.DetectAABB(bounds) {
		body := fixture.Body()
		if body == nil || !body.IsActive() || fixture.IsSensor() {
			continue
		}
		if !w.listeners.ConvexCast.allow(func(l ConvexCastListener) bool { return l.AllowFixture(convex, fixture) }) {
			continue
		}

		still := actor.NewSweep(body.Transform(), body.Transform(), body.LocalCenter(), body.RotationDiscRadius())
		toi, ok := w.toiDetector.Solve(convex, sweep, fixture.Shape(), still, 0, 1)
		if !ok {
			continue
		}
		if !w.listeners.ConvexCast.allow(func(l ConvexCastListener) bool { return l.AllowResult(convex, fixture, toi) }) {
			continue
		}

		results = append(results, ConvexCastResult{Body: body, Fixture: fixture, TimeOfImpact: toi})
	}

	slices.SortStableFunc(results, func(a, b ConvexCastResult) int {
		return cmp.Compare(a.Time, b.Time)
	})
	if !all && len(results) > 1 {
		results = results[:1]
	}
	return results
}
