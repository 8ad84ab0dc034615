package feather2d

import (
	"reflect"
	"slices"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/ccd"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Listeners run synchronously inside the step. They may read and change
// bodies, but must not add or remove bodies, fixtures or joints.
//
// Hooks returning a bool can veto: every listener of the category is still
// invoked, then the event chain for that pair or point stops.

// CollisionListener filters pairs at each stage of the detection.
type CollisionListener interface {
	// AllowBroadphase is called for fixtures whose bounds overlap
	AllowBroadphase(fixtureA, fixtureB *actor.Fixture) bool
	// AllowNarrowphase is called for fixtures that overlap
	AllowNarrowphase(fixtureA, fixtureB *actor.Fixture, penetration epa.Penetration) bool
	// AllowManifold is called before the manifold becomes a contact constraint
	AllowManifold(fixtureA, fixtureB *actor.Fixture, manifold epa.Manifold) bool
}

// ContactListener follows contact points across steps.
type ContactListener interface {
	// Begin is called for a new point. Returning false drops it.
	Begin(point ContactPoint) bool
	// Persist is called for a point matched with one of the previous step.
	// Returning false drops it.
	Persist(point PersistedContactPoint) bool
	// End is called for a point of the previous step that is gone
	End(point ContactPoint)
	// Sensed is called every step for the points of sensor fixtures
	Sensed(point ContactPoint)
	// PreSolve is called before solving. Returning false disables the point
	// for this step.
	PreSolve(point ContactPoint) bool
	// PostSolve is called after solving with the final impulses
	PostSolve(point SolvedContactPoint)
}

// BoundsListener is notified when a body leaves the world bounds.
// The body is deactivated before the call.
type BoundsListener interface {
	Outside(body *actor.Body)
}

// StepListener is notified at the stages of every step.
type StepListener interface {
	BeginStep(step settings.Step, world *World)
	// UpdatePerformed follows the detection run when bodies or joints changed
	UpdatePerformed(step settings.Step, world *World)
	// SolvePerformed follows the island solve, before continuous detection
	SolvePerformed(step settings.Step, world *World)
	EndStep(step settings.Step, world *World)
}

// TimeOfImpactListener filters continuous collision detection.
type TimeOfImpactListener interface {
	AllowBodies(bodyA, bodyB *actor.Body) bool
	AllowFixtures(fixtureA, fixtureB *actor.Fixture) bool
	// AllowImpact is called with the earliest impact found for a fixture pair
	AllowImpact(fixtureA, fixtureB *actor.Fixture, toi ccd.TimeOfImpact) bool
}

// RaycastListener filters World.Raycast.
type RaycastListener interface {
	AllowFixture(ray actor.Ray, fixture *actor.Fixture) bool
	AllowResult(ray actor.Ray, fixture *actor.Fixture, result actor.RaycastResult) bool
}

// ConvexCastListener filters World.ConvexCast.
type ConvexCastListener interface {
	AllowFixture(convex actor.Convex, fixture *actor.Fixture) bool
	AllowResult(convex actor.Convex, fixture *actor.Fixture, toi ccd.TimeOfImpact) bool
}

// DetectListener filters World.DetectAABB.
type DetectListener interface {
	AllowFixture(aabb actor.AABB, fixture *actor.Fixture) bool
}

// DestructionListener is notified of what a removal implicitly destroys.
type DestructionListener interface {
	JointDestroyed(joint constraint.Joint)
	ContactDestroyed(contact *constraint.ContactConstraint)
}

// ============================================================================
// Contact points
// ============================================================================

// ContactPoint is a contact point as seen by listeners.
type ContactPoint struct {
	ID       epa.ManifoldPointID
	FixtureA *actor.Fixture
	FixtureB *actor.Fixture
	BodyA    *actor.Body
	BodyB    *actor.Body
	Point    mgl64.Vec2
	// Normal points from body A toward body B
	Normal mgl64.Vec2
	Depth  float64
	Sensor bool
}

// PersistedContactPoint is a point matched with one of the previous step.
type PersistedContactPoint struct {
	ContactPoint
	OldPoint  mgl64.Vec2
	OldNormal mgl64.Vec2
	OldDepth  float64
}

// SolvedContactPoint carries the impulses of a solved point.
type SolvedContactPoint struct {
	ContactPoint
	NormalImpulse  float64
	TangentImpulse float64
}

func newContactPoint(c *constraint.ContactConstraint, contact *constraint.Contact) ContactPoint {
	return ContactPoint{
		ID:       contact.ID,
		FixtureA: c.FixtureA(),
		FixtureB: c.FixtureB(),
		BodyA:    c.BodyA(),
		BodyB:    c.BodyB(),
		Point:    contact.Point,
		Normal:   c.Normal,
		Depth:    contact.Depth,
		Sensor:   c.IsSensor(),
	}
}

// ============================================================================
// Registries
// ============================================================================

// Registry is an ordered list of listeners of one category.
// Remove matches listeners with ==, so use pointers for stateful ones. A
// listener whose dynamic type is not comparable (a struct holding a slice,
// a func) can be added but never removed except by Clear.
type Registry[L any] struct {
	listeners []L
}

func (r *Registry[L]) Add(listener L) {
	r.listeners = append(r.listeners, listener)
}

// Remove drops the first occurrence of listener.
func (r *Registry[L]) Remove(listener L) bool {
	index := slices.IndexFunc(r.listeners, func(l L) bool {
		return sameListener(l, listener)
	})
	if index < 0 {
		return false
	}
	r.listeners = slices.Delete(r.listeners, index, index+1)
	return true
}

// sameListener reports whether a and b are equal without panicking on
// incomparable dynamic types.
func sameListener[L any](a, b L) bool {
	va, vb := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}

func (r *Registry[L]) Clear() {
	clear(r.listeners)
	r.listeners = r.listeners[:0]
}

func (r *Registry[L]) Len() int {
	return len(r.listeners)
}

// All returns the listeners in registration order.
// The slice must not be modified.
func (r *Registry[L]) All() []L {
	return r.listeners
}

// each calls fn for every listener
func (r *Registry[L]) each(fn func(L)) {
	for _, l := range r.listeners {
		fn(l)
	}
}

// allow calls fn for every listener and reports whether none vetoed.
func (r *Registry[L]) allow(fn func(L) bool) bool {
	allowed := true
	for _, l := range r.listeners {
		if !fn(l) {
			allowed = false
		}
	}
	return allowed
}

// Listeners holds one registry per listener category.
type Listeners struct {
	Collision    Registry[CollisionListener]
	Contact      Registry[ContactListener]
	Bounds       Registry[BoundsListener]
	Step         Registry[StepListener]
	TimeOfImpact Registry[TimeOfImpactListener]
	Raycast      Registry[RaycastListener]
	ConvexCast   Registry[ConvexCastListener]
	Detect       Registry[DetectListener]
	Destruction  Registry[DestructionListener]
}

// Clear empties every registry.
func (l *Listeners) Clear() {
	l.Collision.Clear()
	l.Contact.Clear()
	l.Bounds.Clear()
	l.Step.Clear()
	l.TimeOfImpact.Clear()
	l.Raycast.Clear()
	l.ConvexCast.Clear()
	l.Detect.Clear()
	l.Destruction.Clear()
}

// ============================================================================
// Adapters
// ============================================================================

// The adapters allow everything and ignore notifications. Embed them to
// implement only the hooks of interest.

type CollisionAdapter struct{}

func (CollisionAdapter) AllowBroadphase(_, _ *actor.Fixture) bool { return true }
func (CollisionAdapter) AllowNarrowphase(_, _ *actor.Fixture, _ epa.Penetration) bool { return true }
func (CollisionAdapter) AllowManifold(_, _ *actor.Fixture, _ epa.Manifold) bool { return true }

type ContactAdapter struct{}

func (ContactAdapter) Begin(ContactPoint) bool { return true }
func (ContactAdapter) Persist(PersistedContactPoint) bool { return true }
func (ContactAdapter) End(ContactPoint) {}
func (ContactAdapter) Sensed(ContactPoint) {}
func (ContactAdapter) PreSolve(ContactPoint) bool { return true }
func (ContactAdapter) PostSolve(SolvedContactPoint) {}

type StepAdapter struct{}

func (StepAdapter) BeginStep(settings.Step, *World) {}
func (StepAdapter) UpdatePerformed(settings.Step, *World) {}
func (StepAdapter) SolvePerformed(settings.Step, *World) {}
func (StepAdapter) EndStep(settings.Step, *World) {}

type TimeOfImpactAdapter struct{}

func (TimeOfImpactAdapter) AllowBodies(_, _ *actor.Body) bool { return true }
func (TimeOfImpactAdapter) AllowFixtures(_, _ *actor.Fixture) bool { return true }
func (TimeOfImpactAdapter) AllowImpact(_, _ *actor.Fixture, _ ccd.TimeOfImpact) bool { return true }

type RaycastAdapter struct{}

func (RaycastAdapter) AllowFixture(actor.Ray, *actor.Fixture) bool { return true }
func (RaycastAdapter) AllowResult(actor.Ray, *actor.Fixture, actor.RaycastResult) bool { return true }

type ConvexCastAdapter struct{}

func (ConvexCastAdapter) AllowFixture(actor.Convex, *actor.Fixture) bool { return true }
func (ConvexCastAdapter) AllowResult(actor.Convex, *actor.Fixture, ccd.TimeOfImpact) bool { return true }

type DestructionAdapter struct{}

func (DestructionAdapter) JointDestroyed(constraint.Joint) {}
func (DestructionAdapter) ContactDestroyed(*constraint.ContactConstraint) {}
