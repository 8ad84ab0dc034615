package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
)

// NarrowphaseDetector tests two convex shapes for overlap.
type NarrowphaseDetector interface {
	Detect(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) (epa.Penetration, bool)
}

// ManifoldSolver builds the contact points of a penetration.
type ManifoldSolver interface {
	Manifold(penetration epa.Penetration, a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) (epa.Manifold, bool)
}

var (
	_ NarrowphaseDetector = epa.Detector{}
	_ ManifoldSolver      = epa.ClippingManifoldSolver{}
)

// detect refreshes the broadphase, finds the contacts and rebuilds the
// contact edges of the constraint graph.
//
// Phases:
//  1. Update the proxies of the active bodies, deactivating those out of bounds
//  2. Broad phase: pairs of fixtures with overlapping bounds
//  3. Narrow phase: penetration of each allowed pair
//  4. Manifold: contact points, merged into the contact manager
func (w *World) detect() {
	w.updateBroadphase()

	for _, pair := range w.broadphase.Detect() {
		w.detectPair(pair)
	}

	w.contacts.update(&w.listeners.Contact, w.settings)

	w.graph.clearContacts()
	for _, c := range w.contacts.constraints {
		w.graph.addContact(c)
	}
}

func (w *World) updateBroadphase() {
	for _, body := range w.bodies {
		if !body.IsActive() {
			continue
		}
		w.broadphase.UpdateBody(body)

		if w.bounds != nil && w.bounds.IsOutside(body) {
			body.SetActive(false)
			w.logger.Info("body left the world bounds", "body", body.ID(), "position", body.Transform().Position)
			w.listeners.Bounds.each(func(l BoundsListener) { l.Outside(body) })
		}
	}
}

// detectPair runs the narrow phase of a broadphase pair and queues the
// resulting constraint.
func (w *World) detectPair(pair BroadphasePair) {
	fixtureA, fixtureB := pair.FixtureA, pair.FixtureB
	// fixture A is the one with the smaller id so that normals keep their
	// orientation from one step to the next
	if fixtureB.ID() < fixtureA.ID() {
		fixtureA, fixtureB = fixtureB, fixtureA
	}
	bodyA, bodyB := fixtureA.Body(), fixtureB.Body()

	if !w.isPairAllowed(fixtureA, fixtureB) {
		return
	}

	// sleeping pairs keep their contact untouched
	if bodyA.IsAsleep() && bodyB.IsAsleep() {
		if old := w.contacts.previous(fixtureA, fixtureB); old != nil {
			w.contacts.keep(old)
		}
		return
	}

	if !w.listeners.Collision.allow(func(l CollisionListener) bool { return l.AllowBroadphase(fixtureA, fixtureB) }) {
		return
	}

	ta, tb := bodyA.Transform(), bodyB.Transform()
	penetration, ok := w.narrowphase.Detect(fixtureA.Shape(), ta, fixtureB.Shape(), tb)
	if !ok {
		return
	}
	if !w.listeners.Collision.allow(func(l CollisionListener) bool {
		return l.AllowNarrowphase(fixtureA, fixtureB, penetration)
	}) {
		return
	}

	manifold, ok := w.manifoldSolver.Manifold(penetration, fixtureA.Shape(), ta, fixtureB.Shape(), tb)
	if !ok {
		return
	}
	if !w.listeners.Collision.allow(func(l CollisionListener) bool {
		return l.AllowManifold(fixtureA, fixtureB, manifold)
	}) {
		return
	}

	w.contacts.add(constraint.NewContactConstraint(fixtureA, fixtureB, manifold, w.mixer))
}

// isPairAllowed applies the checks that do not depend on the shapes: both
// bodies active, at least one dynamic, no joint forbidding the collision and
// both filters allowing it.
func (w *World) isPairAllowed(fixtureA, fixtureB *actor.Fixture) bool {
	bodyA, bodyB := fixtureA.Body(), fixtureB.Body()

	if !bodyA.IsActive() || !bodyB.IsActive() {
		return false
	}
	if !bodyA.IsDynamic() && !bodyB.IsDynamic() {
		return false
	}
	if !w.graph.isCollisionAllowed(bodyA, bodyB) {
		return false
	}

	return fixtureA.Filter().IsAllowed(fixtureB.Filter()) && fixtureB.Filter().IsAllowed(fixtureA.Filter())
}
