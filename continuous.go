package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/ccd"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/settings"
)

// TimeOfImpactDetector finds the first contact of two shapes moving along
// their sweeps within [t0, t1].
type TimeOfImpactDetector interface {
	Solve(a actor.Convex, sweepA actor.Sweep, b actor.Convex, sweepB actor.Sweep, t0, t1 float64) (ccd.TimeOfImpact, bool)
}

var _ TimeOfImpactDetector = ccd.ConservativeAdvancement{}

// impact is the earliest time of impact found for a body.
type impact struct {
	other *actor.Body
	toi   ccd.TimeOfImpact
}

// solveTOI stops the fast bodies of the step at their first impact.
//
// Only bodies solved this step are considered. In bullets only mode the
// other dynamic bodies are skipped unless the body is a bullet.
func (w *World) solveTOI() {
	mode := w.settings.ContinuousDetectionMode
	if mode == settings.CCDNone {
		return
	}

	for _, body := range w.bodies {
		if !body.IsDynamic() || !body.IsActive() || body.IsAsleep() || !body.IsOnIsland() {
			continue
		}
		if mode == settings.CCDBulletsOnly && !body.IsBullet() {
			continue
		}
		w.solveBodyTOI(body)
	}
}

// solveBodyTOI moves body and the body it hits first back to the time of
// impact and pushes them into shallow contact. The time left in the step
// after the impact is not simulated.
func (w *World) solveBodyTOI(body *actor.Body) {
	sweep := body.Sweep()
	swept := body.CreateSweptAABB()

	var first impact
	found := false
	t1 := 1.0

	for _, other := range w.bodies {
		if other == body || !other.IsActive() {
			continue
		}
		// fast dynamic bodies are only tested against each other when bullets
		if other.IsDynamic() && !body.IsBullet() {
			continue
		}
		if w.graph.isInContact(body, other) || !w.graph.isCollisionAllowed(body, other) {
			continue
		}
		if !swept.Overlaps(other.CreateSweptAABB()) {
			continue
		}
		if !w.listeners.TimeOfImpact.allow(func(l TimeOfImpactListener) bool { return l.AllowBodies(body, other) }) {
			continue
		}

		otherSweep := other.Sweep()
		for _, fixtureA := range body.Fixtures() {
			if fixtureA.IsSensor() {
				continue
			}
			for _, fixtureB := range other.Fixtures() {
				if fixtureB.IsSensor() {
					continue
				}
				if !fixtureA.Filter().IsAllowed(fixtureB.Filter()) || !fixtureB.Filter().IsAllowed(fixtureA.Filter()) {
					continue
				}
				if !w.listeners.TimeOfImpact.allow(func(l TimeOfImpactListener) bool { return l.AllowFixtures(fixtureA, fixtureB) }) {
					continue
				}

				toi, ok := w.toiDetector.Solve(fixtureA.Shape(), sweep, fixtureB.Shape(), otherSweep, 0, t1)
				if !ok || (found && toi.Time >= t1) {
					continue
				}
				if !w.listeners.TimeOfImpact.allow(func(l TimeOfImpactListener) bool {
					return l.AllowImpact(fixtureA, fixtureB, toi)
				}) {
					continue
				}

				first = impact{other: other, toi: toi}
				found = true
				t1 = toi.Time
			}
		}
	}

	if !found {
		return
	}

	body.SetTransform(sweep.TransformAt(first.toi.Time))
	if first.other.IsDynamic() {
		first.other.SetTransform(first.other.Sweep().TransformAt(first.toi.Time))
	}
	constraint.SolveTimeOfImpact(body, first.other, first.toi.Separation, w.settings)

	w.logger.Debug("time of impact", "body", body.ID(), "other", first.other.ID(), "time", first.toi.Time)
}
