package constraint

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/akmonengine/feather2d/settings"
)

// SolveTimeOfImpact moves two bodies stopped at their time of impact along
// the separation normal until they overlap by the linear tolerance, so that
// the next detection finds the contact. It is a single linearized position
// step: the correction is clamped to the maximum linear correction.
func SolveTimeOfImpact(bodyA, bodyB *actor.Body, separation gjk.Separation, cfg settings.Settings) {
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()
	n := separation.Normal

	rA := separation.PointA.Sub(bodyA.WorldCenter())
	rB := separation.PointB.Sub(bodyB.WorldCenter())
	rnA := actor.Cross(rA, n)
	rnB := actor.Cross(rB, n)
	k := invMA + invMB + invIA*rnA*rnA + invIB*rnB*rnB
	if k <= actor.Epsilon {
		return
	}

	c := actor.Clamp(separation.Distance+cfg.LinearTolerance, -cfg.MaximumLinearCorrection, cfg.MaximumLinearCorrection)
	impulse := n.Mul(c / k)

	// A moves toward B, B toward A
	applyCorrection(bodyA, impulse, rA)
	applyCorrection(bodyB, impulse.Mul(-1), rB)
}
