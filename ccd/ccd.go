// Package ccd computes the time of impact of two convex shapes moving during
// one step, so that fast bodies can be stopped at the first contact instead of
// tunneling through thin geometry.
//
// The detector uses conservative advancement: at every iteration the distance
// between the shapes is divided by an upper bound of their closing speed,
// giving a time step that cannot skip past the first contact.
//
// References:
//   - Mirtich: "Impulse-based Dynamic Simulation of Rigid Body Systems" (1996)
//   - Zhang, Redon, Lee, Kim: "Continuous Collision Detection for Articulated Models
//     using Taylor Models and Temporal Culling" (2007)
package ccd

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
)

const (
	// DefaultDistanceTolerance is the gap under which the shapes are considered in contact.
	DefaultDistanceTolerance = 6.0e-6
	// DefaultMaxIterations bounds the advancement and bisection loops.
	DefaultMaxIterations = 30
)

// TimeOfImpact is the first instant of contact within a sweep.
type TimeOfImpact struct {
	// Time is the sweep fraction of the impact, in [0, 1]
	Time float64
	// Separation is measured between the shapes at Time
	Separation gjk.Separation
}

// ConservativeAdvancement is the default time of impact detector.
type ConservativeAdvancement struct {
	DistanceTolerance float64
	MaxIterations     int
}

// NewConservativeAdvancement returns a detector using the default tolerances.
func NewConservativeAdvancement() ConservativeAdvancement {
	return ConservativeAdvancement{
		DistanceTolerance: DefaultDistanceTolerance,
		MaxIterations:     DefaultMaxIterations,
	}
}

// Solve finds the first time in [t0, t1] at which a, moving along sweepA,
// touches b, moving along sweepB. Shapes are in body local space.
//
// It returns false when the shapes already overlap at t0, when they do not
// approach each other, or when they are still apart at t1.
func (c ConservativeAdvancement) Solve(a actor.Convex, sweepA actor.Sweep, b actor.Convex, sweepB actor.Sweep, t0, t1 float64) (TimeOfImpact, bool) {
	tolerance := c.DistanceTolerance
	if tolerance <= 0 {
		tolerance = DefaultDistanceTolerance
	}
	maxIterations := c.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	separation, separated := gjk.Distance(a, sweepA.TransformAt(t0), b, sweepB.TransformAt(t0))
	if !separated {
		return TimeOfImpact{}, false
	}
	if separation.Distance < tolerance {
		return TimeOfImpact{Time: t0, Separation: separation}, true
	}

	// relative displacement of A toward B, and the largest speed any point
	// can gain from the rotations
	relative := sweepA.Translation.Sub(sweepB.Translation)
	angularBound := math.Abs(sweepA.Rotation)*sweepA.Radius + math.Abs(sweepB.Rotation)*sweepB.Radius
	if actor.IsZero(relative) && angularBound <= actor.Epsilon {
		return TimeOfImpact{}, false
	}

	l := t0
	for i := 0; i < maxIterations && separation.Distance > tolerance; i++ {
		bound := relative.Dot(separation.Normal) + angularBound
		if bound <= actor.Epsilon {
			return TimeOfImpact{}, false
		}

		next := l + separation.Distance/bound
		if next > t1 {
			return TimeOfImpact{}, false
		}
		if next <= l {
			break
		}

		s, ok := gjk.Distance(a, sweepA.TransformAt(next), b, sweepB.TransformAt(next))
		if !ok {
			// the bound was exceeded numerically: find the last separated time
			l, separation = c.bisect(a, sweepA, b, sweepB, l, next, separation, tolerance, maxIterations)
			break
		}

		l = next
		separation = s
	}

	return TimeOfImpact{Time: l, Separation: separation}, true
}

// bisect narrows [separatedAt, overlapAt] keeping the lower end separated.
func (c ConservativeAdvancement) bisect(a actor.Convex, sweepA actor.Sweep, b actor.Convex, sweepB actor.Sweep,
	separatedAt, overlapAt float64, separation gjk.Separation, tolerance float64, maxIterations int) (float64, gjk.Separation) {
	for i := 0; i < maxIterations && separation.Distance > tolerance; i++ {
		mid := 0.5 * (separatedAt + overlapAt)
		s, ok := gjk.Distance(a, sweepA.TransformAt(mid), b, sweepB.TransformAt(mid))
		if ok {
			separatedAt = mid
			separation = s
		} else {
			overlapAt = mid
		}
	}

	return separatedAt, separation
}
