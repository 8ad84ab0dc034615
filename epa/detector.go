package epa

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
)

// Detector is the default narrowphase: an analytic test for pairs of circles,
// GJK followed by EPA for everything else.
type Detector struct{}

// Detect reports whether the shapes overlap and their penetration.
// The normal points from a toward b.
func (Detector) Detect(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) (Penetration, bool) {
	if ca, ok := a.(*actor.Circle); ok {
		if cb, ok := b.(*actor.Circle); ok {
			return detectCircles(ca, ta, cb, tb)
		}
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	if !gjk.Detect(a, ta, b, tb, simplex) {
		return Penetration{}, false
	}

	return EPA(a, ta, b, tb, simplex), true
}

func detectCircles(a *actor.Circle, ta actor.Transform, b *actor.Circle, tb actor.Transform) (Penetration, bool) {
	d := tb.ToWorld(b.Center()).Sub(ta.ToWorld(a.Center()))
	radii := a.Radius() + b.Radius()
	if actor.LenSqr(d) >= radii*radii {
		return Penetration{}, false
	}

	normal, length := actor.SafeNormalize(d)
	if length == 0 {
		// concentric circles, any direction separates them
		normal[0] = 1
	}

	return Penetration{Normal: normal, Depth: radii - length}, true
}
