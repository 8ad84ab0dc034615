package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Force is a queued force. Without a duration it is applied for a single step.
type Force struct {
	Value     mgl64.Vec2
	remaining float64
}

// Torque is a queued torque. Without a duration it is applied for a single step.
type Torque struct {
	Value     float64
	remaining float64
}

// expired consumes elapsed seconds and reports whether the entry is done.
func (f *Force) expired(elapsed float64) bool {
	f.remaining -= elapsed
	return f.remaining <= Epsilon
}

func (t *Torque) expired(elapsed float64) bool {
	t.remaining -= elapsed
	return t.remaining <= Epsilon
}

// accumulate sums the queued forces and torques into the per-step totals,
// dropping the entries whose duration is over.
func (b *Body) accumulate(elapsed float64) {
	b.force = mgl64.Vec2{}
	kept := b.forces[:0]
	for _, f := range b.forces {
		b.force = b.force.Add(f.Value)
		if !f.expired(elapsed) {
			kept = append(kept, f)
		}
	}
	clear(b.forces[len(kept):])
	b.forces = kept

	b.torque = 0
	keptTorques := b.torques[:0]
	for _, t := range b.torques {
		b.torque += t.Value
		if !t.expired(elapsed) {
			keptTorques = append(keptTorques, t)
		}
	}
	clear(b.torques[len(keptTorques):])
	b.torques = keptTorques
}
