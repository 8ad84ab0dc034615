package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// contactKey identifies a contact constraint by its fixtures, smaller id first.
type contactKey struct {
	fixtureA, fixtureB uint64
}

func makeContactKey(fixtureA, fixtureB *actor.Fixture) contactKey {
	a, b := fixtureA.ID(), fixtureB.ID()
	if b < a {
		a, b = b, a
	}
	return contactKey{fixtureA: a, fixtureB: b}
}

type queuedContact struct {
	constraint *constraint.ContactConstraint
	// kept constraints are carried over unchanged from the previous detection
	kept bool
}

// contactManager keeps the contact constraints between two detections. New
// constraints inherit the impulses of the matching points of the previous
// ones, and the contact listeners are notified of the differences.
type contactManager struct {
	constraints []*constraint.ContactConstraint
	byKey       map[contactKey]*constraint.ContactConstraint
	queue       []queuedContact
}

func newContactManager() contactManager {
	return contactManager{byKey: make(map[contactKey]*constraint.ContactConstraint)}
}

// previous returns the constraint of the last detection between two fixtures.
func (m *contactManager) previous(fixtureA, fixtureB *actor.Fixture) *constraint.ContactConstraint {
	return m.byKey[makeContactKey(fixtureA, fixtureB)]
}

// add queues a constraint found by the current detection.
func (m *contactManager) add(c *constraint.ContactConstraint) {
	m.queue = append(m.queue, queuedContact{constraint: c})
}

// keep queues a constraint of the last detection as is.
func (m *contactManager) keep(c *constraint.ContactConstraint) {
	m.queue = append(m.queue, queuedContact{constraint: c, kept: true})
}

// update replaces the constraints with the queued ones and notifies listeners.
func (m *contactManager) update(listeners *Registry[ContactListener], cfg settings.Settings) []*constraint.ContactConstraint {
	next := make(map[contactKey]*constraint.ContactConstraint, len(m.queue))
	result := make([]*constraint.ContactConstraint, 0, len(m.queue))

	for _, q := range m.queue {
		c := q.constraint
		key := makeContactKey(c.FixtureA(), c.FixtureB())

		switch {
		case q.kept:
			for i := range c.Contacts {
				c.Contacts[i].SetEnabled(true)
			}
		case c.IsSensor():
			for i := range c.Contacts {
				point := newContactPoint(c, &c.Contacts[i])
				listeners.each(func(l ContactListener) { l.Sensed(point) })
			}
		default:
			m.transfer(m.byKey[key], c, listeners, cfg)
		}

		if len(c.Contacts) == 0 {
			continue
		}
		next[key] = c
		result = append(result, c)
	}

	// pairs that stopped touching
	for _, old := range m.constraints {
		if old.IsSensor() {
			continue
		}
		if _, ok := next[makeContactKey(old.FixtureA(), old.FixtureB())]; ok {
			continue
		}
		for i := range old.Contacts {
			point := newContactPoint(old, &old.Contacts[i])
			listeners.each(func(l ContactListener) { l.End(point) })
		}
	}

	clear(m.queue)
	m.queue = m.queue[:0]
	m.byKey = next
	m.constraints = result

	return result
}

// transfer copies the impulses of the points of old matching points of c,
// notifying Begin, Persist and End. Vetoed points are removed from c.
func (m *contactManager) transfer(old, c *constraint.ContactConstraint, listeners *Registry[ContactListener], cfg settings.Settings) {
	var matched []bool
	if old != nil {
		matched = make([]bool, len(old.Contacts))
	}

	for i := 0; i < len(c.Contacts); i++ {
		contact := &c.Contacts[i]
		point := newContactPoint(c, contact)

		var allowed bool
		if j := matchContact(old, contact, matched, cfg); j >= 0 {
			matched[j] = true
			previous := old.Contacts[j]
			contact.NormalImpulse = previous.NormalImpulse
			contact.TangentImpulse = previous.TangentImpulse

			persisted := PersistedContactPoint{
				ContactPoint: point,
				OldPoint:     previous.Point,
				OldNormal:    old.Normal,
				OldDepth:     previous.Depth,
			}
			allowed = listeners.allow(func(l ContactListener) bool { return l.Persist(persisted) })
		} else {
			allowed = listeners.allow(func(l ContactListener) bool { return l.Begin(point) })
		}

		if !allowed {
			c.RemoveContact(i)
			i--
		}
	}

	for j, ok := range matched {
		if ok {
			continue
		}
		point := newContactPoint(old, &old.Contacts[j])
		listeners.each(func(l ContactListener) { l.End(point) })
	}
}

// matchContact returns the index of the unmatched point of old matching
// contact, -1 if none. Indexed ids match exactly; distance ids match the
// nearest point within the warm start distance.
func matchContact(old *constraint.ContactConstraint, contact *constraint.Contact, matched []bool, cfg settings.Settings) int {
	if old == nil {
		return -1
	}

	if contact.ID.Indexed {
		for j := range old.Contacts {
			if !matched[j] && old.Contacts[j].ID == contact.ID {
				return j
			}
		}
		return -1
	}

	best := -1
	bestDistance := cfg.WarmStartDistanceSquared()
	for j := range old.Contacts {
		if matched[j] || old.Contacts[j].ID.Indexed {
			continue
		}
		if d := actor.LenSqr(old.Contacts[j].Point.Sub(contact.Point)); d <= bestDistance {
			best = j
			bestDistance = d
		}
	}
	return best
}

// remove drops every constraint for which fn returns true and returns them.
func (m *contactManager) remove(fn func(c *constraint.ContactConstraint) bool) []*constraint.ContactConstraint {
	var removed []*constraint.ContactConstraint
	n := 0
	for _, c := range m.constraints {
		if fn(c) {
			removed = append(removed, c)
			delete(m.byKey, makeContactKey(c.FixtureA(), c.FixtureB()))
			continue
		}
		m.constraints[n] = c
		n++
	}
	clear(m.constraints[n:])
	m.constraints = m.constraints[:n]

	return removed
}

func (m *contactManager) removeBody(body *actor.Body) []*constraint.ContactConstraint {
	return m.remove(func(c *constraint.ContactConstraint) bool {
		return c.BodyA() == body || c.BodyB() == body
	})
}

func (m *contactManager) removeFixture(fixture *actor.Fixture) []*constraint.ContactConstraint {
	return m.remove(func(c *constraint.ContactConstraint) bool {
		return c.FixtureA() == fixture || c.FixtureB() == fixture
	})
}

func (m *contactManager) shift(delta mgl64.Vec2) {
	for _, c := range m.constraints {
		c.Shift(delta)
	}
}

func (m *contactManager) reset() {
	clear(m.constraints)
	m.constraints = m.constraints[:0]
	clear(m.byKey)
	clear(m.queue)
	m.queue = m.queue[:0]
}
