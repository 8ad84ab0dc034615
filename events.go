package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type pairKey struct {
	bodyA *actor.Body
	bodyB *actor.Body
}

// makePairKey creates a normalized pair key, the body with the smaller id first
func makePairKey(bodyA, bodyB *actor.Body) pairKey {
	if bodyB.ID() < bodyA.ID() {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events, for pairs touching through a sensor fixture
type TriggerEnterEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.Body
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.Body
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers body level events during a World.Step and dispatches them
// when the step returns.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection; the value is true
	// when the pair touches through a sensor
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	sleepStates map[*actor.Body]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		sleepStates:         make(map[*actor.Body]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts replaces the active body pairs with the ones of the
// enabled constraints. Within a World.StepDt of several steps the pairs of
// the last step are the ones compared at flush, so a pair touching only
// during an earlier step raises no event. A pair is a trigger only if all
// its constraints are sensors.
func (e *Events) recordContacts(constraints []*constraint.ContactConstraint) {
	clear(e.currentActivePairs)
	for _, c := range constraints {
		if !c.IsEnabled() {
			continue
		}
		pair := makePairKey(c.BodyA(), c.BodyB())
		sensor, seen := e.currentActivePairs[pair]
		e.currentActivePairs[pair] = c.IsSensor() && (!seen || sensor)
	}
}

// forget drops what is tracked about body.
func (e *Events) forget(body *actor.Body) {
	delete(e.sleepStates, body)
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// reset drops the tracked state, keeping the listeners.
func (e *Events) reset() {
	e.buffer = e.buffer[:0]
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	clear(e.sleepStates)
}

type contactPhase uint8

const (
	phaseEnter contactPhase = iota
	phaseStay
	phaseExit
)

// pairEvent builds the collision or trigger event of pair for phase.
func pairEvent(phase contactPhase, pair pairKey, trigger bool) Event {
	a, b := pair.bodyA, pair.bodyB
	switch {
	case phase == phaseEnter && trigger:
		return TriggerEnterEvent{BodyA: a, BodyB: b}
	case phase == phaseEnter:
		return CollisionEnterEvent{BodyA: a, BodyB: b}
	case phase == phaseStay && trigger:
		return TriggerStayEvent{BodyA: a, BodyB: b}
	case phase == phaseStay:
		return CollisionStayEvent{BodyA: a, BodyB: b}
	case trigger:
		return TriggerExitEvent{BodyA: a, BodyB: b}
	default:
		return CollisionExitEvent{BodyA: a, BodyB: b}
	}
}

// processCollisionEvents buffers Enter and Stay for the recorded pairs and
// Exit for the pairs of the previous flush that were not recorded again.
// A pair of two sleeping bodies stays tracked but raises nothing.
func (e *Events) processCollisionEvents() {
	for pair, trigger := range e.currentActivePairs {
		if pair.bodyA.IsAsleep() && pair.bodyB.IsAsleep() {
			continue
		}
		phase := phaseEnter
		if _, ok := e.previousActivePairs[pair]; ok {
			phase = phaseStay
		}
		e.buffer = append(e.buffer, pairEvent(phase, pair, trigger))
	}

	for pair, trigger := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[pair]; !ok {
			e.buffer = append(e.buffer, pairEvent(phaseExit, pair, trigger))
		}
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// processSleepEvents buffers OnSleep and OnWake for the bodies whose state
// changed since the last call. A body seen for the first time is only tracked.
func (e *Events) processSleepEvents(bodies []*actor.Body) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsAsleep()
			continue
		}

		if !trackedState && body.IsAsleep() {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsAsleep() {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush resolves the contact pairs and dispatches the buffer to the
// listeners of each event type, in buffer order.
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
