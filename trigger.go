package impact

import (
	"unsafe"

	"github.com/akmonengine/impact/actor"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
)

type pairKey struct {
	colliderA *actor.Collider
	colliderB *actor.Collider
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(colliderA, colliderB *actor.Collider) pairKey {
	ptrA := uintptr(unsafe.Pointer(colliderA))
	ptrB := uintptr(unsafe.Pointer(colliderB))

	if ptrB < ptrA {
		colliderA, colliderB = colliderB, colliderA
	}

	return pairKey{colliderA: colliderA, colliderB: colliderB}
}

func (p pairKey) isTrigger() bool {
	return p.colliderA.IsTrigger || p.colliderB.IsTrigger
}

func (p pairKey) involves(body *actor.RigidBody) bool {
	return p.colliderA.Body == body || p.colliderB.Body == body
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case TRIGGER_ENTER:
		return "TriggerEnter"
	case COLLISION_ENTER:
		return "CollisionEnter"
	case TRIGGER_STAY:
		return "TriggerStay"
	case COLLISION_STAY:
		return "CollisionStay"
	case TRIGGER_EXIT:
		return "TriggerExit"
	case COLLISION_EXIT:
		return "CollisionExit"
	}
	return "Unknown"
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events
type TriggerEnterEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	ColliderA *actor.Collider
	ColliderB *actor.Collider
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events tracks the touching collider pairs across steps and dispatches Enter/Stay/Exit
// events to the listeners
type Events struct {
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

func (e *Events) initialized() bool {
	return e.listeners != nil
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if !e.initialized() {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts marks the pairs touching during a substep. A pair touching in any
// substep counts as touching for the whole step.
func (e *Events) recordContacts(contacts []Contact) {
	for _, c := range contacts {
		e.currentActivePairs[makePairKey(c.ColliderA, c.ColliderB)] = true
	}
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit.
// Should be called after all substeps.
func (e *Events) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		isTrigger := pair.isTrigger()

		if e.previousActivePairs[pair] {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerStayEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
			}
		} else {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
			} else {
				e.buffer = append(e.buffer, CollisionEnterEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
			}
		}
	}

	for pair := range e.previousActivePairs {
		if e.currentActivePairs[pair] {
			continue
		}

		if pair.isTrigger() {
			e.buffer = append(e.buffer, TriggerExitEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{ColliderA: pair.colliderA, ColliderB: pair.colliderB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// forget drops the pairs involving the body, so no exit event is sent for it
func (e *Events) forget(body *actor.RigidBody) {
	for pair := range e.previousActivePairs {
		if pair.involves(body) {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.involves(body) {
			delete(e.currentActivePairs, pair)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
