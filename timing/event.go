// Package timing provides the cycle-based discrete event engine that drives the
// controller, together with the periodic event used for transfer ticks.
package timing

import "github.com/sarchlab/siolink/hooking"

// VTimeInCycle is a point in simulated time, counted in system clock cycles.
type VTimeInCycle uint64

// Handler processes events of various types.
// Events are plain data structs (no interface required).
// Handlers use type switching to handle different event types:
//
//	func (h *MyHandler) Handle(event any) error {
//	    switch e := event.(type) {
//	    case *MyEvent:
//	        // handle MyEvent
//	    default:
//	        return fmt.Errorf("unknown event type: %T", event)
//	    }
//	    return nil
//	}
type Handler interface {
	Handle(event any) error
}

// TimeTeller exposes the current simulation cycle.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler schedules events in the simulation timeline.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run processes all the events until the queue drains.
	Run() error

	// RunUntil processes every event due at or before t and then moves the
	// current time to t.
	RunUntil(t VTimeInCycle) error

	// Pause blocks event dispatch until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}

// ScheduledEvent is the engine-facing wrapper for user-defined events.
// It holds the metadata needed by the scheduler while keeping the payload as
// plain data.
type ScheduledEvent struct {
	// Event is the data payload to be delivered to the handler.
	Event any

	// Time is the cycle when the event should be processed.
	Time VTimeInCycle

	// Handler is the component that will process this event.
	Handler Handler

	// IsSecondary indicates if this event should be processed after
	// all primary events at the same time.
	IsSecondary bool
}

// HookPosBeforeEvent is a hook position that triggers before handling an event.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}
