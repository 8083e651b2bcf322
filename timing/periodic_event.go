package timing

import "fmt"

// PeriodicCallback is called when a periodic event fires. ticks is the number
// of cycles since the previous invocation; ticksLate is how far past its due
// cycle the invocation ran.
type PeriodicCallback func(ticks, ticksLate VTimeInCycle)

// periodicFire is the payload the engine delivers back to a PeriodicEvent.
// Firings from an older generation were superseded and are dropped.
type periodicFire struct {
	generation uint64
}

// A PeriodicEvent calls a callback every period cycles until deactivated. It
// can also be invoked early, outside its regular schedule, when a caller needs
// the work that is already due to be done now.
type PeriodicEvent struct {
	name     string
	engine   EventScheduler
	callback PeriodicCallback

	period   VTimeInCycle
	interval VTimeInCycle

	active     bool
	lastRun    VTimeInCycle
	nextRun    VTimeInCycle
	generation uint64
}

// NewPeriodicEvent creates a periodic event. The period is the number of
// cycles of work each firing covers and the interval is the spacing of
// regular firings. The event starts inactive unless activate is set.
func NewPeriodicEvent(
	name string,
	engine EventScheduler,
	period, interval VTimeInCycle,
	callback PeriodicCallback,
	activate bool,
) *PeriodicEvent {
	if callback == nil {
		panic("timing: periodic event needs a callback")
	}

	e := &PeriodicEvent{
		name:     name,
		engine:   engine,
		callback: callback,
		period:   period,
		interval: interval,
	}

	if activate {
		e.Activate()
	}

	return e
}

// Name returns the name of the event.
func (e *PeriodicEvent) Name() string {
	return e.name
}

// Period returns the number of cycles between two due invocations.
func (e *PeriodicEvent) Period() VTimeInCycle {
	return e.period
}

// Interval returns the spacing of regular firings.
func (e *PeriodicEvent) Interval() VTimeInCycle {
	return e.interval
}

// IsActive tells if the event is scheduled.
func (e *PeriodicEvent) IsActive() bool {
	return e.active
}

// TicksSinceLastRun returns the cycles elapsed since the callback last ran.
func (e *PeriodicEvent) TicksSinceLastRun() VTimeInCycle {
	return e.engine.CurrentTime() - e.lastRun
}

// Activate schedules the event with its current period.
func (e *PeriodicEvent) Activate() {
	if e.active {
		return
	}

	e.mustHaveNonZeroInterval()

	e.active = true
	e.lastRun = e.engine.CurrentTime()
	e.scheduleNext(e.lastRun + e.interval)
}

// SetPeriodAndSchedule changes the period and interval to ticks and
// (re)schedules the event ticks cycles from now.
func (e *PeriodicEvent) SetPeriodAndSchedule(ticks VTimeInCycle) {
	e.period = ticks
	e.interval = ticks
	e.mustHaveNonZeroInterval()

	e.active = true
	e.lastRun = e.engine.CurrentTime()
	e.scheduleNext(e.lastRun + e.interval)
}

// Deactivate stops the event. Calling it on an inactive event is a no-op.
func (e *PeriodicEvent) Deactivate() {
	if !e.active {
		return
	}

	e.active = false
	e.generation++
}

// InvokeEarly runs the callback now if at least one period has elapsed since
// the last run, or unconditionally when force is set. The next regular firing
// moves to one interval after now, so a due period is never handled twice.
func (e *PeriodicEvent) InvokeEarly(force bool) {
	if !e.active {
		return
	}

	now := e.engine.CurrentTime()
	ticks := now - e.lastRun
	if !force && ticks < e.period {
		return
	}

	e.lastRun = now
	e.scheduleNext(now + e.interval)
	e.callback(ticks, 0)
}

// Handle is called by the engine when a regular firing is due.
func (e *PeriodicEvent) Handle(event any) error {
	fire, ok := event.(*periodicFire)
	if !ok {
		return fmt.Errorf("timing: unknown event type: %T", event)
	}

	if !e.active || fire.generation != e.generation {
		return nil
	}

	now := e.engine.CurrentTime()
	ticks := now - e.lastRun
	late := now - e.nextRun

	e.lastRun = now
	e.scheduleNext(now + e.interval)
	e.callback(ticks, late)

	return nil
}

func (e *PeriodicEvent) scheduleNext(at VTimeInCycle) {
	e.generation++
	e.nextRun = at

	e.engine.Schedule(ScheduledEvent{
		Event:   &periodicFire{generation: e.generation},
		Time:    at,
		Handler: e,
	})
}

func (e *PeriodicEvent) mustHaveNonZeroInterval() {
	if e.interval == 0 {
		panic(fmt.Sprintf("timing: periodic event %q cannot have a zero interval", e.name))
	}
}
