package tracing

import (
	"sync"

	"github.com/sarchlab/siolink/hooking"
)

// EventCounter is a hook that counts how often each hook position fires.
type EventCounter struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewEventCounter creates an empty EventCounter.
func NewEventCounter() *EventCounter {
	return &EventCounter{counts: make(map[string]uint64)}
}

// Func counts ctx.
func (c *EventCounter) Func(ctx hooking.HookCtx) {
	if ctx.Pos == nil {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := c.counts[name]; !ok {
		c.names = append(c.names, name)
	}

	c.counts[name]++
}

// Names returns the positions seen so far, in order of first appearance.
func (c *EventCounter) Names() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]string(nil), c.names...)
}

// Count returns how often the named position fired.
func (c *EventCounter) Count(name string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[name]
}

// Snapshot returns a copy of all counts.
func (c *EventCounter) Snapshot() map[string]uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}

	return out
}
