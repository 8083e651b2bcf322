// Package irq provides a minimal interrupt sink that records the requests a
// controller raises. It latches and counts requests per channel. Priority and
// masking are left to whatever drives the host side.
package irq

import (
	"log/slog"
	"sync"
)

// Line records interrupt requests. It is safe for concurrent use so a
// monitoring server can inspect it while the simulation runs.
type Line struct {
	lock     sync.Mutex
	log      *slog.Logger
	pending  map[int]bool
	counts   map[int]uint64
	callback func(channel int)
}

// NewLine creates a Line with nothing pending.
func NewLine(logger *slog.Logger) *Line {
	if logger == nil {
		logger = slog.Default()
	}

	return &Line{
		log:     logger,
		pending: make(map[int]bool),
		counts:  make(map[int]uint64),
	}
}

// OnRequest registers a function called, outside the lock, after each
// request.
func (l *Line) OnRequest(callback func(channel int)) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.callback = callback
}

// RequestInterrupt latches channel as pending.
func (l *Line) RequestInterrupt(channel int) {
	l.lock.Lock()
	l.pending[channel] = true
	l.counts[channel]++
	callback := l.callback
	l.lock.Unlock()

	l.log.Debug("Interrupt requested", "channel", channel)

	if callback != nil {
		callback(channel)
	}
}

// Pending tells if channel has been requested since the last Acknowledge.
func (l *Line) Pending(channel int) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.pending[channel]
}

// Count returns how many times channel has been requested in total.
func (l *Line) Count(channel int) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.counts[channel]
}

// Acknowledge clears the pending latch of channel and reports whether it was
// set.
func (l *Line) Acknowledge(channel int) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	was := l.pending[channel]
	delete(l.pending, channel)

	return was
}
