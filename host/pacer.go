package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarchlab/siolink/timing"
)

// DefaultSlice is how much wall-clock time one pacer step stands for.
const DefaultSlice = 10 * time.Millisecond

// Pacer advances an engine in fixed slices so simulated time keeps up with the
// wall clock.
type Pacer struct {
	engine         Engine
	cyclesPerSlice timing.VTimeInCycle
	slice          time.Duration
	log            *slog.Logger

	stopAt timing.VTimeInCycle
	onStep func(now timing.VTimeInCycle)
}

// NewPacer creates a pacer that runs clockRate cycles per simulated second,
// split into slices of the given length.
func NewPacer(
	engine Engine,
	clockRate uint64,
	slice time.Duration,
	logger *slog.Logger,
) *Pacer {
	if slice <= 0 {
		slice = DefaultSlice
	}

	cycles := timing.VTimeInCycle(clockRate * uint64(slice) / uint64(time.Second))
	if cycles == 0 {
		panic("host: pacer slice holds no cycles")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pacer{
		engine:         engine,
		cyclesPerSlice: cycles,
		slice:          slice,
		log:            logger,
	}
}

// CyclesPerSlice returns the number of cycles each step runs.
func (p *Pacer) CyclesPerSlice() timing.VTimeInCycle {
	return p.cyclesPerSlice
}

// StopAt makes Run return once the engine reaches t. Zero means never.
func (p *Pacer) StopAt(t timing.VTimeInCycle) {
	p.stopAt = t
}

// OnStep sets a function called with the current time after every step.
func (p *Pacer) OnStep(f func(now timing.VTimeInCycle)) {
	p.onStep = f
}

func (p *Pacer) reachedStop() bool {
	return p.stopAt > 0 && p.engine.CurrentTime() >= p.stopAt
}

// Step runs one slice. The slice is cut short at the stop time, if set.
func (p *Pacer) Step() error {
	target := p.engine.CurrentTime() + p.cyclesPerSlice
	if p.stopAt > 0 && target > p.stopAt {
		target = p.stopAt
	}

	if err := p.engine.RunUntil(target); err != nil {
		return fmt.Errorf("host: run until %d: %w", target, err)
	}

	return nil
}

// Run steps once per slice until ctx is done or the stop time is reached. It
// returns nil in both cases.
func (p *Pacer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.slice)
	defer ticker.Stop()

	p.log.Info("Pacer started",
		"cycles_per_slice", uint64(p.cyclesPerSlice), "slice", p.slice)

	for {
		if err := p.Step(); err != nil {
			return err
		}

		if p.onStep != nil {
			p.onStep(p.engine.CurrentTime())
		}

		if p.reachedStop() {
			p.log.Info("Pacer reached stop time", "now", uint64(p.engine.CurrentTime()))
			return nil
		}

		select {
		case <-ctx.Done():
			p.log.Info("Pacer stopped", "now", uint64(p.engine.CurrentTime()))
			return nil
		case <-ticker.C:
		}
	}
}
