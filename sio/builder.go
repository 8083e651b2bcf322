package sio

import (
	"log/slog"

	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/timing"
)

// TransferEventName is the name of the periodic event a Builder creates.
const TransferEventName = "SIO Transfer"

// Builder builds serial I/O controllers.
type Builder struct {
	engine        timing.EventScheduler
	transferEvent TransferEvent
	conn          Connection
	irq           InterruptSink
	protocol      Protocol
	channel       int
	maxSliceTicks timing.VTimeInCycle
	logger        *slog.Logger
}

// MakeBuilder returns a Builder with default parameters: unframed protocol,
// interrupt channel 8 and no connection.
func MakeBuilder() Builder {
	return Builder{
		protocol:      UnframedProtocol{},
		channel:       DefaultIRQChannel,
		maxSliceTicks: DefaultMaxSliceTicks,
	}
}

// WithEngine sets the engine that schedules transfer ticks.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithTransferEvent sets the periodic event used for transfer ticks instead of
// creating one on the engine. The caller is responsible for calling Transfer
// when it fires.
func (b Builder) WithTransferEvent(evt TransferEvent) Builder {
	b.transferEvent = evt
	return b
}

// WithConnection sets the connection attached at construction.
func (b Builder) WithConnection(conn Connection) Builder {
	b.conn = conn
	return b
}

// WithInterruptSink sets where interrupt requests go.
func (b Builder) WithInterruptSink(irq InterruptSink) Builder {
	b.irq = irq
	return b
}

// WithProtocol sets the wire protocol. It cannot be changed after Build.
func (b Builder) WithProtocol(p Protocol) Builder {
	b.protocol = p
	return b
}

// WithChannel sets the interrupt channel the controller raises.
func (b Builder) WithChannel(channel int) Builder {
	b.channel = channel
	return b
}

// WithMaxSliceTicks sets the fallback transfer period used when the reload
// factor is reserved.
func (b Builder) WithMaxSliceTicks(ticks timing.VTimeInCycle) Builder {
	b.maxSliceTicks = ticks
	return b
}

// WithLogger sets the logger. The default is slog.Default().
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a controller in its power-on state.
func (b Builder) Build(name string) *Comp {
	if b.protocol == nil {
		panic("sio: protocol is not set")
	}

	if b.maxSliceTicks == 0 {
		panic("sio: max slice ticks must be positive")
	}

	c := &Comp{
		HookableBase:  hooking.NewHookableBase(),
		name:          name,
		channel:       b.channel,
		protocol:      b.protocol,
		conn:          b.conn,
		irq:           b.irq,
		maxSliceTicks: b.maxSliceTicks,
		dataIn:        NewReceiveFIFO(name + ".RxFIFO"),
	}

	c.log = b.logger
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("comp", name)

	c.transferEvent = b.transferEvent
	if c.transferEvent == nil {
		if b.engine == nil {
			panic("sio: engine is not set")
		}

		c.transferEvent = timing.NewPeriodicEvent(
			TransferEventName, b.engine, 1, 1,
			func(_, _ timing.VTimeInCycle) { c.Transfer() },
			false)
	}

	c.stat = 0
	c.SoftReset()

	return c
}
