package host

import (
	"io"
	"log/slog"

	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/timing"
)

// DefaultConsoleControl enables both directions, raises DTR and turns on the
// receive and transmit interrupts.
const DefaultConsoleControl = sio.CtrlRXEN | sio.CtrlTXEN | sio.CtrlDTROutput |
	sio.CtrlRXIntEn | sio.CtrlTXIntEn

// ConsoleBuilder builds consoles.
type ConsoleBuilder struct {
	engine       timing.EventScheduler
	port         RegisterPort
	irqLine      Acknowledger
	channel      int
	out          io.Writer
	logger       *slog.Logger
	pollInterval timing.VTimeInCycle
	baudRate     uint16
	mode         sio.Mode
	ctrl         sio.Control
}

// MakeConsoleBuilder returns a ConsoleBuilder with default parameters.
func MakeConsoleBuilder() ConsoleBuilder {
	return ConsoleBuilder{
		channel:      sio.DefaultIRQChannel,
		out:          io.Discard,
		pollInterval: timing.VTimeInCycle(sio.DefaultBaudRate) / 2,
		baudRate:     sio.DefaultBaudRate,
		ctrl:         DefaultConsoleControl,
	}
}

// WithEngine sets the engine the polls are scheduled on.
func (b ConsoleBuilder) WithEngine(engine timing.EventScheduler) ConsoleBuilder {
	b.engine = engine
	return b
}

// WithPort sets the controller to drive.
func (b ConsoleBuilder) WithPort(port RegisterPort) ConsoleBuilder {
	b.port = port
	return b
}

// WithInterruptLine sets the line whose latch is cleared on acknowledge.
func (b ConsoleBuilder) WithInterruptLine(line Acknowledger, channel int) ConsoleBuilder {
	b.irqLine = line
	b.channel = channel

	return b
}

// WithOutput sets where received bytes go.
func (b ConsoleBuilder) WithOutput(out io.Writer) ConsoleBuilder {
	b.out = out
	return b
}

// WithLogger sets the logger.
func (b ConsoleBuilder) WithLogger(logger *slog.Logger) ConsoleBuilder {
	b.logger = logger
	return b
}

// WithPollInterval sets the number of cycles between polls.
func (b ConsoleBuilder) WithPollInterval(cycles timing.VTimeInCycle) ConsoleBuilder {
	b.pollInterval = cycles
	return b
}

// WithBaudRate sets the baud-rate divisor written at start.
func (b ConsoleBuilder) WithBaudRate(divisor uint16) ConsoleBuilder {
	b.baudRate = divisor
	return b
}

// WithMode sets the mode register value written at start.
func (b ConsoleBuilder) WithMode(mode sio.Mode) ConsoleBuilder {
	b.mode = mode
	return b
}

// WithControl sets the control bits the console keeps enabled.
func (b ConsoleBuilder) WithControl(ctrl sio.Control) ConsoleBuilder {
	b.ctrl = ctrl &^ (sio.CtrlACK | sio.CtrlReset)
	return b
}

// Build creates a console. It does not touch the controller until Start.
func (b ConsoleBuilder) Build(name string) *Console {
	if b.engine == nil {
		panic("host: engine is not set")
	}

	if b.port == nil {
		panic("host: register port is not set")
	}

	if b.pollInterval == 0 {
		panic("host: poll interval must be positive")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Console{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		engine:       b.engine,
		port:         b.port,
		irqLine:      b.irqLine,
		channel:      b.channel,
		out:          b.out,
		log:          logger.With("comp", name),
		pollInterval: b.pollInterval,
		baudRate:     b.baudRate,
		mode:         b.mode,
		ctrl:         b.ctrl,
	}
}
