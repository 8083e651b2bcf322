package host

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/timing"
)

// Hook positions raised by the console. Item is the byte.
var (
	HookPosConsoleRecv = &hooking.HookPos{Name: "Console Recv"}
	HookPosConsoleSend = &hooking.HookPos{Name: "Console Send"}
)

type pollEvent struct {
	generation uint64
}

// Console drives a controller through its registers. Every poll it acknowledges
// a raised interrupt, hands a received byte to the output and writes the next
// queued input byte when the transmitter is ready.
type Console struct {
	*hooking.HookableBase

	name    string
	engine  timing.EventScheduler
	port    RegisterPort
	irqLine Acknowledger
	channel int
	out     io.Writer
	log     *slog.Logger

	pollInterval timing.VTimeInCycle
	baudRate     uint16
	mode         sio.Mode
	ctrl         sio.Control

	running    bool
	generation uint64
	dropped    uint64

	inputLock sync.Mutex
	input     []byte
}

// Name returns the name of the console.
func (c *Console) Name() string {
	return c.name
}

// Write queues p to be sent to the controller one byte at a time. It never
// blocks, so the console can be the destination of an io.Copy.
func (c *Console) Write(p []byte) (int, error) {
	c.inputLock.Lock()
	defer c.inputLock.Unlock()

	c.input = append(c.input, p...)

	return len(p), nil
}

// Dropped returns the number of received bytes that could not be read back
// exactly because others were queued behind them.
func (c *Console) Dropped() uint64 {
	return c.dropped
}

// Pending returns the number of queued input bytes.
func (c *Console) Pending() int {
	c.inputLock.Lock()
	defer c.inputLock.Unlock()

	return len(c.input)
}

func (c *Console) nextInput() (byte, bool) {
	c.inputLock.Lock()
	defer c.inputLock.Unlock()

	if len(c.input) == 0 {
		return 0, false
	}

	b := c.input[0]
	c.input = c.input[1:]

	return b, true
}

// Start resets and configures the controller and schedules the first poll.
func (c *Console) Start() {
	c.port.WriteRegister(sio.RegControl, uint32(sio.CtrlReset))
	c.port.WriteRegister(sio.RegMode, uint32(c.mode))
	c.port.WriteRegister(sio.RegBaudRate, uint32(c.baudRate))
	c.port.WriteRegister(sio.RegControl, uint32(c.ctrl|sio.CtrlACK))

	c.running = true
	c.generation++
	c.scheduleNext()
}

// Stop cancels future polls.
func (c *Console) Stop() {
	c.running = false
	c.generation++
}

func (c *Console) scheduleNext() {
	c.engine.Schedule(timing.ScheduledEvent{
		Event:   &pollEvent{generation: c.generation},
		Time:    c.engine.CurrentTime() + c.pollInterval,
		Handler: c,
	})
}

// Handle runs one poll.
func (c *Console) Handle(event any) error {
	evt, ok := event.(*pollEvent)
	if !ok {
		return fmt.Errorf("host: unknown event type: %T", event)
	}

	if !c.running || evt.generation != c.generation {
		return nil
	}

	c.poll()
	c.scheduleNext()

	return nil
}

func (c *Console) poll() {
	stat := sio.Status(c.port.ReadRegister(sio.RegStatus))

	if stat.Has(sio.StatINTR) || stat.Has(sio.StatRXFIFOOverrun) {
		c.acknowledge()
	}

	if stat.Has(sio.StatRXFIFONEmpty) {
		c.receive()
	}

	if stat.Has(sio.StatTXRDY) {
		c.send()
	}
}

func (c *Console) acknowledge() {
	c.port.WriteRegister(sio.RegControl, uint32(c.ctrl|sio.CtrlACK))

	if c.irqLine != nil {
		c.irqLine.Acknowledge(c.channel)
	}
}

// receive drains the FIFO one data read at a time. A read only carries an
// exact byte when it was the last one queued; anything read while more bytes
// were waiting is merged or the full-FIFO pattern and is counted as dropped.
func (c *Console) receive() {
	for {
		b := byte(c.port.ReadRegister(sio.RegData) >> 16)
		stat := sio.Status(c.port.ReadRegister(sio.RegStatus))

		if stat.Has(sio.StatRXFIFONEmpty) {
			c.dropped++
			c.log.Warn("Dropped merged receive byte", "dropped", c.dropped)

			continue
		}

		if _, err := c.out.Write([]byte{b}); err != nil {
			c.log.Warn("Output write failed", "err", err)
		}

		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosConsoleRecv, Item: b})

		return
	}
}

func (c *Console) send() {
	b, ok := c.nextInput()
	if !ok {
		return
	}

	c.port.WriteRegister(sio.RegData, uint32(b))
	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosConsoleSend, Item: b})
}
