package sio

import (
	"log/slog"

	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/timing"
)

// Comp is the serial I/O controller. It owns the register file and serves the
// host's register accesses. All calls must come from the simulation's single
// execution context.
type Comp struct {
	*hooking.HookableBase

	name     string
	channel  int
	log      *slog.Logger
	protocol Protocol

	conn          Connection
	irq           InterruptSink
	transferEvent TransferEvent
	maxSliceTicks timing.VTimeInCycle

	ctrl     Control
	stat     Status
	mode     Mode
	baudRate uint16
	dataIn   *ReceiveFIFO
	dataOut  TransmitBuffer
}

// Name returns the name of the controller.
func (c *Comp) Name() string {
	return c.name
}

// Protocol returns the wire protocol the controller drives.
func (c *Comp) Protocol() Protocol {
	return c.protocol
}

// Connection returns the attached connection or nil.
func (c *Comp) Connection() Connection {
	return c.conn
}

// AttachConnection plugs a connection in and starts transfer ticks.
func (c *Comp) AttachConnection(conn Connection) {
	c.conn = conn
	c.RescheduleIfNeeded()
}

// DetachConnection unplugs the connection and stops transfer ticks.
func (c *Comp) DetachConnection() {
	c.conn = nil
	c.RescheduleIfNeeded()
}

// Shutdown detaches the controller from its connection and the event
// scheduler. It is safe to call more than once.
func (c *Comp) Shutdown() {
	c.conn = nil
	c.transferEvent.Deactivate()
}

// ReadRegister serves a host read at offset. Unknown offsets read as all ones.
func (c *Comp) ReadRegister(offset uint32) uint32 {
	value := c.readRegister(offset)

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosRegRead,
			Item:   RegAccess{Offset: offset, Value: value},
		})
	}

	return value
}

func (c *Comp) readRegister(offset uint32) uint32 {
	switch offset {
	case RegData:
		c.transferEvent.InvokeEarly(false)

		res := c.packDataIn()
		c.dataIn.RemoveOne()
		c.log.Debug("Read SIO_DATA", "value", hex32(res))
		c.updateTXRX()

		return res

	case RegStatus:
		c.transferEvent.InvokeEarly(false)

		bits := uint32(c.stat)
		c.log.Debug("Read SIO_STAT", "value", hex32(bits))

		return bits

	case RegMode:
		return uint32(c.mode)

	case RegControl:
		return uint32(c.ctrl)

	case RegBaudRate:
		return uint32(c.baudRate)

	default:
		c.log.Error("Unknown register read", "offset", hex32(offset))
		return 0xFFFFFFFF
	}
}

// packDataIn builds the data register value from the queued bytes. The
// caller drops the oldest byte afterwards. The three oldest bytes are OR-ed together into bits 16-23
// and the fourth goes to bits 24-31. A completely full FIFO reads like an
// empty one.
func (c *Comp) packDataIn() uint32 {
	var res uint32

	switch size := c.dataIn.Size(); size {
	case 4, 5, 6, 7:
		res = uint32(c.dataIn.Peek(3)) << 24
		fallthrough
	case 3:
		res |= uint32(c.dataIn.Peek(2)) << 16
		fallthrough
	case 2:
		res |= uint32(c.dataIn.Peek(1)) << 16
		fallthrough
	case 1:
		res |= uint32(c.dataIn.Peek(0)) << 16
	default:
		res = 0xFFFFFFFF
	}

	return res
}

// WriteRegister serves a host write at offset. Writes to unknown or read-only
// offsets are ignored.
func (c *Comp) WriteRegister(offset uint32, value uint32) {
	c.writeRegister(offset, value)

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosRegWrite,
			Item:   RegAccess{Offset: offset, Value: value},
		})
	}
}

func (c *Comp) writeRegister(offset uint32, value uint32) {
	switch offset {
	case RegData:
		c.log.Debug("SIO_DATA (W)", "value", hex8(byte(value)))
		c.transferEvent.InvokeEarly(false)
		c.storeDataOut(byte(value))
		c.updateTXRX()

	case RegControl:
		c.log.Debug("SIO_CTRL (W)", "value", hex16(uint16(value)))
		c.transferEvent.InvokeEarly(false)
		c.writeControl(Control(value))

	case RegMode:
		c.log.Debug("SIO_MODE (W)", "value", hex16(uint16(value)))
		c.mode = Mode(value)

	case RegBaudRate:
		c.log.Debug("SIO_BAUD (W)", "value", hex16(uint16(value)))
		c.baudRate = uint16(value)

	default:
		c.log.Error("Unknown register write",
			"offset", hex32(offset), "value", hex32(value))
	}
}

func (c *Comp) storeDataOut(b byte) {
	lost, overwritten := c.dataOut.Store(b)
	if !overwritten {
		return
	}

	c.log.Warn("SIO TX buffer overflow",
		"lost", hex8(lost), "written", hex8(b))

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosTxOverwrite,
			Item:   TxOverwrite{Lost: lost, Written: b},
		})
	}
}

// writeControl applies a control write. RESET and ACK act once and are not
// kept in the register.
func (c *Comp) writeControl(ctrl Control) {
	c.ctrl = ctrl
	if c.ctrl.Has(CtrlReset) {
		c.SoftReset()
	}

	if c.ctrl.Has(CtrlACK) {
		c.stat &^= statAckMask
		c.ctrl &^= CtrlACK
	}

	if !c.ctrl.Has(CtrlRXEN) {
		c.dataIn.Clear()
		c.updateTXRX()
	}

	if !c.ctrl.Has(CtrlTXEN) {
		c.dataOut.Discard()
		c.updateTXRX()
	}
}

// SoftReset returns the registers to their power-on values. The input level
// mirrors in the status register are left as they are.
func (c *Comp) SoftReset() {
	c.ctrl = 0
	c.stat &^= statAckMask
	c.mode = 0
	c.baudRate = DefaultBaudRate
	c.dataIn.Clear()
	c.dataOut.Clear()

	c.RescheduleIfNeeded()
	c.updateTXRX()

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosReset})
	}
}

// Transfer runs one transfer step with the configured protocol. It is the
// transfer event's callback.
func (c *Comp) Transfer() {
	c.protocol.transfer(c)
}

// updateTXRX recomputes the derived status bits.
func (c *Comp) updateTXRX() {
	txrdy := c.stat.Has(StatCTSInputLevel) && !c.dataOut.IsFull()
	c.stat.set(StatTXRDY, txrdy)
	c.stat.set(StatTXDONE, c.ctrl.Has(CtrlTXEN) && txrdy)
	c.stat.set(StatRXFIFONEmpty, !c.dataIn.IsEmpty())
}

func (c *Comp) setInputLevels(dtr, cts bool) {
	c.stat.set(StatDTRInputLevel, dtr)
	c.stat.set(StatCTSInputLevel, cts)
}

func (c *Comp) raiseInterrupt() {
	c.log.Debug("Set SIO IRQ")
	c.stat |= StatINTR

	if c.irq != nil {
		c.irq.RequestInterrupt(c.channel)
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosInterrupt,
			Item:   c.channel,
		})
	}
}

func (c *Comp) traceByte(pos *hooking.HookPos, t ByteTransfer) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: pos, Item: t})
}
