package sio

import (
	"errors"
	"fmt"
	"strings"
)

// Frame flag bits of the framed protocol.
const (
	FrameHasData  byte = 1 << 0
	FrameDTRLevel byte = 1 << 1
	FrameCTSLevel byte = 1 << 2
)

// FrameSize is the size of a framed protocol packet.
const FrameSize = 2

// A Frame is one framed protocol packet: a flag byte and a data byte that is
// only meaningful when FrameHasData is set.
type Frame [FrameSize]byte

// Flags returns the flag byte.
func (f Frame) Flags() byte { return f[0] }

// Data returns the data byte.
func (f Frame) Data() byte { return f[1] }

// HasData tells if the frame carries a data byte.
func (f Frame) HasData() bool { return f[0]&FrameHasData != 0 }

// DTR returns the sender's DTR level.
func (f Frame) DTR() bool { return f[0]&FrameDTRLevel != 0 }

// CTS returns the sender's CTS level.
func (f Frame) CTS() bool { return f[0]&FrameCTSLevel != 0 }

// A Protocol is the wire protocol a controller drives on every transfer tick.
// The set of protocols is closed; pick one with UnframedProtocol,
// FramedProtocol or ProtocolByName.
type Protocol interface {
	Name() string

	transfer(c *Comp)
}

// ErrUnknownProtocol is returned by ProtocolByName.
var ErrUnknownProtocol = errors.New("sio: unknown protocol")

// ProtocolByName returns the protocol called "unframed" or "framed".
func ProtocolByName(name string) (Protocol, error) {
	switch strings.ToLower(name) {
	case "unframed", "":
		return UnframedProtocol{}, nil
	case "framed":
		return FramedProtocol{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
	}
}

// UnframedProtocol passes raw bytes through. Link levels follow the
// connection state, and a byte arriving at a full FIFO evicts the oldest one.
type UnframedProtocol struct{}

// Name returns "unframed".
func (UnframedProtocol) Name() string { return "unframed" }

func (UnframedProtocol) transfer(c *Comp) {
	// Bytes are not transmitted when CTS is not set, i.e. when there is
	// nothing on the other side.
	if c.conn == nil || !c.conn.IsConnected() {
		c.setInputLevels(false, false)
		c.updateTXRX()

		return
	}

	c.setInputLevels(true, true)

	if c.ctrl.Has(CtrlRXEN) {
		var in [1]byte
		if c.conn.Read(in[:], 0) > 0 {
			c.receive(in[0], 0, false, EvictOldest)

			if c.ctrl.Has(CtrlRXIntEn) {
				c.raiseInterrupt()
			}
		}
	}

	if c.ctrl.Has(CtrlTXEN) && c.dataOut.IsFull() {
		out := c.dataOut.Take()

		if c.conn.Write([]byte{out}) != 1 {
			c.log.Warn("Failed to send to connection", "data", hex8(out))
		} else {
			c.traceByte(HookPosSend, ByteTransfer{Data: out})
		}

		if c.ctrl.Has(CtrlTXIntEn) {
			c.raiseInterrupt()
		}
	}

	c.updateTXRX()
}

// FramedProtocol exchanges two-byte frames that carry the DTR and CTS levels
// alongside an optional data byte. A byte arriving at a full FIFO is dropped.
type FramedProtocol struct{}

// Name returns "framed".
func (FramedProtocol) Name() string { return "framed" }

func (p FramedProtocol) transfer(c *Comp) {
	if c.conn == nil || !c.conn.IsConnected() {
		c.setInputLevels(false, false)
		c.updateTXRX()

		return
	}

	p.drain(c)
	p.send(c)

	c.updateTXRX()
}

func (FramedProtocol) drain(c *Comp) {
	if !c.conn.HasData() {
		return
	}

	var in Frame
	for c.conn.Read(in[:], FrameSize) != 0 {
		if in.HasData() {
			c.log.Info("In", "flags", hex8(in.Flags()), "data", hex8(in.Data()))
			c.receive(in.Data(), in.Flags(), true, DropNewest)

			if c.ctrl.Has(CtrlRXIntEn) {
				c.raiseInterrupt()
			}
		}

		if !c.stat.Has(StatDTRInputLevel) && in.DTR() {
			c.log.Warn("DTR active")
		}

		if !c.stat.Has(StatCTSInputLevel) && in.CTS() {
			c.log.Warn("CTS active")
		}

		c.setInputLevels(in.DTR(), in.CTS())
	}
}

func (FramedProtocol) send(c *Comp) {
	var out Frame
	if !c.dataIn.IsFull() {
		out[0] = FrameCTSLevel
	}

	if c.ctrl.Has(CtrlDTROutput) {
		out[0] |= FrameDTRLevel
	}

	if c.dataOut.IsFull() {
		out[0] |= FrameHasData
		out[1] = c.dataOut.Take()
		c.log.Info("Out", "flags", hex8(out.Flags()), "data", hex8(out.Data()))

		if c.ctrl.Has(CtrlTXIntEn) {
			c.raiseInterrupt()
		}
	}

	if c.conn.Write(out[:]) != FrameSize {
		c.log.Warn("Write failed", "flags", hex8(out.Flags()))
		return
	}

	if out.HasData() {
		c.traceByte(HookPosSend, ByteTransfer{
			Data:   out.Data(),
			Flags:  out.Flags(),
			Framed: true,
		})
	}
}

// receive pushes an incoming byte into the FIFO with the protocol's overrun
// policy.
func (c *Comp) receive(b, flags byte, framed bool, policy OverrunPolicy) {
	t := ByteTransfer{Data: b, Flags: flags, Framed: framed}

	if c.dataIn.Push(b, policy) {
		c.log.Warn("FIFO overrun", "policy", policy.String(), "data", hex8(b))
		c.stat |= StatRXFIFOOverrun
		c.traceByte(HookPosOverrun, t)

		if policy == DropNewest {
			return
		}
	}

	c.traceByte(HookPosRecv, t)
}
