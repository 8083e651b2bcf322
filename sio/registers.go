// Package sio models the serial I/O controller: its register file, the
// register port the host CPU talks to, and the transfer engine that moves
// bytes between the controller and an external connection every transfer
// tick.
package sio

// Register offsets inside the controller's address window.
const (
	RegData     uint32 = 0x00
	RegStatus   uint32 = 0x04
	RegMode     uint32 = 0x08
	RegControl  uint32 = 0x0A
	RegBaudRate uint32 = 0x0E
)

// DefaultBaudRate is the baud-rate divisor after a reset.
const DefaultBaudRate uint16 = 0xDC

// MasterClock is the system clock the transfer ticks are counted in.
const MasterClock = 44100 * 0x300

// DefaultMaxSliceTicks is used as the transfer period when the configured
// reload factor yields no usable period.
const DefaultMaxSliceTicks = MasterClock / 10

// DefaultIRQChannel is the interrupt line the controller raises.
const DefaultIRQChannel = 8

// Control is the control register.
type Control uint16

// Control register bits.
const (
	CtrlTXEN      Control = 1 << 0
	CtrlDTROutput Control = 1 << 1
	CtrlRXEN      Control = 1 << 2
	CtrlTXOutput  Control = 1 << 3
	CtrlACK       Control = 1 << 4
	CtrlRTSOutput Control = 1 << 5
	CtrlReset     Control = 1 << 6
	CtrlTXIntEn   Control = 1 << 10
	CtrlRXIntEn   Control = 1 << 11
	CtrlDTRIntEn  Control = 1 << 12

	ctrlRXIModeShift = 8
	ctrlRXIModeMask  = 0x3
)

// Has tells if all the given bits are set.
func (c Control) Has(bits Control) bool {
	return c&bits == bits
}

// RXIMode returns the receive interrupt mode field.
func (c Control) RXIMode() uint8 {
	return uint8(c>>ctrlRXIModeShift) & ctrlRXIModeMask
}

// Status is the status register.
type Status uint32

// Status register bits. TXRDY, TXDONE and RXFIFONEMPTY are derived from the
// rest of the controller state.
const (
	StatTXRDY         Status = 1 << 0
	StatRXFIFONEmpty  Status = 1 << 1
	StatTXDONE        Status = 1 << 2
	StatRXParity      Status = 1 << 3
	StatRXFIFOOverrun Status = 1 << 4
	StatRXBadStopBit  Status = 1 << 5
	StatRXInputLevel  Status = 1 << 6
	StatDTRInputLevel Status = 1 << 7
	StatCTSInputLevel Status = 1 << 8
	StatINTR          Status = 1 << 9

	statTMRShift = 11
	statTMRMask  = 0x7FFF

	// statAckMask holds the latches an ACK clears.
	statAckMask = StatRXParity | StatRXFIFOOverrun | StatRXBadStopBit | StatINTR
)

// Has tells if all the given bits are set.
func (s Status) Has(bits Status) bool {
	return s&bits == bits
}

// TMR returns the baud timer field.
func (s Status) TMR() uint32 {
	return uint32(s>>statTMRShift) & statTMRMask
}

func (s *Status) set(bits Status, v bool) {
	if v {
		*s |= bits
	} else {
		*s &^= bits
	}
}

// Mode is the mode register.
type Mode uint16

// ReloadFactor selects the baud multiplier.
func (m Mode) ReloadFactor() uint8 {
	return uint8(m & 0x3)
}

// CharacterLength returns the character length field, 0 means 5 bits and 3
// means 8 bits.
func (m Mode) CharacterLength() uint8 {
	return uint8(m>>2) & 0x3
}

// ParityEnabled tells if parity is enabled.
func (m Mode) ParityEnabled() bool {
	return m&(1<<4) != 0
}

// ParityOdd tells if odd parity is selected.
func (m Mode) ParityOdd() bool {
	return m&(1<<5) != 0
}

// StopBitLength returns the stop bit length field.
func (m Mode) StopBitLength() uint8 {
	return uint8(m>>6) & 0x3
}
