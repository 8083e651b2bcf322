package sio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StateSize is the size of a marshalled State.
const StateSize = 2 + 4 + 2 + 2

// ErrShortState is returned when a marshalled state is truncated.
var ErrShortState = errors.New("sio: state too short")

// State is the part of the controller that survives a save and load. The
// receive FIFO, the transmit slot and the transfer schedule are not saved;
// loading a state starts them empty and recomputes the schedule.
type State struct {
	Control  uint16
	Status   uint32
	Mode     uint16
	BaudRate uint16
}

// MarshalBinary writes control, status, mode and baud rate, in that order, as
// little-endian integers.
func (s State) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, StateSize)
	buf = binary.LittleEndian.AppendUint16(buf, s.Control)
	buf = binary.LittleEndian.AppendUint32(buf, s.Status)
	buf = binary.LittleEndian.AppendUint16(buf, s.Mode)
	buf = binary.LittleEndian.AppendUint16(buf, s.BaudRate)

	return buf, nil
}

// UnmarshalBinary reads a state written by MarshalBinary.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) < StateSize {
		return fmt.Errorf("%w: got %d bytes, want %d",
			ErrShortState, len(data), StateSize)
	}

	s.Control = binary.LittleEndian.Uint16(data[0:])
	s.Status = binary.LittleEndian.Uint32(data[2:])
	s.Mode = binary.LittleEndian.Uint16(data[6:])
	s.BaudRate = binary.LittleEndian.Uint16(data[8:])

	return nil
}

// SaveState captures the persisted registers.
func (c *Comp) SaveState() State {
	return State{
		Control:  uint16(c.ctrl),
		Status:   uint32(c.stat),
		Mode:     uint16(c.mode),
		BaudRate: c.baudRate,
	}
}

// LoadState restores the persisted registers and rebuilds everything that is
// not persisted.
func (c *Comp) LoadState(s State) {
	c.ctrl = Control(s.Control)
	c.stat = Status(s.Status)
	c.mode = Mode(s.Mode)
	c.baudRate = s.BaudRate

	c.dataIn.Clear()
	c.dataOut.Clear()

	c.RescheduleIfNeeded()
	c.updateTXRX()
}
