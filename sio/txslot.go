package sio

// TransmitBuffer holds at most one outgoing byte. It is not a queue: storing
// into a full slot replaces the pending byte.
type TransmitBuffer struct {
	data byte
	full bool
}

// Store puts b in the slot and reports the byte it replaced, if any.
func (t *TransmitBuffer) Store(b byte) (lost byte, overwritten bool) {
	lost, overwritten = t.data, t.full
	t.data = b
	t.full = true

	return lost, overwritten
}

// Take empties the slot and returns the pending byte.
func (t *TransmitBuffer) Take() byte {
	b := t.data
	t.full = false

	return b
}

// Clear empties the slot without handing out the byte.
func (t *TransmitBuffer) Clear() {
	t.data = 0
	t.full = false
}

// IsFull tells if a byte is waiting to be sent.
func (t *TransmitBuffer) IsFull() bool {
	return t.full
}

// Data returns the pending byte without taking it.
func (t *TransmitBuffer) Data() byte {
	return t.data
}

// Discard marks the slot empty so the pending byte is never sent.
func (t *TransmitBuffer) Discard() {
	t.full = false
}
