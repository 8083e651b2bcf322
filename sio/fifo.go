package sio

// ReceiveFIFOCapacity is the number of bytes the receive FIFO holds.
const ReceiveFIFOCapacity = 8

// OverrunPolicy decides what happens when a byte arrives at a full receive
// FIFO. Both record an overrun.
type OverrunPolicy int

const (
	// EvictOldest drops the oldest queued byte to make room for the new one.
	EvictOldest OverrunPolicy = iota

	// DropNewest keeps the queue as is and discards the incoming byte.
	DropNewest
)

func (p OverrunPolicy) String() string {
	switch p {
	case EvictOldest:
		return "evict-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// ReceiveFIFO is the bounded receive queue.
type ReceiveFIFO struct {
	name     string
	elements []byte
	capacity int
}

// NewReceiveFIFO creates an empty FIFO with the controller's capacity.
func NewReceiveFIFO(name string) *ReceiveFIFO {
	return &ReceiveFIFO{
		name:     name,
		elements: make([]byte, 0, ReceiveFIFOCapacity),
		capacity: ReceiveFIFOCapacity,
	}
}

// Name returns the name of the FIFO.
func (f *ReceiveFIFO) Name() string {
	return f.name
}

// Push queues b. When the FIFO is full the policy decides which byte is lost
// and Push returns true.
func (f *ReceiveFIFO) Push(b byte, policy OverrunPolicy) (overrun bool) {
	if !f.IsFull() {
		f.elements = append(f.elements, b)
		return false
	}

	if policy == EvictOldest {
		f.RemoveOne()
		f.elements = append(f.elements, b)
	}

	return true
}

// RemoveOne drops the oldest byte, if any.
func (f *ReceiveFIFO) RemoveOne() {
	if len(f.elements) == 0 {
		return
	}

	copy(f.elements, f.elements[1:])
	f.elements = f.elements[:len(f.elements)-1]
}

// Peek returns the i-th oldest byte. It panics if i is out of range.
func (f *ReceiveFIFO) Peek(i int) byte {
	return f.elements[i]
}

// Bytes returns a copy of the queued bytes, oldest first.
func (f *ReceiveFIFO) Bytes() []byte {
	return append([]byte(nil), f.elements...)
}

func (f *ReceiveFIFO) Size() int {
	return len(f.elements)
}

func (f *ReceiveFIFO) Capacity() int {
	return f.capacity
}

func (f *ReceiveFIFO) IsFull() bool {
	return len(f.elements) >= f.capacity
}

func (f *ReceiveFIFO) IsEmpty() bool {
	return len(f.elements) == 0
}

func (f *ReceiveFIFO) Clear() {
	f.elements = f.elements[:0]
}
