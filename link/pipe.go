package link

import "sync"

// DefaultPipeCapacity is the number of bytes a pipe direction buffers before
// writes come up short.
const DefaultPipeCapacity = 4096

type pipeShared struct {
	lock   sync.Mutex
	closed bool
}

// PipeEnd is one end of an in-memory pipe. Bytes written to one end are read
// from the other.
type PipeEnd struct {
	shared   *pipeShared
	inbox    []byte
	capacity int
	peer     *PipeEnd
}

// Pipe creates two connected ends.
func Pipe() (*PipeEnd, *PipeEnd) {
	return PipeWithCapacity(DefaultPipeCapacity)
}

// PipeWithCapacity creates two connected ends that each buffer at most
// capacity bytes.
func PipeWithCapacity(capacity int) (*PipeEnd, *PipeEnd) {
	if capacity <= 0 {
		panic("link: pipe capacity must be positive")
	}

	shared := &pipeShared{}
	a := &PipeEnd{shared: shared, capacity: capacity}
	b := &PipeEnd{shared: shared, capacity: capacity}
	a.peer = b
	b.peer = a

	return a, b
}

// Loopback creates a single end that reads back whatever is written to it.
func Loopback() *PipeEnd {
	end := &PipeEnd{shared: &pipeShared{}, capacity: DefaultPipeCapacity}
	end.peer = end

	return end
}

// IsConnected tells if neither end has been closed.
func (p *PipeEnd) IsConnected() bool {
	p.shared.lock.Lock()
	defer p.shared.lock.Unlock()

	return !p.shared.closed
}

// HasData tells if bytes are waiting to be read.
func (p *PipeEnd) HasData() bool {
	p.shared.lock.Lock()
	defer p.shared.lock.Unlock()

	return !p.shared.closed && len(p.inbox) > 0
}

// Read copies up to len(buf) bytes into buf. Nothing is read unless at least
// minLen bytes are available.
func (p *PipeEnd) Read(buf []byte, minLen int) int {
	p.shared.lock.Lock()
	defer p.shared.lock.Unlock()

	if p.shared.closed {
		return 0
	}

	return takeBuffered(&p.inbox, buf, minLen)
}

// Write queues buf for the peer and returns how many bytes fit.
func (p *PipeEnd) Write(buf []byte) int {
	p.shared.lock.Lock()
	defer p.shared.lock.Unlock()

	if p.shared.closed {
		return 0
	}

	n := min(len(buf), p.peer.capacity-len(p.peer.inbox))
	p.peer.inbox = append(p.peer.inbox, buf[:n]...)

	return n
}

// Close disconnects both ends and drops buffered bytes.
func (p *PipeEnd) Close() error {
	p.shared.lock.Lock()
	defer p.shared.lock.Unlock()

	p.shared.closed = true
	p.inbox = nil
	p.peer.inbox = nil

	return nil
}

// takeBuffered moves bytes from the front of *buffered into buf when at least
// minLen are available.
func takeBuffered(buffered *[]byte, buf []byte, minLen int) int {
	avail := len(*buffered)
	if avail == 0 || avail < minLen {
		return 0
	}

	n := copy(buf, *buffered)
	*buffered = (*buffered)[n:]

	if len(*buffered) == 0 {
		*buffered = nil
	}

	return n
}
