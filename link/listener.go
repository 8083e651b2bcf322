package link

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Bounds of the pause between failed accepts.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Listener accepts one TCP peer at a time and acts as a connection to it.
// It reads as disconnected until a peer arrives. A new peer is accepted only
// after the current one has gone away.
type Listener struct {
	listener net.Listener
	log      *slog.Logger

	lock    sync.Mutex
	current *NetConn

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// Listen starts accepting peers on addr. A missing port defaults to
// DefaultPort.
func Listen(addr string, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", withDefaultPort(addr))
	if err != nil {
		return nil, fmt.Errorf("link: listen on %s: %w", addr, err)
	}

	return newListener(ln, logger), nil
}

func newListener(ln net.Listener, logger *slog.Logger) *Listener {
	l := &Listener{
		listener: ln,
		log:      logger,
		shutdown: make(chan struct{}),
	}

	l.log.Info("Listening", "addr", ln.Addr().String())

	l.wg.Add(1)
	go l.acceptConnections()

	return l
}

func (l *Listener) acceptConnections() {
	defer l.wg.Done()

	var backoff time.Duration

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.shutdown:
				return
			default:
			}

			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(2*backoff, maxAcceptBackoff)
			}

			l.log.Warn("Accept failed", "err", err, "retry_in", backoff)

			select {
			case <-l.shutdown:
				return
			case <-time.After(backoff):
			}

			continue
		}

		backoff = 0
		l.adopt(conn)
	}
}

func (l *Listener) adopt(conn net.Conn) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.current != nil && l.current.IsConnected() {
		l.log.Warn("Rejecting peer, already connected",
			"peer", conn.RemoteAddr().String())
		conn.Close()

		return
	}

	if l.current != nil {
		l.current.Close()
	}

	l.log.Info("Peer connected", "peer", conn.RemoteAddr().String())
	l.current = NewNetConn(conn, l.log)
}

func (l *Listener) peer() *NetConn {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.current
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// IsConnected tells if a peer is attached.
func (l *Listener) IsConnected() bool {
	p := l.peer()
	return p != nil && p.IsConnected()
}

// HasData tells if the current peer sent bytes that are not read yet.
func (l *Listener) HasData() bool {
	p := l.peer()
	return p != nil && p.HasData()
}

// Read reads from the current peer.
func (l *Listener) Read(buf []byte, minLen int) int {
	p := l.peer()
	if p == nil {
		return 0
	}

	return p.Read(buf, minLen)
}

// Write writes to the current peer.
func (l *Listener) Write(buf []byte) int {
	p := l.peer()
	if p == nil {
		return 0
	}

	return p.Write(buf)
}

// Close stops accepting and drops the current peer.
func (l *Listener) Close() error {
	var err error

	l.once.Do(func() {
		close(l.shutdown)
		err = l.listener.Close()
		l.wg.Wait()

		if p := l.peer(); p != nil {
			p.Close()
		}
	})

	return err
}
