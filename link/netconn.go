package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// MaxBuffered is the most received bytes a NetConn holds before it stops
// reading from the socket.
const MaxBuffered = 64 * 1024

// OutboxCapacity is the most outgoing bytes a NetConn holds while the socket
// is busy. Write accepts only what fits.
const OutboxCapacity = 4096

// NetConn adapts a net.Conn. A reader goroutine collects incoming bytes and a
// writer goroutine drains outgoing ones, so neither Read nor Write blocks. Any
// I/O error disconnects the link for good.
type NetConn struct {
	conn net.Conn
	log  *slog.Logger

	lock      sync.Mutex
	buffered  []byte
	outbox    []byte
	inFlight  int
	connected bool
	room      *sync.Cond
	pending   *sync.Cond

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewNetConn wraps conn and starts reading from it.
func NewNetConn(conn net.Conn, logger *slog.Logger) *NetConn {
	if logger == nil {
		logger = slog.Default()
	}

	c := &NetConn{
		conn:      conn,
		log:       logger.With("peer", conn.RemoteAddr().String()),
		connected: true,
	}
	c.room = sync.NewCond(&c.lock)
	c.pending = sync.NewCond(&c.lock)

	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()

	return c
}

// Dial connects to addr over TCP. A missing port defaults to DefaultPort.
func Dial(ctx context.Context, addr string, logger *slog.Logger) (*NetConn, error) {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", withDefaultPort(addr))
	if err != nil {
		return nil, fmt.Errorf("link: dial %s: %w", addr, err)
	}

	return NewNetConn(conn, logger), nil
}

func (c *NetConn) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, 512)

	for {
		n, err := c.conn.Read(buf)

		c.lock.Lock()
		c.buffered = append(c.buffered, buf[:n]...)

		for err == nil && c.connected && len(c.buffered) >= MaxBuffered {
			c.room.Wait()
		}

		if err != nil {
			c.disconnectLocked(err)
		}

		stop := !c.connected
		c.lock.Unlock()

		if stop {
			return
		}
	}
}

func (c *NetConn) writeLoop() {
	defer c.wg.Done()

	for {
		c.lock.Lock()
		for c.connected && len(c.outbox) == 0 {
			c.pending.Wait()
		}

		if !c.connected {
			c.lock.Unlock()
			return
		}

		chunk := c.outbox
		c.outbox = nil
		c.inFlight = len(chunk)
		c.lock.Unlock()

		_, err := c.conn.Write(chunk)

		c.lock.Lock()
		c.inFlight = 0
		if err != nil {
			c.disconnectLocked(err)
		}
		c.lock.Unlock()
	}
}

func (c *NetConn) disconnectLocked(err error) {
	if !c.connected {
		return
	}

	c.connected = false
	c.room.Broadcast()
	c.pending.Broadcast()

	if errors.Is(err, net.ErrClosed) {
		return
	}

	c.log.Warn("Connection lost", "err", err)
}

// RemoteAddr returns the address of the peer.
func (c *NetConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// IsConnected tells if the socket is still usable.
func (c *NetConn) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.connected
}

// HasData tells if received bytes are waiting.
func (c *NetConn) HasData() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.buffered) > 0
}

// Read copies received bytes into buf if at least minLen are available.
// Bytes received before a disconnect can still be read.
func (c *NetConn) Read(buf []byte, minLen int) int {
	c.lock.Lock()
	defer c.lock.Unlock()

	n := takeBuffered(&c.buffered, buf, minLen)
	if n > 0 {
		c.room.Signal()
	}

	return n
}

// Write queues as much of buf as the outbox has room for and returns that
// count. Bytes still queued at disconnect are lost.
func (c *NetConn) Write(buf []byte) int {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.connected {
		return 0
	}

	n := min(len(buf), OutboxCapacity-len(c.outbox)-c.inFlight)
	if n <= 0 {
		return 0
	}

	c.outbox = append(c.outbox, buf[:n]...)
	c.pending.Signal()

	return n
}

func (c *NetConn) fail(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.disconnectLocked(err)
}

// Close shuts the socket down and waits for the reader and writer to exit.
func (c *NetConn) Close() error {
	var err error

	c.closeOnce.Do(func() {
		c.fail(net.ErrClosed)
		err = c.conn.Close()
		c.wg.Wait()
	})

	return err
}

func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return net.JoinHostPort(addr, DefaultPort)
}
