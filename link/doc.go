// Package link provides connections a serial controller can be attached to:
// an in-memory pipe for loopback and tests, and TCP client and server
// endpoints. Every provider is non-blocking from the controller's point of
// view. Reads return whatever has arrived so far and writes never wait for
// the peer.
package link

// DefaultPort is the TCP port used when an address carries no port.
const DefaultPort = "1337"
