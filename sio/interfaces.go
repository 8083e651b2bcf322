package sio

import "github.com/sarchlab/siolink/timing"

//go:generate mockgen -destination "mock_sio_test.go" -package $GOPACKAGE -write_package_comment=false github.com/sarchlab/siolink/sio Connection,InterruptSink,TransferEvent

// A Connection is the byte stream on the other side of the serial link. All
// calls are non-blocking.
type Connection interface {
	// IsConnected tells if a peer is attached.
	IsConnected() bool

	// HasData tells if at least one byte can be read.
	HasData() bool

	// Read copies up to len(buf) bytes into buf. It returns 0 and reads nothing
	// if fewer than minLen bytes are available.
	Read(buf []byte, minLen int) int

	// Write sends as much of buf as possible and returns the number of bytes
	// accepted.
	Write(buf []byte) int
}

// An InterruptSink receives interrupt requests from the controller.
type InterruptSink interface {
	RequestInterrupt(channel int)
}

// A TransferEvent calls the controller back every transfer period.
type TransferEvent interface {
	SetPeriodAndSchedule(ticks timing.VTimeInCycle)
	Deactivate()
	InvokeEarly(force bool)
	Period() timing.VTimeInCycle
	IsActive() bool
}

var _ TransferEvent = (*timing.PeriodicEvent)(nil)
