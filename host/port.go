// Package host plays the CPU side of the serial controller. Console polls the
// register port like a polling driver would, and Pacer runs the simulation
// against the wall clock.
package host

import "github.com/sarchlab/siolink/timing"

//go:generate mockgen -destination "mock_host_test.go" -package $GOPACKAGE -write_package_comment=false github.com/sarchlab/siolink/host RegisterPort,Acknowledger,Engine

// RegisterPort is the controller's register window.
type RegisterPort interface {
	ReadRegister(offset uint32) uint32
	WriteRegister(offset uint32, value uint32)
}

// Acknowledger clears a latched interrupt request.
type Acknowledger interface {
	Acknowledge(channel int) bool
}

// Engine is the part of the event engine the Pacer drives.
type Engine interface {
	timing.TimeTeller
	RunUntil(t timing.VTimeInCycle) error
}
