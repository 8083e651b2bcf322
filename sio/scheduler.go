package sio

import "github.com/sarchlab/siolink/timing"

// reloadMultipliers maps the mode reload factor to a baud multiplier. Factor 3
// is reserved.
var reloadMultipliers = [4]uint32{1, 16, 64, 0}

// TicksBetweenTransfers returns the transfer period for the current baud
// rate and reload factor, rounded down to an even number but never below the
// multiplier. A reserved reload factor yields 0.
func (c *Comp) TicksBetweenTransfers() timing.VTimeInCycle {
	return TransferTicks(c.baudRate, c.mode)
}

// TransferTicks computes the transfer period for a baud-rate divisor and mode.
func TransferTicks(baudRate uint16, mode Mode) timing.VTimeInCycle {
	factor := reloadMultipliers[mode.ReloadFactor()]
	ticks := max((uint32(baudRate)*factor)&^1, factor)

	return timing.VTimeInCycle(ticks)
}

// RescheduleIfNeeded brings the transfer event in line with the current
// registers. Without a connection no transfers happen at all.
func (c *Comp) RescheduleIfNeeded() {
	if c.conn == nil {
		c.transferEvent.Deactivate()
		return
	}

	ticks := c.TicksBetweenTransfers()
	if ticks == 0 {
		ticks = c.maxSliceTicks
	}

	if c.transferEvent.Period() == ticks && c.transferEvent.IsActive() {
		return
	}

	c.transferEvent.Deactivate()
	c.transferEvent.SetPeriodAndSchedule(ticks)
}
