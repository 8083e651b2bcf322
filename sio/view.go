package sio

import "github.com/sarchlab/siolink/timing"

// RegisterView is a read-only copy of the controller state for inspection
// tools. Taking it does not trigger a transfer.
type RegisterView struct {
	Control        uint16              `json:"control"`
	Status         uint32              `json:"status"`
	Mode           uint16              `json:"mode"`
	BaudRate       uint16              `json:"baud_rate"`
	FIFO           []byte              `json:"fifo"`
	TxFull         bool                `json:"tx_full"`
	TxData         byte                `json:"tx_data"`
	Protocol       string              `json:"protocol"`
	Connected      bool                `json:"connected"`
	TransferPeriod timing.VTimeInCycle `json:"transfer_period"`
	TransferActive bool                `json:"transfer_active"`
}

// Registers returns a snapshot of the controller for inspection.
func (c *Comp) Registers() RegisterView {
	return RegisterView{
		Control:        uint16(c.ctrl),
		Status:         uint32(c.stat),
		Mode:           uint16(c.mode),
		BaudRate:       c.baudRate,
		FIFO:           c.dataIn.Bytes(),
		TxFull:         c.dataOut.IsFull(),
		TxData:         c.dataOut.Data(),
		Protocol:       c.protocol.Name(),
		Connected:      c.conn != nil && c.conn.IsConnected(),
		TransferPeriod: c.transferEvent.Period(),
		TransferActive: c.transferEvent.IsActive(),
	}
}
