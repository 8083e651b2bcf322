package sio

import "github.com/sarchlab/siolink/hooking"

// Hook positions raised by the controller.
var (
	// HookPosRegRead fires after a register read. Item is a RegAccess.
	HookPosRegRead = &hooking.HookPos{Name: "SIO Reg Read"}

	// HookPosRegWrite fires after a register write. Item is a RegAccess.
	HookPosRegWrite = &hooking.HookPos{Name: "SIO Reg Write"}

	// HookPosRecv fires when a data byte arrives. Item is a ByteTransfer.
	HookPosRecv = &hooking.HookPos{Name: "SIO Recv"}

	// HookPosSend fires when a data byte leaves. Item is a ByteTransfer.
	HookPosSend = &hooking.HookPos{Name: "SIO Send"}

	// HookPosOverrun fires when the receive FIFO loses a byte. Item is a
	// ByteTransfer holding the incoming byte.
	HookPosOverrun = &hooking.HookPos{Name: "SIO Overrun"}

	// HookPosTxOverwrite fires when a data write replaces an unsent byte.
	// Item is a TxOverwrite.
	HookPosTxOverwrite = &hooking.HookPos{Name: "SIO TX Overwrite"}

	// HookPosInterrupt fires when the controller raises its interrupt. Item
	// is the channel.
	HookPosInterrupt = &hooking.HookPos{Name: "SIO Interrupt"}

	// HookPosReset fires after a soft reset.
	HookPosReset = &hooking.HookPos{Name: "SIO Reset"}
)

// RegAccess describes a register access.
type RegAccess struct {
	Offset uint32
	Value  uint32
}

// ByteTransfer describes a byte crossing the link. Flags is the frame flag
// byte for the framed protocol and zero otherwise.
type ByteTransfer struct {
	Data   byte
	Flags  byte
	Framed bool
}

// TxOverwrite describes a transmit byte lost to a newer data write.
type TxOverwrite struct {
	Lost    byte
	Written byte
}
