// Package tracing records what a serial controller does on the link, either
// as rows in a trace database or as simple per-event counters.
package tracing

import (
	"fmt"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/siolink/datarecording"
	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/timing"
)

// TransferTable is the table transfer entries are written to.
const TransferTable = "sio_transfers"

// Transfer entry kinds.
const (
	KindSend        = "send"
	KindRecv        = "recv"
	KindOverrun     = "overrun"
	KindInterrupt   = "interrupt"
	KindTxOverwrite = "tx_overwrite"
	KindReset       = "reset"
)

// TransferEntry is one row of the transfer table. Data is the byte involved,
// Lost is the byte a tx_overwrite replaced and Channel is the interrupt
// channel.
type TransferEntry struct {
	Time     uint64
	Location string
	Kind     string
	Data     uint8
	Flags    uint8
	Framed   bool
	Lost     uint8
	Channel  int
}

// TransferTracer is a hook that writes one TransferEntry per link event of
// the controllers it is attached to.
type TransferTracer struct {
	mu         sync.Mutex
	timeTeller timing.TimeTeller
	backend    datarecording.DataRecorder
	enabled    bool
	count      uint64
}

// NewTransferTracer creates the transfer table and returns an enabled tracer.
func NewTransferTracer(
	timeTeller timing.TimeTeller,
	backend datarecording.DataRecorder,
) (*TransferTracer, error) {
	if err := backend.CreateTable(TransferTable, TransferEntry{}); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	t := &TransferTracer{
		timeTeller: timeTeller,
		backend:    backend,
		enabled:    true,
	}

	atexit.Register(func() { t.Terminate() })

	return t, nil
}

// EnableTracing resumes recording.
func (t *TransferTracer) EnableTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = true
}

// StopTracing stops recording and flushes what has been recorded.
func (t *TransferTracer) StopTracing() error {
	t.mu.Lock()
	t.enabled = false
	t.mu.Unlock()

	return t.backend.Flush()
}

// IsTracing tells if entries are being recorded.
func (t *TransferTracer) IsTracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled
}

// Count returns the number of entries recorded so far.
func (t *TransferTracer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Terminate flushes the backend.
func (t *TransferTracer) Terminate() {
	t.backend.Flush()
}

// Func records the event behind ctx.
func (t *TransferTracer) Func(ctx hooking.HookCtx) {
	entry, ok := entryFor(ctx)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	entry.Time = uint64(t.timeTeller.CurrentTime())
	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		entry.Location = named.Name()
	}

	if err := t.backend.InsertData(TransferTable, entry); err != nil {
		panic(err)
	}

	t.count++
}

func entryFor(ctx hooking.HookCtx) (TransferEntry, bool) {
	switch ctx.Pos {
	case sio.HookPosSend:
		return byteEntry(KindSend, ctx.Item.(sio.ByteTransfer)), true
	case sio.HookPosRecv:
		return byteEntry(KindRecv, ctx.Item.(sio.ByteTransfer)), true
	case sio.HookPosOverrun:
		return byteEntry(KindOverrun, ctx.Item.(sio.ByteTransfer)), true
	case sio.HookPosInterrupt:
		return TransferEntry{Kind: KindInterrupt, Channel: ctx.Item.(int)}, true
	case sio.HookPosTxOverwrite:
		o := ctx.Item.(sio.TxOverwrite)
		return TransferEntry{Kind: KindTxOverwrite, Data: o.Written, Lost: o.Lost}, true
	case sio.HookPosReset:
		return TransferEntry{Kind: KindReset}, true
	default:
		return TransferEntry{}, false
	}
}

func byteEntry(kind string, b sio.ByteTransfer) TransferEntry {
	return TransferEntry{
		Kind:   kind,
		Data:   b.Data,
		Flags:  b.Flags,
		Framed: b.Framed,
	}
}
