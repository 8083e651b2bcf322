package sio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/siolink/hooking"
	"github.com/sarchlab/siolink/internal/logging"
	"github.com/sarchlab/siolink/timing"
)

type hookRecorder struct {
	ctxs []hooking.HookCtx
}

func (h *hookRecorder) Func(ctx hooking.HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

func (h *hookRecorder) at(pos *hooking.HookPos) []any {
	var items []any

	for _, ctx := range h.ctxs {
		if ctx.Pos == pos {
			items = append(items, ctx.Item)
		}
	}

	return items
}

func looseTransferEvent(ctrl *gomock.Controller) *MockTransferEvent {
	evt := NewMockTransferEvent(ctrl)
	evt.EXPECT().InvokeEarly(gomock.Any()).AnyTimes()
	evt.EXPECT().Deactivate().AnyTimes()
	evt.EXPECT().IsActive().Return(true).AnyTimes()
	evt.EXPECT().Period().Return(timing.VTimeInCycle(0xDC)).AnyTimes()
	evt.EXPECT().SetPeriodAndSchedule(gomock.Any()).AnyTimes()

	return evt
}

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		evt      *MockTransferEvent
		irq      *MockInterruptSink
		conn     *fakeConn
		comp     *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		evt = looseTransferEvent(mockCtrl)
		irq = NewMockInterruptSink(mockCtrl)
		conn = newFakeConn()

		comp = MakeBuilder().
			WithTransferEvent(evt).
			WithConnection(conn).
			WithInterruptSink(irq).
			WithLogger(logging.Discard()).
			Build("SIO")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start in the power-on state", func() {
		Expect(comp.ReadRegister(RegControl)).To(Equal(uint32(0)))
		Expect(comp.ReadRegister(RegMode)).To(Equal(uint32(0)))
		Expect(comp.ReadRegister(RegBaudRate)).To(Equal(uint32(0xDC)))
		Expect(comp.ReadRegister(RegStatus)).To(Equal(uint32(0)))
		Expect(comp.dataIn.IsEmpty()).To(BeTrue())
		Expect(comp.dataOut.IsFull()).To(BeFalse())
	})

	Context("unknown offsets", func() {
		It("should read as all ones", func() {
			for _, offset := range []uint32{0x01, 0x02, 0x06, 0x0C, 0x10, 0xFF} {
				Expect(comp.ReadRegister(offset)).To(Equal(uint32(0xFFFFFFFF)))
			}
		})

		It("should ignore writes", func() {
			before := comp.SaveState()

			comp.WriteRegister(0x0C, 0x1234)
			comp.WriteRegister(RegStatus, 0xFFFF)

			Expect(comp.SaveState()).To(Equal(before))
		})
	})

	Context("mode and baud rate", func() {
		It("should read back what was written", func() {
			comp.WriteRegister(RegMode, 0x1234_004E)
			comp.WriteRegister(RegBaudRate, 0xABCD_0088)

			Expect(comp.ReadRegister(RegMode)).To(Equal(uint32(0x004E)))
			Expect(comp.ReadRegister(RegBaudRate)).To(Equal(uint32(0x0088)))
		})
	})

	Context("data read", func() {
		fill := func(bytes ...byte) {
			for _, b := range bytes {
				comp.dataIn.Push(b, EvictOldest)
			}
		}

		It("should return all ones when the FIFO is empty", func() {
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should place a single byte in bits 16 to 23", func() {
			fill(0x5A)
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x005A0000)))
		})

		It("should overlap the three oldest bytes", func() {
			fill(0x11, 0x22)
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x00330000)))

			comp.dataIn.Clear()
			fill(0x01, 0x02, 0x04)
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x00070000)))
		})

		It("should put the fourth byte in the top lane", func() {
			fill(0x01, 0x02, 0x04, 0xA5)
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0xA5070000)))

			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x00A70000)))
		})

		It("should read a full FIFO as all ones and still take a byte", func() {
			fill(1, 2, 3, 4, 5, 6, 7, 8)
			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(comp.dataIn.Bytes()).To(Equal([]byte{2, 3, 4, 5, 6, 7, 8}))
		})

		It("should consume the oldest byte on every read", func() {
			fill(0x41, 0x42)

			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x00430000)))
			Expect(comp.dataIn.Bytes()).To(Equal([]byte{0x42}))
			Expect(comp.stat.Has(StatRXFIFONEmpty)).To(BeTrue())

			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0x00420000)))
			Expect(comp.dataIn.IsEmpty()).To(BeTrue())
			Expect(comp.stat.Has(StatRXFIFONEmpty)).To(BeFalse())

			Expect(comp.ReadRegister(RegData)).To(Equal(uint32(0xFFFFFFFF)))
		})
	})

	Context("data write", func() {
		It("should fill the transmit slot", func() {
			comp.WriteRegister(RegData, 0x1241)

			Expect(comp.dataOut.IsFull()).To(BeTrue())
			Expect(comp.dataOut.Data()).To(Equal(byte(0x41)))
			Expect(comp.stat.Has(StatTXRDY)).To(BeFalse())
		})

		It("should overwrite an unsent byte", func() {
			hook := &hookRecorder{}
			comp.AcceptHook(hook)

			comp.WriteRegister(RegData, 0x41)
			comp.WriteRegister(RegData, 0x42)

			Expect(comp.dataOut.Data()).To(Equal(byte(0x42)))
			Expect(hook.at(HookPosTxOverwrite)).To(ConsistOf(
				TxOverwrite{Lost: 0x41, Written: 0x42}))
		})
	})

	Context("control write", func() {
		It("should clear the error latches on ACK and nothing else", func() {
			comp.WriteRegister(RegControl, uint32(CtrlRXEN|CtrlTXEN))
			comp.stat = StatRXParity | StatRXFIFOOverrun | StatRXBadStopBit |
				StatINTR | StatCTSInputLevel | StatDTRInputLevel |
				StatRXInputLevel | StatTXRDY | StatTXDONE | (0x55 << statTMRShift)
			before := comp.stat

			comp.WriteRegister(RegControl, uint32(CtrlACK|CtrlRXEN|CtrlTXEN))

			Expect(comp.stat).To(Equal(before &^ statAckMask))
			Expect(comp.ReadRegister(RegControl)).
				To(Equal(uint32(CtrlRXEN | CtrlTXEN)))
		})

		It("should soft reset on RESET", func() {
			comp.WriteRegister(RegMode, 0x4E)
			comp.WriteRegister(RegBaudRate, 0x88)
			comp.WriteRegister(RegControl, uint32(CtrlRXEN|CtrlTXEN|CtrlRXIntEn))
			comp.WriteRegister(RegData, 0x41)
			comp.dataIn.Push(0x99, EvictOldest)
			comp.stat |= statAckMask | StatCTSInputLevel | StatDTRInputLevel

			comp.WriteRegister(RegControl, uint32(CtrlReset|CtrlRXEN))

			Expect(comp.ReadRegister(RegControl)).To(Equal(uint32(0)))
			Expect(comp.ReadRegister(RegMode)).To(Equal(uint32(0)))
			Expect(comp.ReadRegister(RegBaudRate)).To(Equal(uint32(DefaultBaudRate)))
			Expect(comp.stat & statAckMask).To(BeZero())
			Expect(comp.stat.Has(StatCTSInputLevel | StatDTRInputLevel)).To(BeTrue())
			Expect(comp.dataIn.IsEmpty()).To(BeTrue())
			Expect(comp.dataOut.IsFull()).To(BeFalse())
		})

		It("should empty the FIFO when RXEN is cleared", func() {
			comp.WriteRegister(RegControl, uint32(CtrlRXEN))
			comp.dataIn.Push(0x10, EvictOldest)
			comp.updateTXRX()
			Expect(comp.stat.Has(StatRXFIFONEmpty)).To(BeTrue())

			comp.WriteRegister(RegControl, 0)

			Expect(comp.dataIn.IsEmpty()).To(BeTrue())
			Expect(comp.stat.Has(StatRXFIFONEmpty)).To(BeFalse())
		})

		It("should drop the pending byte when TXEN is cleared", func() {
			comp.WriteRegister(RegControl, uint32(CtrlTXEN))
			comp.WriteRegister(RegData, 0x41)

			comp.WriteRegister(RegControl, uint32(CtrlRXEN))
			comp.WriteRegister(RegControl, uint32(CtrlRXEN|CtrlTXEN))
			comp.Transfer()

			Expect(comp.dataOut.IsFull()).To(BeFalse())
			Expect(conn.out).To(BeEmpty())
		})
	})

	Context("state", func() {
		It("should save the four registers", func() {
			comp.WriteRegister(RegMode, 0x4E)
			comp.WriteRegister(RegBaudRate, 0x88)
			comp.WriteRegister(RegControl, uint32(CtrlRXEN))

			Expect(comp.SaveState()).To(Equal(State{
				Control:  uint16(CtrlRXEN),
				Status:   0,
				Mode:     0x4E,
				BaudRate: 0x88,
			}))
		})

		It("should rebuild transient state on load", func() {
			comp.dataIn.Push(0x10, EvictOldest)
			comp.WriteRegister(RegData, 0x41)

			comp.LoadState(State{
				Control:  uint16(CtrlTXEN),
				Status:   uint32(StatCTSInputLevel | StatRXFIFONEmpty),
				Mode:     0x02,
				BaudRate: 0x10,
			})

			Expect(comp.dataIn.IsEmpty()).To(BeTrue())
			Expect(comp.dataOut.IsFull()).To(BeFalse())
			Expect(comp.stat.Has(StatRXFIFONEmpty)).To(BeFalse())
			Expect(comp.stat.Has(StatTXRDY | StatTXDONE)).To(BeTrue())
			Expect(comp.ReadRegister(RegMode)).To(Equal(uint32(0x02)))
		})
	})

	Context("shutdown", func() {
		It("should detach and be repeatable", func() {
			comp.Shutdown()
			comp.Shutdown()

			Expect(comp.Connection()).To(BeNil())
		})
	})
})

var _ = Describe("Comp early invocation", func() {
	var (
		mockCtrl *gomock.Controller
		evt      *MockTransferEvent
		comp     *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		evt = NewMockTransferEvent(mockCtrl)
		evt.EXPECT().Deactivate().AnyTimes()
		evt.EXPECT().IsActive().Return(false).AnyTimes()
		evt.EXPECT().Period().Return(timing.VTimeInCycle(0)).AnyTimes()
		evt.EXPECT().SetPeriodAndSchedule(gomock.Any()).AnyTimes()

		comp = MakeBuilder().
			WithTransferEvent(evt).
			WithConnection(newFakeConn()).
			WithLogger(logging.Discard()).
			Build("SIO")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run due transfers before data, status and control access", func() {
		evt.EXPECT().InvokeEarly(false).Times(4)

		comp.ReadRegister(RegData)
		comp.ReadRegister(RegStatus)
		comp.WriteRegister(RegData, 0x41)
		comp.WriteRegister(RegControl, uint32(CtrlTXEN))
	})

	It("should not touch the schedule for plain accessors", func() {
		comp.ReadRegister(RegMode)
		comp.ReadRegister(RegControl)
		comp.ReadRegister(RegBaudRate)
		comp.WriteRegister(RegMode, 0x4E)
		comp.WriteRegister(RegBaudRate, 0x88)
		comp.ReadRegister(0x20)
		comp.WriteRegister(0x20, 0)
	})
})
