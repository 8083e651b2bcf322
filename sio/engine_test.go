package sio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/siolink/internal/logging"
	"github.com/sarchlab/siolink/timing"
)

type statusProbe struct {
	comp  *Comp
	reads int
}

func (p *statusProbe) Handle(_ any) error {
	p.comp.ReadRegister(RegStatus)
	p.comp.ReadRegister(RegStatus)
	p.reads += 2

	return nil
}

var _ = Describe("Comp on an engine", func() {
	var (
		engine *timing.SerialEngine
		conn   *fakeConn
		comp   *Comp
		hook   *hookRecorder
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		conn = newFakeConn()
		hook = &hookRecorder{}

		comp = MakeBuilder().
			WithEngine(engine).
			WithConnection(conn).
			WithLogger(logging.Discard()).
			Build("SIO")
		comp.AcceptHook(hook)
		comp.WriteRegister(RegControl, uint32(CtrlRXEN))
	})

	It("should transfer once per period", func() {
		conn.in = []byte{1, 2, 3}

		Expect(engine.RunUntil(0xDC - 1)).To(Succeed())
		Expect(comp.dataIn.Size()).To(Equal(0))

		Expect(engine.RunUntil(0xDC)).To(Succeed())
		Expect(comp.dataIn.Size()).To(Equal(1))

		Expect(engine.RunUntil(2 * 0xDC)).To(Succeed())
		Expect(comp.dataIn.Bytes()).To(Equal([]byte{1, 2}))
		Expect(hook.at(HookPosRecv)).To(HaveLen(2))
	})

	It("should not repeat a transfer on back-to-back early invocations", func() {
		conn.in = []byte{1, 2, 3}
		probe := &statusProbe{comp: comp}
		engine.Schedule(timing.ScheduledEvent{
			Event:   struct{}{},
			Time:    0xDC,
			Handler: probe,
		})

		Expect(engine.RunUntil(0xDC)).To(Succeed())
		Expect(probe.reads).To(Equal(2))
		Expect(conn.reads).To(Equal(1))
		Expect(comp.dataIn.Size()).To(Equal(1))

		Expect(engine.RunUntil(2*0xDC - 1)).To(Succeed())
		Expect(conn.reads).To(Equal(1))
	})

	It("should run due work when a register access comes first", func() {
		engine = timing.NewSerialEngine()
		conn = newFakeConn()
		conn.in = []byte{1, 2, 3}
		probe := &statusProbe{}
		engine.Schedule(timing.ScheduledEvent{
			Event:   struct{}{},
			Time:    0xDC,
			Handler: probe,
		})

		comp = MakeBuilder().
			WithEngine(engine).
			WithConnection(conn).
			WithLogger(logging.Discard()).
			Build("SIO")
		comp.WriteRegister(RegControl, uint32(CtrlRXEN))
		probe.comp = comp

		Expect(engine.RunUntil(0xDC)).To(Succeed())
		Expect(conn.reads).To(Equal(1))

		Expect(engine.RunUntil(2 * 0xDC)).To(Succeed())
		Expect(conn.reads).To(Equal(2))
		Expect(comp.dataIn.Bytes()).To(Equal([]byte{1, 2}))
	})

	It("should stop transferring after detach", func() {
		conn.in = []byte{1, 2, 3}
		comp.DetachConnection()

		Expect(engine.RunUntil(4 * 0xDC)).To(Succeed())
		Expect(conn.reads).To(BeZero())
	})

	It("should follow a new baud rate once rescheduled", func() {
		conn.in = []byte{1, 2, 3, 4}
		comp.WriteRegister(RegBaudRate, 0x10)
		comp.RescheduleIfNeeded()

		Expect(engine.RunUntil(0x10)).To(Succeed())
		Expect(comp.dataIn.Size()).To(Equal(1))

		Expect(engine.RunUntil(0x40)).To(Succeed())
		Expect(comp.dataIn.Size()).To(Equal(4))
	})

	It("should keep the transfer event quiet after shutdown", func() {
		comp.Shutdown()

		Expect(engine.Run()).To(Succeed())
		Expect(conn.reads).To(BeZero())
	})
})
