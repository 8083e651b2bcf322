package host

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/siolink/internal/logging"
	"github.com/sarchlab/siolink/timing"
)

var _ = Describe("Pacer", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should split the clock rate into slices", func() {
		p := NewPacer(engine, 1_000_000, 10*time.Millisecond, logging.Discard())

		Expect(p.CyclesPerSlice()).To(Equal(timing.VTimeInCycle(10_000)))
	})

	It("should run one slice past the current time", func() {
		p := NewPacer(engine, 1_000_000, 10*time.Millisecond, logging.Discard())
		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(500))
		engine.EXPECT().RunUntil(timing.VTimeInCycle(10_500)).Return(nil)

		Expect(p.Step()).To(Succeed())
	})

	It("should stop on engine errors", func() {
		p := NewPacer(engine, 1_000_000, time.Millisecond, logging.Discard())
		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(0))
		engine.EXPECT().RunUntil(gomock.Any()).Return(errors.New("boom"))

		err := p.Run(context.Background())

		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("should return when the context is cancelled", func() {
		p := NewPacer(engine, 1_000_000, time.Millisecond, logging.Discard())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(0)).AnyTimes()
		engine.EXPECT().RunUntil(gomock.Any()).Return(nil).MinTimes(1)

		Expect(p.Run(ctx)).To(Succeed())
	})

	It("should refuse a slice without cycles", func() {
		Expect(func() {
			NewPacer(engine, 10, time.Millisecond, logging.Discard())
		}).To(Panic())
	})

	It("should cut the last slice at the stop time", func() {
		p := NewPacer(engine, 1_000_000, 10*time.Millisecond, logging.Discard())
		p.StopAt(12_000)

		engine.EXPECT().CurrentTime().Return(timing.VTimeInCycle(5_000))
		engine.EXPECT().RunUntil(timing.VTimeInCycle(12_000)).Return(nil)

		Expect(p.Step()).To(Succeed())
	})

	It("should return at the stop time and report each step", func() {
		p := NewPacer(engine, 1_000_000, time.Millisecond, logging.Discard())
		p.StopAt(2_000)

		now := timing.VTimeInCycle(0)
		engine.EXPECT().CurrentTime().DoAndReturn(func() timing.VTimeInCycle {
			return now
		}).AnyTimes()
		engine.EXPECT().RunUntil(gomock.Any()).DoAndReturn(
			func(t timing.VTimeInCycle) error {
				now = t
				return nil
			}).Times(2)

		var steps []timing.VTimeInCycle
		p.OnStep(func(t timing.VTimeInCycle) { steps = append(steps, t) })

		Expect(p.Run(context.Background())).To(Succeed())
		Expect(steps).To(Equal([]timing.VTimeInCycle{1_000, 2_000}))
	})
})
