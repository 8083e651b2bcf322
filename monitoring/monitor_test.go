package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/siolink/internal/logging"
	"github.com/sarchlab/siolink/link"
	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/timing"
	"github.com/sarchlab/siolink/tracing"
)

type stubTracer struct {
	on bool
}

func (t *stubTracer) EnableTracing()    { t.on = true }
func (t *stubTracer) StopTracing() error { t.on = false; return nil }
func (t *stubTracer) IsTracing() bool    { return t.on }

var _ = Describe("Monitor", func() {
	var (
		engine  *timing.SerialEngine
		comp    *sio.Comp
		counter *tracing.EventCounter
		m       *Monitor
		server  *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		local, _ := link.Pipe()
		comp = sio.MakeBuilder().
			WithEngine(engine).
			WithConnection(local).
			WithLogger(logging.Discard()).
			Build("SIO")
		counter = tracing.NewEventCounter()
		comp.AcceptHook(counter)

		m = NewMonitor().WithLogger(logging.Discard())
		m.RegisterEngine(engine)
		m.RegisterComponent(comp)
		m.RegisterCounter(counter)

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should report the current cycle", func() {
		Expect(engine.RunUntil(1000)).To(Succeed())

		code, body := get("/api/now")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`{"now":1000}`))
	})

	It("should list components", func() {
		_, body := get("/api/list_components")

		Expect(string(body)).To(Equal(`["SIO"]`))
	})

	It("should serve the registers of a component", func() {
		comp.WriteRegister(sio.RegMode, 0x4E)

		code, body := get("/api/registers/SIO")
		Expect(code).To(Equal(http.StatusOK))

		var view sio.RegisterView
		Expect(json.Unmarshal(body, &view)).To(Succeed())
		Expect(view.Mode).To(Equal(uint16(0x4E)))
		Expect(view.BaudRate).To(Equal(sio.DefaultBaudRate))
		Expect(view.Connected).To(BeTrue())
		Expect(view.TransferActive).To(BeTrue())
		Expect(view.TransferPeriod).To(Equal(timing.VTimeInCycle(0xDC)))
	})

	It("should answer 404 for unknown components", func() {
		code, _ := get("/api/registers/Nope")
		Expect(code).To(Equal(http.StatusNotFound))

		code, _ = get("/api/component/Nope")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should serialize a component", func() {
		code, body := get("/api/component/SIO")

		Expect(code).To(Equal(http.StatusOK))
		Expect(json.Valid(body)).To(BeTrue())
	})

	It("should serve event counts", func() {
		comp.ReadRegister(sio.RegStatus)

		_, body := get("/api/counters")

		var counts map[string]uint64
		Expect(json.Unmarshal(body, &counts)).To(Succeed())
		Expect(counts).To(HaveKeyWithValue(sio.HookPosRegRead.Name, uint64(1)))
	})

	It("should switch tracing", func() {
		code, _ := get("/api/trace/start")
		Expect(code).To(Equal(http.StatusNotFound))

		tracer := &stubTracer{}
		m.RegisterTracer(tracer)

		_, body := get("/api/trace/start")
		Expect(string(body)).To(Equal(`{"tracing":true}`))

		_, body = get("/api/trace/stop")
		Expect(string(body)).To(Equal(`{"tracing":false}`))
		Expect(tracer.on).To(BeFalse())
	})

	It("should pause and continue the engine", func() {
		code, _ := get("/api/pause")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get("/api/continue")
		Expect(code).To(Equal(http.StatusOK))

		Expect(engine.RunUntil(10)).To(Succeed())
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Run", 100)
		bar.SetFinished(40)
		done := m.CreateProgressBar("Done", 1)
		m.CompleteProgressBar(done)

		_, body := get("/api/progress")

		var bars []map[string]any
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("Run"))
		Expect(bars[0]["finished"]).To(BeEquivalentTo(40))
	})

	It("should report resource usage", func() {
		code, body := get("/api/resource")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("memory_size"))
	})

	It("should refuse low port numbers", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})
})
