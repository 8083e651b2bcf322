// Package monitoring turns a running simulation into a small web server that
// lets tools inspect and control it while it runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/timing"
)

// Engine is the part of the engine the monitor controls.
type Engine interface {
	timing.TimeTeller
	Pause()
	Continue()
}

// Inspectable is a component whose registers can be shown.
type Inspectable interface {
	Name() string
	Registers() sio.RegisterView
}

// Counter reports event counts.
type Counter interface {
	Snapshot() map[string]uint64
}

// TraceSwitch turns a tracer on and off.
type TraceSwitch interface {
	EnableTracing()
	StopTracing() error
	IsTracing() bool
}

// Monitor can turn a simulation into a server and allows external monitoring
// and control of the simulation.
type Monitor struct {
	engine     Engine
	components []Inspectable
	counter    Counter
	tracer     TraceSwitch
	portNumber int
	log        *slog.Logger

	pausedLock sync.Mutex
	paused     bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	url string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{log: slog.Default()}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// refused and a random port is used instead.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.log.Warn("Monitoring port not allowed, using a random port",
			"port", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *slog.Logger) *Monitor {
	m.log = logger
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e Engine) {
	m.engine = e
}

// RegisterComponent registers a component to be monitored.
func (m *Monitor) RegisterComponent(c Inspectable) {
	m.components = append(m.components, c)
}

// RegisterCounter sets the event counter served at /api/counters.
func (m *Monitor) RegisterCounter(c Counter) {
	m.counter = c
}

// RegisterTracer sets the tracer controlled through /api/trace.
func (m *Monitor) RegisterTracer(t TraceSwitch) {
	m.tracer = t
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the HTTP routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/registers/{name}", m.listRegisters)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/counters", m.listCounters)
	r.HandleFunc("/api/trace/{action:start|stop|status}", m.controlTrace)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitoring: listen: %w", err)
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err := http.Serve(listener, m.Handler())
		dieOnErr(err)
	}()

	return m.url, nil
}

// OpenInBrowser opens the monitor in the default browser.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return fmt.Errorf("monitoring: server not started")
	}

	return browser.OpenURL(m.url + "/api/list_components")
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.pausedLock.Lock()
	m.engine.Pause()
	m.paused = true
	m.pausedLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.pausedLock.Lock()
	m.engine.Continue()
	m.paused = false
	m.pausedLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

// listRegisters reads the registers with the engine paused so the view is
// not torn by a transfer.
func (m *Monitor) listRegisters(w http.ResponseWriter, r *http.Request) {
	component := m.findComponentOr404(w, mux.Vars(r)["name"])
	if component == nil {
		return
	}

	var view sio.RegisterView
	m.whilePaused(func() { view = component.Registers() })

	writeJSON(w, view)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	component := m.findComponentOr404(w, mux.Vars(r)["name"])
	if component == nil {
		return
	}

	var err error

	m.whilePaused(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(w)
	})

	dieOnErr(err)
}

// whilePaused runs f with the engine paused and leaves it paused afterwards
// only if a client paused it.
func (m *Monitor) whilePaused(f func()) {
	m.pausedLock.Lock()
	defer m.pausedLock.Unlock()

	if m.paused {
		f()
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	f()
}

func (m *Monitor) listCounters(w http.ResponseWriter, _ *http.Request) {
	if m.counter == nil {
		writeJSON(w, map[string]uint64{})
		return
	}

	writeJSON(w, m.counter.Snapshot())
}

type traceRsp struct {
	Tracing bool `json:"tracing"`
}

func (m *Monitor) controlTrace(w http.ResponseWriter, r *http.Request) {
	if m.tracer == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Tracing not enabled"))
		dieOnErr(err)

		return
	}

	switch mux.Vars(r)["action"] {
	case "start":
		m.tracer.EnableTracing()
	case "stop":
		if err := m.tracer.StopTracing(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}
	}

	writeJSON(w, traceRsp{Tracing: m.tracer.IsTracing()})
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) Inspectable {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
