package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sarchlab/siolink/config"
	"github.com/sarchlab/siolink/datarecording"
	"github.com/sarchlab/siolink/host"
	"github.com/sarchlab/siolink/irq"
	"github.com/sarchlab/siolink/link"
	"github.com/sarchlab/siolink/monitoring"
	"github.com/sarchlab/siolink/sio"
	"github.com/sarchlab/siolink/snapshot"
	"github.com/sarchlab/siolink/timing"
	"github.com/sarchlab/siolink/tracing"
)

// RestoreLatest as the restore ID loads the newest snapshot with the
// configured snapshot name.
const RestoreLatest = "latest"

type linkConn interface {
	sio.Connection
	io.Closer
}

// session is one emulated controller with everything around it.
type session struct {
	cfg config.Config
	log *slog.Logger

	engine  *timing.SerialEngine
	conn    linkConn
	line    *irq.Line
	comp    *sio.Comp
	console *host.Console
	pacer   *host.Pacer
	counter *tracing.EventCounter

	recorder datarecording.DataRecorder
	tracer   *tracing.TransferTracer
	store    *snapshot.Store

	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
}

func newSession(
	ctx context.Context,
	cfg config.Config,
	out io.Writer,
	logger *slog.Logger,
) (s *session, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	protocol, err := sio.ProtocolByName(cfg.Protocol)
	if err != nil {
		return nil, err
	}

	s = &session{
		cfg:     cfg,
		log:     logger,
		engine:  timing.NewSerialEngine(),
		line:    irq.NewLine(logger),
		counter: tracing.NewEventCounter(),
	}

	defer func() {
		if err != nil {
			s.close()
			s = nil
		}
	}()

	if err := s.openLink(ctx); err != nil {
		return s, err
	}

	builder := sio.MakeBuilder().
		WithEngine(s.engine).
		WithInterruptSink(s.line).
		WithProtocol(protocol).
		WithChannel(cfg.Channel).
		WithMaxSliceTicks(timing.VTimeInCycle(cfg.MaxSliceTicks)).
		WithLogger(logger)
	if s.conn != nil {
		builder = builder.WithConnection(s.conn)
	}

	s.comp = builder.Build("SIO")
	s.comp.AcceptHook(s.counter)

	s.console = host.MakeConsoleBuilder().
		WithEngine(s.engine).
		WithPort(s.comp).
		WithInterruptLine(s.line, cfg.Channel).
		WithOutput(out).
		WithLogger(logger).
		WithPollInterval(timing.VTimeInCycle(cfg.PollInterval)).
		WithBaudRate(cfg.BaudRate).
		WithMode(sio.Mode(cfg.Mode)).
		Build("Console")
	s.console.AcceptHook(s.counter)

	s.pacer = host.NewPacer(s.engine, cfg.ClockRate, cfg.Slice, logger)

	if err := s.openTrace(); err != nil {
		return s, err
	}

	if err := s.openSnapshots(); err != nil {
		return s, err
	}

	s.console.Start()

	if err := s.restore(); err != nil {
		return s, err
	}

	s.startMonitor()

	return s, nil
}

func (s *session) openLink(ctx context.Context) error {
	switch {
	case s.cfg.Loopback:
		s.conn = link.Loopback()
	case s.cfg.Connect != "":
		conn, err := link.Dial(ctx, s.cfg.Connect, s.log)
		if err != nil {
			return err
		}

		s.conn = conn
	case s.cfg.Listen != "":
		l, err := link.Listen(s.cfg.Listen, s.log)
		if err != nil {
			return err
		}

		s.log.Info("Waiting for a peer", "addr", l.Addr().String())
		s.conn = l
	default:
		s.log.Warn("No link configured, the controller runs unplugged")
	}

	return nil
}

func (s *session) openTrace() error {
	if s.cfg.TraceDB == "" {
		return nil
	}

	recorder, err := datarecording.New(s.cfg.TraceDB)
	if err != nil {
		return err
	}

	s.recorder = recorder

	tracer, err := tracing.NewTransferTracer(s.engine, recorder)
	if err != nil {
		return err
	}

	s.tracer = tracer
	s.comp.AcceptHook(tracer)

	return nil
}

func (s *session) openSnapshots() error {
	if s.cfg.SnapshotDB == "" {
		return nil
	}

	store, err := snapshot.Open(s.cfg.SnapshotDB)
	if err != nil {
		return err
	}

	s.store = store

	return nil
}

func (s *session) restore() error {
	if s.cfg.Restore == "" {
		return nil
	}

	var (
		rec snapshot.Record
		err error
	)

	if s.cfg.Restore == RestoreLatest {
		rec, err = s.store.Latest(s.cfg.SnapshotName)
	} else {
		rec, err = s.store.Load(s.cfg.Restore)
	}

	if err != nil {
		return fmt.Errorf("siolink: restore %s: %w", s.cfg.Restore, err)
	}

	if rec.Protocol != s.comp.Protocol().Name() {
		return fmt.Errorf("siolink: snapshot %s was taken with the %s protocol",
			rec.ID, rec.Protocol)
	}

	s.comp.LoadState(rec.State)
	s.log.Info("Restored snapshot", "id", rec.ID, "name", rec.Name)

	return nil
}

func (s *session) startMonitor() {
	if s.cfg.MonitorPort < 0 {
		return
	}

	s.monitor = monitoring.NewMonitor().
		WithLogger(s.log).
		WithPortNumber(s.cfg.MonitorPort)
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterComponent(s.comp)
	s.monitor.RegisterCounter(s.counter)

	if s.tracer != nil {
		s.monitor.RegisterTracer(s.tracer)
	}

	if s.cfg.Cycles > 0 {
		s.progress = s.monitor.CreateProgressBar("Cycles", s.cfg.Cycles)
	}

	url, err := s.monitor.StartServer()
	if err != nil {
		s.log.Error("Monitor not started", "err", err)
		s.monitor = nil

		return
	}

	if s.cfg.OpenBrowser {
		if err := s.monitor.OpenInBrowser(); err != nil {
			s.log.Warn("Cannot open browser", "url", url, "err", err)
		}
	}
}

// input is where host-side bytes for the controller are written.
func (s *session) input() io.Writer {
	return s.console
}

// run paces the engine until ctx is done or the cycle limit is reached.
func (s *session) run(ctx context.Context) error {
	if s.cfg.Cycles > 0 {
		s.pacer.StopAt(timing.VTimeInCycle(s.cfg.Cycles))
	}

	if s.progress != nil {
		s.pacer.OnStep(func(now timing.VTimeInCycle) {
			s.progress.SetFinished(uint64(now))
		})
	}

	err := s.pacer.Run(ctx)

	if s.progress != nil {
		s.monitor.CompleteProgressBar(s.progress)
	}

	return err
}

// saveSnapshot stores the controller state under the configured name.
func (s *session) saveSnapshot() (string, error) {
	if s.store == nil {
		return "", nil
	}

	id, err := s.store.Save(snapshot.Record{
		Name:     s.cfg.SnapshotName,
		Protocol: s.comp.Protocol().Name(),
		Cycle:    uint64(s.engine.CurrentTime()),
		Created:  time.Now(),
		State:    s.comp.SaveState(),
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Saved snapshot", "id", id, "name", s.cfg.SnapshotName)

	return id, nil
}

// close shuts the controller down and releases the link and databases. It
// can be called on a partly built session.
func (s *session) close() error {
	var errs []error

	if s.console != nil {
		s.console.Stop()
	}

	if s.comp != nil {
		s.comp.Shutdown()
	}

	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}

	if s.tracer != nil {
		errs = append(errs, s.tracer.StopTracing())
	}

	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}

	if s.store != nil {
		errs = append(errs, s.store.Close())
	}

	return errors.Join(errs...)
}
