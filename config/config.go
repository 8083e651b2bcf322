// Package config holds the settings of the siolink command. Values come from
// the defaults, then a .env file, then SIOLINK_* environment variables, then
// command-line flags, each overriding the previous.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sarchlab/siolink/internal/logging"
	"github.com/sarchlab/siolink/sio"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "SIOLINK_"

// DefaultEnvFile is loaded when it exists and no other file is named.
const DefaultEnvFile = ".env"

var (
	// ErrConflictingLink is returned when both a connect and a listen
	// address are set.
	ErrConflictingLink = errors.New("config: connect and listen are exclusive")

	// ErrInvalid wraps every other validation failure.
	ErrInvalid = errors.New("config: invalid value")
)

// Config is the full set of run settings.
type Config struct {
	Protocol      string
	Channel       int
	Connect       string
	Listen        string
	Loopback      bool
	BaudRate      uint16
	Mode          uint16
	PollInterval  uint64
	ClockRate     uint64
	Slice         time.Duration
	MaxSliceTicks uint64
	Cycles        uint64

	MonitorPort int
	OpenBrowser bool

	TraceDB      string
	SnapshotDB   string
	SnapshotName string
	Restore      string

	LogLevel string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Protocol:      sio.UnframedProtocol{}.Name(),
		Channel:       sio.DefaultIRQChannel,
		Loopback:      false,
		BaudRate:      sio.DefaultBaudRate,
		PollInterval:  uint64(sio.DefaultBaudRate) / 2,
		ClockRate:     sio.MasterClock,
		Slice:         10 * time.Millisecond,
		MaxSliceTicks: sio.DefaultMaxSliceTicks,
		SnapshotName:  "default",
		LogLevel:      "info",
	}
}

// Load returns the defaults overridden by the given env files and the
// environment. With no files, DefaultEnvFile is read if present. Variables
// already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("config: load env files: %w", err)
	}

	c := Default()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return c, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("PROTOCOL", &c.Protocol)
	e.integer("CHANNEL", &c.Channel)
	e.str("CONNECT", &c.Connect)
	e.str("LISTEN", &c.Listen)
	e.boolean("LOOPBACK", &c.Loopback)
	e.uint16("BAUD", &c.BaudRate)
	e.uint16("MODE", &c.Mode)
	e.uint64("POLL_INTERVAL", &c.PollInterval)
	e.uint64("CLOCK_RATE", &c.ClockRate)
	e.duration("SLICE", &c.Slice)
	e.uint64("MAX_SLICE_TICKS", &c.MaxSliceTicks)
	e.uint64("CYCLES", &c.Cycles)
	e.integer("MONITOR_PORT", &c.MonitorPort)
	e.boolean("OPEN_BROWSER", &c.OpenBrowser)
	e.str("TRACE_DB", &c.TraceDB)
	e.str("SNAPSHOT_DB", &c.SnapshotDB)
	e.str("SNAPSHOT_NAME", &c.SnapshotName)
	e.str("RESTORE", &c.Restore)
	e.str("LOG_LEVEL", &c.LogLevel)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	return v, ok && v != ""
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs,
		fmt.Errorf("%w: %s%s=%q: %w", ErrInvalid, EnvPrefix, key, v, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}

		*dst = b
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 0, 0)
		if err != nil {
			e.fail(key, v, err)
			return
		}

		*dst = int(n)
	}
}

func (e *envReader) uint16(key string, dst *uint16) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			e.fail(key, v, err)
			return
		}

		*dst = uint16(n)
	}
}

func (e *envReader) uint64(key string, dst *uint64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}

		*dst = n
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}

		*dst = d
	}
}

// BindFlags registers a flag for every setting, defaulting to the current
// values, so flags given on the command line override everything else.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Protocol, "protocol", c.Protocol, "wire protocol: unframed or framed")
	flags.IntVar(&c.Channel, "channel", c.Channel, "interrupt channel")
	flags.StringVar(&c.Connect, "connect", c.Connect, "dial a peer at host[:port]")
	flags.StringVar(&c.Listen, "listen", c.Listen, "accept a peer on [host]:port")
	flags.BoolVar(&c.Loopback, "loopback", c.Loopback, "echo transmitted bytes back")
	flags.Uint16Var(&c.BaudRate, "baud", c.BaudRate, "baud-rate divisor")
	flags.Uint16Var(&c.Mode, "mode", c.Mode, "mode register value")
	flags.Uint64Var(&c.PollInterval, "poll-interval", c.PollInterval, "cycles between console polls")
	flags.Uint64Var(&c.ClockRate, "clock-rate", c.ClockRate, "cycles per simulated second")
	flags.DurationVar(&c.Slice, "slice", c.Slice, "wall-clock time per pacing step")
	flags.Uint64Var(&c.MaxSliceTicks, "max-slice-ticks", c.MaxSliceTicks, "transfer period for the reserved reload factor")
	flags.Uint64Var(&c.Cycles, "cycles", c.Cycles, "stop after this many cycles, 0 runs until interrupted")
	flags.IntVar(&c.MonitorPort, "monitor-port", c.MonitorPort, "monitoring server port, -1 disables it, 0 picks one")
	flags.BoolVar(&c.OpenBrowser, "open-browser", c.OpenBrowser, "open the monitor in a browser")
	flags.StringVar(&c.TraceDB, "trace-db", c.TraceDB, "record link events into this database")
	flags.StringVar(&c.SnapshotDB, "snapshot-db", c.SnapshotDB, "snapshot database file")
	flags.StringVar(&c.SnapshotName, "snapshot-name", c.SnapshotName, "name of the snapshot saved on exit")
	flags.StringVar(&c.Restore, "restore", c.Restore, "snapshot ID to restore at start")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Validate checks the settings for values the command cannot run with.
func (c Config) Validate() error {
	var errs []error

	if _, err := sio.ProtocolByName(c.Protocol); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	if c.Connect != "" && c.Listen != "" {
		errs = append(errs, ErrConflictingLink)
	}

	if c.Loopback && (c.Connect != "" || c.Listen != "") {
		errs = append(errs, fmt.Errorf("%w: loopback with a network link", ErrInvalid))
	}

	if c.Channel < 0 {
		errs = append(errs, fmt.Errorf("%w: channel %d", ErrInvalid, c.Channel))
	}

	if c.PollInterval == 0 {
		errs = append(errs, fmt.Errorf("%w: poll interval is 0", ErrInvalid))
	}

	if c.MaxSliceTicks == 0 {
		errs = append(errs, fmt.Errorf("%w: max slice ticks is 0", ErrInvalid))
	}

	if c.Slice <= 0 {
		errs = append(errs, fmt.Errorf("%w: slice %s", ErrInvalid, c.Slice))
	} else if c.ClockRate*uint64(c.Slice)/uint64(time.Second) == 0 {
		errs = append(errs, fmt.Errorf("%w: slice %s holds no cycles at %d Hz",
			ErrInvalid, c.Slice, c.ClockRate))
	}

	if c.Restore != "" && c.SnapshotDB == "" {
		errs = append(errs, fmt.Errorf("%w: restore needs a snapshot db", ErrInvalid))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
