// Package logging holds the slog handler used by the siolink binaries.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler writes one line per record:
//
//	2006/01/02 15:04:05 WARN: SIO TX buffer overflow lost=0x41 written=0x42
type Handler struct {
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
}

// NewHandler creates a Handler that drops records below level.
func NewHandler(out io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{out: out, level: level, mu: &sync.Mutex{}}
}

// New returns a logger backed by a Handler.
func New(out io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(out, level))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts debug, info, warn or error into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: bad level %q: %w", s, err)
	}

	return level, nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append([]slog.Attr{}, h.attrs...)

	for _, a := range attrs {
		h2.attrs = append(h2.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}

	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := *h
	if h2.group != "" {
		name = h2.group + "." + name
	}
	h2.group = name

	return &h2
}

func (h *Handler) key(k string) string {
	if h.group == "" {
		return k
	}

	return h.group + "." + k
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	strs := []string{
		r.Time.Format("2006/01/02 15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}

	for _, a := range h.attrs {
		strs = append(strs, a.Key+"="+a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, h.key(a.Key)+"="+a.Value.String())
		return true
	})

	line := strings.Join(strs, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, line)

	return err
}
