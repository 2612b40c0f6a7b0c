// Package logging wraps log/slog with the compiler's preferred text
// format and a debug/quiet toggle, grounded on the one logging example
// in the retrieval pack (a thin slog.Handler wrapper writing
// "time level message attrs..." lines to stderr, promoted to info-level
// output unconditionally and debug-level output only when enabled).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler formats records as a single line: timestamp, level, message,
// then each attribute as key=value, space-separated.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	mu    *sync.Mutex
	debug bool
}

// NewHandler returns a Handler writing to out (stderr if nil), honoring
// opts.Level for what reaches inner formatting at all; SetDebug
// separately controls whether debug-level records are also echoed.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if out == nil {
		out = os.Stderr
	}
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out:   out,
		inner: slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}),
		mu:    &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level == slog.LevelDebug && !h.debug {
		return nil
	}
	parts := []string{r.Time.Format("2006-01-02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})
	line := []byte(strings.Join(parts, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(line)
	return err
}

// SetDebug toggles whether debug-level records are emitted.
func (h *Handler) SetDebug(debug bool) { h.debug = debug }

// New builds a ready-to-use *slog.Logger over a Handler, the compiler's
// ambient logger for cmd/ir3c and any internal pass that wants to trace
// its own decisions (copy-prop fold attempts, scheduler tier choices).
func New(out io.Writer, debug bool) *slog.Logger {
	h := NewHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	h.SetDebug(debug)
	return slog.New(h)
}
