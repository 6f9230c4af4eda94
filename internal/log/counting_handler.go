package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// counters is shared by a CountingHandler and every handler derived from it.
type counters struct {
	debug atomic.Int64
	info  atomic.Int64
	warn  atomic.Int64
	error atomic.Int64
}

// CountingHandler wraps an slog.Handler and counts the records it handles
// per level. Handlers returned by WithAttrs and WithGroup share the counts.
type CountingHandler struct {
	// handler is the underlying slog handler that receives every record.
	handler slog.Handler

	counts *counters
}

// NewCountingHandler creates a new CountingHandler wrapping the given handler.
// If handler is nil, the returned CountingHandler will use slog.Default().Handler().
func NewCountingHandler(handler slog.Handler) *CountingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &CountingHandler{handler: handler, counts: &counters{}}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *CountingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle counts the record and passes it to the underlying handler.
func (h *CountingHandler) Handle(ctx context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		h.counts.error.Add(1)
	case r.Level >= slog.LevelWarn:
		h.counts.warn.Add(1)
	case r.Level >= slog.LevelInfo:
		h.counts.info.Add(1)
	default:
		h.counts.debug.Add(1)
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *CountingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CountingHandler{handler: h.handler.WithAttrs(attrs), counts: h.counts}
}

// WithGroup returns a new handler with the given group name.
func (h *CountingHandler) WithGroup(name string) slog.Handler {
	return &CountingHandler{handler: h.handler.WithGroup(name), counts: h.counts}
}

// Count returns the number of handled records at the bucket of level:
// Debug, Info, Warn or Error. Levels between buckets round down.
func (h *CountingHandler) Count(level slog.Level) int64 {
	switch {
	case level >= slog.LevelError:
		return h.counts.error.Load()
	case level >= slog.LevelWarn:
		return h.counts.warn.Load()
	case level >= slog.LevelInfo:
		return h.counts.info.Load()
	default:
		return h.counts.debug.Load()
	}
}

// NewLogger creates a logger writing to w and the handler that counts its
// records. verbose sets the level to Debug instead of Warn. format is
// FormatText or FormatJSON; anything else falls back to text.
func NewLogger(w io.Writer, verbose bool, format string) (*slog.Logger, *CountingHandler) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	counting := NewCountingHandler(handler)
	return slog.New(counting), counting
}
