package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// NewLogger writes JSON records to w and stamps each one with the trace and
// span ids found in the record's context.
func NewLogger(w io.Writer, level slog.Level, service string) *slog.Logger {
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(&traceHandler{base: base})
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// traceHandler defers WithAttrs and WithGroup so that trace ids stay at the
// top level of the record regardless of grouping.
type traceHandler struct {
	base   slog.Handler
	groups []string
	attrs  []slog.Attr
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := h.base

	var ids []slog.Attr
	if traceID := TraceID(ctx); traceID != "" {
		ids = append(ids, slog.String("trace_id", traceID))
	}
	if spanID := SpanID(ctx); spanID != "" {
		ids = append(ids, slog.String("span_id", spanID))
	}
	if len(ids) > 0 {
		handler = handler.WithAttrs(ids)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}

	return handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{
		base:   h.base,
		groups: h.groups,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{
		base:   h.base,
		groups: append(append([]string{}, h.groups...), name),
		attrs:  h.attrs,
	}
}
