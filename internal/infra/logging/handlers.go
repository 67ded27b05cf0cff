package logging

import (
	"context"
	"log/slog"
	"strings"

	context_ "github.com/mkrupp/chatapp/internal/infra/context"
)

// redactedKeys are attribute keys whose values never reach the output.
//
//nolint:gochecknoglobals
var redactedKeys = map[string]bool{
	"password":      true,
	"password_hash": true,
	"token":         true,
	"authorization": true,
}

const redacted = "[redacted]"

// TracingHandler adds the trace id found in the record's context as "trace.id".
type TracingHandler struct {
	next Handler
}

var _ Handler = (*TracingHandler)(nil)

// NewTracingHandler wraps next.
func NewTracingHandler(next Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

func (h *TracingHandler) Enabled(ctx context.Context, level Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", id)))
	}

	return h.next.Handle(ctx, r) //nolint:wrapcheck
}

func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.next.WithAttrs(attrs))
}

func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.next.WithGroup(name))
}

// RedactingHandler replaces the values of credential attributes (passwords,
// tokens) with "[redacted]", including inside groups.
type RedactingHandler struct {
	next Handler
}

var _ Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps next.
func NewRedactingHandler(next Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))

		return true
	})

	return h.next.Handle(ctx, clean) //nolint:wrapcheck
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}

	return NewRedactingHandler(h.next.WithAttrs(clean))
}

func (h *RedactingHandler) WithGroup(name string) Handler {
	return NewRedactingHandler(h.next.WithGroup(name))
}

func redact(a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}

	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	clean := make([]slog.Attr, len(group))

	for i, ga := range group {
		clean[i] = redact(ga)
	}

	return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
}
