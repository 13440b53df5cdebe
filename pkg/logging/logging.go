// Package logging wires up the structured logger shared across the CLI and
// library: a single slog.Logger configured for either human-readable text
// or JSON output, plus a small context-attribute helper so request-scoped
// fields (like a CLI-generated request ID) flow into every log line emitted
// while handling one request without threading them through every call
// signature. The shape (Logger/AppendCtx/FromContext) matches how the
// teacher's cmd/ctl wires logging; its own pkg/logging source was not
// available to copy from, so this is authored fresh against that contract.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

// Logger builds the process-wide slog.Logger. json selects slog.JSONHandler
// over a plain text handler; level sets the minimum emitted level.
func Logger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{Handler: handler})
}

// AppendCtx returns a context carrying extra slog attributes that ctxHandler
// appends to every record logged through it for the lifetime of that
// context, without needing those attributes passed to each log call.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// FromContext returns the attributes previously attached with AppendCtx.
func FromContext(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

// ctxHandler decorates an slog.Handler by appending any attributes AppendCtx
// attached to the record's context.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FromContext(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithGroup(name)}
}
