// Package tracing provides minimal in-process spans that time operations
// and emit one structured log line each when they end. Spans propagate
// through contexts so nested operations inherit the trace ID.
package tracing

import (
	"context"
	"log/slog"
	"time"
)

type spanKey struct{}

// Span times one operation. Attributes set before End are included in the
// emitted log line. A Span is used by a single goroutine.
type Span struct {
	name    string
	traceID string
	depth   int
	started time.Time
	attrs   []slog.Attr
}

// StartSpan begins a root span. traceID ties the span's log lines to a
// request; an empty ID is allowed.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	sp := &Span{
		name:    name,
		traceID: traceID,
		started: time.Now(),
	}
	return context.WithValue(ctx, spanKey{}, sp), sp
}

// StartChildSpan begins a span nested under the one in ctx, inheriting
// its trace ID. Without a parent it behaves like StartSpan.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	sp := &Span{
		name:    name,
		started: time.Now(),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		sp.traceID = parent.traceID
		sp.depth = parent.depth + 1
	}
	return context.WithValue(ctx, spanKey{}, sp), sp
}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	sp, _ := ctx.Value(spanKey{}).(*Span)
	return sp
}

// SetAttr records a key-value pair for the span's log line.
func (s *Span) SetAttr(key string, value any) {
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// End emits the span as a debug log line with its duration.
func (s *Span) End() {
	elapsed := time.Since(s.started)
	attrs := make([]slog.Attr, 0, len(s.attrs)+4)
	attrs = append(attrs,
		slog.String("span", s.name),
		slog.String("trace_id", s.traceID),
		slog.Int("depth", s.depth),
		slog.Int64("duration_us", elapsed.Microseconds()),
	)
	attrs = append(attrs, s.attrs...)
	slog.LogAttrs(context.Background(), slog.LevelDebug, "span finished", attrs...)
}
