package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter writes completed spans to the platform. It is meant for use with a batching
// span processor, so lifecycle events are tagged to use their time fields instead of the
// event envelope timestamp.
type SpanExporter[K KeywordLevelProvider, P Platform] struct {
	c atomic.Pointer[core[K, P]]
}

var _ tracesdk.SpanExporter = (*SpanExporter[Keywords, *TraceLogging])(nil)

// NewSpanExporter returns a [tracesdk.SpanExporter] that writes to p.
func NewSpanExporter[K KeywordLevelProvider, P Platform](k K, p P, opts ...Option) (*SpanExporter[K, P], error) {
	c, err := newCore(k, p, opts)
	if err != nil {
		return nil, err
	}
	e := &SpanExporter[K, P]{}
	e.c.Store(c)
	return e, nil
}

// ExportSpans writes each span in turn.
//
// A span that fails to export does not stop the others: its error is sent to the
// OTel error handler, and ExportSpans only returns an error if ctx is done.
func (e *SpanExporter[K, P]) ExportSpans(ctx context.Context, spans []tracesdk.ReadOnlySpan) error {
	c := e.c.Load()
	if c == nil {
		return nil
	}

	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.exportSpan(s); err != nil {
			sc := s.SpanContext()
			otel.Handle(fmt.Errorf("export span %q (%s-%s): %w", s.Name(), sc.TraceID(), sc.SpanID(), err))
		}
	}
	return nil
}

// Shutdown stops the exporter. Later exports are no-ops.
func (e *SpanExporter[K, P]) Shutdown(ctx context.Context) error {
	if c := e.c.Swap(nil); c != nil {
		return c.shutdown(ctx)
	}
	return nil
}
