package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// SpanProcessor writes span lifecycle events as they happen: the start event (and links)
// when a span starts, span events as they are added, and the stop event and Common Schema
// event when the span ends.
//
// Span events are only seen if spans are created through a tracer provider wrapped with
// [github.com/Microsoft/go-otel-etw/internal/otel.NewTracerProvider], with the processor as the hook.
//
// Write errors are sent to the OTel error handler.
type SpanProcessor[K KeywordLevelProvider, P Platform] struct {
	c atomic.Pointer[core[K, P]]
}

var _ tracesdk.SpanProcessor = (*SpanProcessor[Keywords, *TraceLogging])(nil)

// NewSpanProcessor returns a [tracesdk.SpanProcessor] that writes to p.
func NewSpanProcessor[K KeywordLevelProvider, P Platform](k K, p P, opts ...Option) (*SpanProcessor[K, P], error) {
	c, err := newCore(k, p, opts)
	if err != nil {
		return nil, err
	}
	sp := &SpanProcessor[K, P]{}
	sp.c.Store(c)
	return sp, nil
}

func (sp *SpanProcessor[K, P]) OnStart(_ context.Context, s tracesdk.ReadWriteSpan) {
	if c := sp.c.Load(); c != nil {
		handle(s, "start", c.spanStarted(s))
	}
}

func (sp *SpanProcessor[K, P]) OnEnd(s tracesdk.ReadOnlySpan) {
	if c := sp.c.Load(); c != nil {
		handle(s, "end", c.spanEnded(s))
	}
}

// OnAddEvent writes a span event. s must be a span from the OTel SDK; other spans are ignored.
//
// It is a no-op after the processor is shutdown.
func (sp *SpanProcessor[K, P]) OnAddEvent(s trace.Span, name string, cfg trace.EventConfig) {
	c := sp.c.Load()
	if c == nil {
		return
	}
	ro, ok := s.(tracesdk.ReadOnlySpan)
	if !ok {
		return
	}
	if err := c.spanEventAdded(ro, name, &cfg); err != nil {
		handle(ro, "event "+name, err)
	}
}

// Shutdown stops the processor. Spans that are still open no longer write events.
func (sp *SpanProcessor[K, P]) Shutdown(ctx context.Context) error {
	if c := sp.c.Swap(nil); c != nil {
		return c.shutdown(ctx)
	}
	return nil
}

// ForceFlush is a no-op, since events are written synchronously.
func (*SpanProcessor[K, P]) ForceFlush(ctx context.Context) error { return ctx.Err() }

func handle(s tracesdk.ReadOnlySpan, op string, err error) {
	if err == nil {
		return
	}
	sc := s.SpanContext()
	otel.Handle(fmt.Errorf("span %q (%s-%s) %s: %w", s.Name(), sc.TraceID(), sc.SpanID(), op, err))
}
