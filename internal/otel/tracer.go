package otel

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// SpanEventHook is notified when an event is added to a span, including exception events
// from RecordError.
//
// The SDK span processor interface has no such notification.
type SpanEventHook interface {
	OnAddEvent(s trace.Span, name string, cfg trace.EventConfig)
}

// InitializeProvider sets the global OTel TraceProvider.
// If hook is not nil, the global provider is wrapped with [NewTracerProvider].
//
// If no exporter or span processor is provided, no spans will be generated.
func InitializeProvider(hook SpanEventHook, opts ...tracesdk.TracerProviderOption) (func(context.Context) error, error) {
	tracerProvider := tracesdk.NewTracerProvider(opts...)
	if hook != nil {
		otel.SetTracerProvider(NewTracerProvider(tracerProvider, hook))
	} else {
		otel.SetTracerProvider(tracerProvider)
	}

	f := func(ctx context.Context) error {
		err := tracerProvider.ForceFlush(ctx)
		// shutdown regardless of flush result
		if err2 := tracerProvider.Shutdown(ctx); err == nil && err2 != nil {
			return err2
		}
		return err
	}
	return f, nil
}

func tracer() trace.Tracer {
	// for now, one instrumentation for the entire repo
	return otel.Tracer(
		// use dedicated Tracer in case imported code modifies the global default.
		InstrumentationName,
		trace.WithSchemaURL(semconv.SchemaURL),
	)
}

// NewTracerProvider wraps tp so that recording spans call hook.OnAddEvent from
// AddEvent and RecordError, after the span records the event.
func NewTracerProvider(tp trace.TracerProvider, hook SpanEventHook) trace.TracerProvider {
	return &tracerProvider{TracerProvider: tp, hook: hook}
}

type tracerProvider struct {
	trace.TracerProvider
	hook SpanEventHook
}

func (p *tracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &hookTracer{Tracer: p.TracerProvider.Tracer(name, opts...), p: p}
}

type hookTracer struct {
	trace.Tracer
	p *tracerProvider
}

func (t *hookTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, s := t.Tracer.Start(ctx, name, opts...)
	if !s.IsRecording() {
		return ctx, s
	}
	hs := &hookSpan{Span: s, p: t.p}
	return trace.ContextWithSpan(ctx, hs), hs
}

type hookSpan struct {
	trace.Span
	p *tracerProvider
}

func (s *hookSpan) AddEvent(name string, opts ...trace.EventOption) {
	s.Span.AddEvent(name, opts...)
	if s.Span.IsRecording() {
		s.p.hook.OnAddEvent(s.Span, name, trace.NewEventConfig(opts...))
	}
}

// RecordError reports the error as an "exception" event, with the same attributes the
// SDK adds, including the stack trace when requested with [trace.WithStackTrace].
func (s *hookSpan) RecordError(err error, opts ...trace.EventOption) {
	s.Span.RecordError(err, opts...)
	if err == nil || !s.Span.IsRecording() {
		return
	}

	cfg := trace.NewEventConfig(opts...)
	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes())+2)
	attrs = append(attrs,
		semconv.ExceptionType(errorType(err)),
		semconv.ExceptionMessage(err.Error()),
	)
	attrs = append(attrs, cfg.Attributes()...)
	if cfg.StackTrace() {
		attrs = append(attrs, semconv.ExceptionStacktraceKey.String(stackTrace()))
	}
	s.p.hook.OnAddEvent(s.Span, semconv.ExceptionEventName,
		trace.NewEventConfig(trace.WithTimestamp(cfg.Timestamp()), trace.WithAttributes(attrs...)))
}

func (s *hookSpan) TracerProvider() trace.TracerProvider { return s.p }

// stackTrace returns the calling goroutine's stack, truncated to the SDK's buffer size.
func stackTrace() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// errorType matches the SDK's exception.type value.
func errorType(err error) string {
	t := reflect.TypeOf(err)
	if t.PkgPath() == "" && t.Name() == "" {
		// likely a pointer or builtin type
		return t.String()
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}
