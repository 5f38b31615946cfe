package otelevents

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/metricevents"
	handler "github.com/Microsoft/go-otel-etw/internal/otel/handlers/events"
)

// ErrUnsupportedPlatform is returned on platforms without a native tracing facility,
// unless [WithDebugWriter] is used.
var ErrUnsupportedPlatform = errors.New("no native tracing platform")

// platform is a reference counted [events.Platform].
type platform interface {
	events.Platform
	Retain()
}

// Provider is a registered platform provider.
//
// Exporters and processors created from it hold their own reference to the
// registration, and release it when they are shutdown.
type Provider struct {
	name string
	c    *config
	p    platform
}

// NewProvider registers the platform provider name.
//
// On Linux, name is the prefix of the registered tracepoints, and may only contain ASCII
// letters, digits, and underscores.
func NewProvider(name string, opts ...Option) (*Provider, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	p, err := newPlatform(name, c)
	if err != nil {
		return nil, err
	}
	return &Provider{name: name, c: c, p: p}, nil
}

// EventSets are the (level, keyword) pairs written by everything a [Provider] creates.
func EventSets(k Keywords) []EventSet {
	return append(events.EventSets(k),
		EventSet{Level: LevelInformational, Keyword: metricevents.KeywordMetric},
		handler.EventSet(),
	)
}

func (p *Provider) String() string { return p.name }

// Enabled returns whether a trace session is listening for events with the level and keyword.
func (p *Provider) Enabled(l Level, keyword uint64) bool { return p.p.Enabled(l, keyword) }

// Close releases the provider's reference to the registration.
// The registration remains until every exporter created from it is shutdown.
func (p *Provider) Close() error { return p.p.Close() }

// driverOptions retains the platform for a new driver, which releases it on shutdown.
func (p *Provider) driverOptions() []events.Option {
	p.p.Retain()
	return []events.Option{events.WithConfig(p.c.events), events.WithClosePlatform()}
}

// SpanExporter returns a [tracesdk.SpanExporter] that writes completed spans.
func (p *Provider) SpanExporter() (tracesdk.SpanExporter, error) {
	e, err := events.NewSpanExporter(p.c.keywords, events.Platform(p.p), p.driverOptions()...)
	if err != nil {
		_ = p.p.Close()
		return nil, err
	}
	return e, nil
}

// SpanProcessor is a [tracesdk.SpanProcessor] that writes span events as they happen.
//
// Span events added after a span starts are only written for spans from a
// [Provider.TracerProvider] created with [WithRealtime].
type SpanProcessor interface {
	tracesdk.SpanProcessor
	OnAddEvent(s trace.Span, name string, cfg trace.EventConfig)
}

// SpanProcessor returns a [SpanProcessor] that writes span events as they happen.
func (p *Provider) SpanProcessor() (SpanProcessor, error) {
	sp, err := events.NewSpanProcessor(p.c.keywords, events.Platform(p.p), p.driverOptions()...)
	if err != nil {
		_ = p.p.Close()
		return nil, err
	}
	return sp, nil
}

// LogExporter returns an [sdklog.Exporter] that writes log records in batches.
func (p *Provider) LogExporter() (sdklog.Exporter, error) {
	e, err := events.NewLogExporter(p.c.keywords, events.Platform(p.p), p.driverOptions()...)
	if err != nil {
		_ = p.p.Close()
		return nil, err
	}
	return e, nil
}

// LogProcessor returns an [sdklog.Processor] that writes log records as they are emitted.
func (p *Provider) LogProcessor() (sdklog.Processor, error) {
	lp, err := events.NewLogProcessor(p.c.keywords, events.Platform(p.p), p.driverOptions()...)
	if err != nil {
		_ = p.p.Close()
		return nil, err
	}
	return lp, nil
}

// MetricExporter returns an [sdkmetric.Exporter] that writes one event per data point.
func (p *Provider) MetricExporter() (sdkmetric.Exporter, error) {
	p.p.Retain()
	e, err := metricevents.New(p.p, metricevents.WithConfig(p.c.events), metricevents.WithClosePlatform())
	if err != nil {
		_ = p.p.Close()
		return nil, err
	}
	return e, nil
}

// ErrorHandler returns an [otel.ErrorHandler] that writes errors as events.
//
// Errors that cannot be written are passed to fallback, if it is not nil.
//
// It does not hold a reference to the registration, so the provider must not be closed
// while the handler is installed.
func (p *Provider) ErrorHandler(fallback otel.ErrorHandler) (otel.ErrorHandler, error) {
	var opts []handler.Option
	if fallback != nil {
		opts = append(opts, handler.WithFallback(fallback))
	}
	return handler.New(p.p, opts...)
}

// TracerProvider returns a tracer provider that writes spans to the platform, and a
// function to flush and shut it down.
//
// With [WithRealtime], spans are written as they happen; otherwise they are batched
// and written once complete.
func (p *Provider) TracerProvider(opts ...tracesdk.TracerProviderOption) (trace.TracerProvider, func(context.Context) error, error) {
	var hook eventsotel.SpanEventHook
	if p.c.realtime {
		sp, err := p.SpanProcessor()
		if err != nil {
			return nil, nil, err
		}
		hook = sp
		opts = append(opts, tracesdk.WithSpanProcessor(sp))
	} else {
		e, err := p.SpanExporter()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, tracesdk.WithBatcher(e))
	}

	tp := tracesdk.NewTracerProvider(opts...)
	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}
	if hook != nil {
		return eventsotel.NewTracerProvider(tp, hook), shutdown, nil
	}
	return tp, shutdown, nil
}

// NewSpanExporter registers the platform provider name, and returns a
// [tracesdk.SpanExporter] that owns the registration.
func NewSpanExporter(name string, opts ...Option) (tracesdk.SpanExporter, error) {
	p, err := NewProvider(name, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.SpanExporter()
}

// NewLogExporter registers the platform provider name, and returns an
// [sdklog.Exporter] that owns the registration.
func NewLogExporter(name string, opts ...Option) (sdklog.Exporter, error) {
	p, err := NewProvider(name, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.LogExporter()
}
