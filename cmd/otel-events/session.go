package main

import (
	"context"
	"errors"

	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Microsoft/go-otel-etw/internal/log"
	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
	otelrus "github.com/Microsoft/go-otel-etw/internal/otel/handlers/logrus"
	eventsmetric "github.com/Microsoft/go-otel-etw/internal/otel/metric"
	"github.com/Microsoft/go-otel-etw/pkg/otelevents"
)

// session is the provider and OTel pipeline shared by a command.
type session struct {
	conf     config
	provider *otelevents.Provider
	rsc      *resource.Resource

	closers []func(context.Context) error
}

func newSession(c *cli.Context) (_ *session, err error) {
	conf, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts, err := conf.options(c.Bool(debugFlagName))
	if err != nil {
		return nil, err
	}

	s := &session{
		conf: conf,
		rsc:  eventsotel.DefaultResource(conf.Service.Name, conf.Service.Version, conf.Service.Namespace, conf.Service.Instance),
	}
	s.provider, err = otelevents.NewProvider(conf.Provider, opts...)
	if err != nil {
		return nil, err
	}
	// registered first, so it is released last
	s.closers = append(s.closers, func(context.Context) error { return s.provider.Close() })
	defer func() {
		if err != nil {
			_ = s.close(c.Context)
		}
	}()
	log.G(c.Context).WithField("provider", s.provider).Info("registered provider")

	var eh otel.ErrorHandler = otelrus.New(otelrus.WithResource(s.rsc))
	if c.Bool(errorEventsFlagName) {
		if eh, err = s.provider.ErrorHandler(eh); err != nil {
			return nil, err
		}
	} else if h := platformErrorHandler(s.rsc); h != nil {
		eh = multiHandler{eh, h}
	}
	otel.SetErrorHandler(eh)

	if c.Bool(metricsFlagName) {
		e, err := s.provider.MetricExporter()
		if err != nil {
			return nil, err
		}
		shutdown, err := eventsmetric.InitializeProvider(
			metric.WithReader(metric.NewPeriodicReader(e)),
			metric.WithResource(s.rsc),
		)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, shutdown)
	}
	return s, nil
}

// tracing installs the global tracer provider, writing spans to the provider either in
// realtime or in batches.
func (s *session) tracing(opts ...tracesdk.TracerProviderOption) (func(context.Context) error, error) {
	opts = append([]tracesdk.TracerProviderOption{
		tracesdk.WithResource(s.rsc),
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
	}, opts...)

	var hook eventsotel.SpanEventHook
	if s.conf.Realtime {
		sp, err := s.provider.SpanProcessor()
		if err != nil {
			return nil, err
		}
		hook = sp
		opts = append(opts, tracesdk.WithSpanProcessor(sp))
	} else {
		e, err := s.provider.SpanExporter()
		if err != nil {
			return nil, err
		}
		opts = append(opts, tracesdk.WithBatcher(e))
	}
	return eventsotel.InitializeProvider(hook, opts...)
}

// close releases everything in reverse order.
func (s *session) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}

// multiHandler sends errors to every handler.
type multiHandler []otel.ErrorHandler

func (m multiHandler) Handle(err error) {
	for _, h := range m {
		h.Handle(err)
	}
}
