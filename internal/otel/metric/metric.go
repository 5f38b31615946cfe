// Package metric installs the global meter provider and creates the repo's instruments,
// which the exporters use for their self-telemetry.
package metric

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
)

// InitializeProvider sets the global meter provider, and returns a function that flushes
// and shuts it down.
//
// Without a reader, measurements are dropped.
func InitializeProvider(opts ...metric.Option) (func(context.Context) error, error) {
	provider := metric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}

// Meter returns the repo meter from the global meter provider.
//
// Instruments created before a meter provider is installed forward to it once it is.
func Meter(opts ...api.MeterOption) api.Meter {
	return otel.Meter(eventsotel.InstrumentationName,
		append([]api.MeterOption{api.WithSchemaURL(semconv.SchemaURL)}, opts...)...)
}

// The instrument constructors below always return a usable instrument, which is a nop if
// creation failed. Creation errors go to the global error handler.

// Int64Counter returns a counter for int64 measurements.
func Int64Counter(name string, opts ...api.Int64CounterOption) api.Int64Counter {
	i, err := Meter().Int64Counter(name, opts...)
	onError(name, err)
	return i
}

// Float64Histogram returns a histogram for float64 measurements, such as durations.
func Float64Histogram(name string, opts ...api.Float64HistogramOption) api.Float64Histogram {
	i, err := Meter().Float64Histogram(name, opts...)
	onError(name, err)
	return i
}

func onError(name string, err error) {
	if err == nil {
		return
	}
	otel.Handle(fmt.Errorf("create instrument %q from meter %q: %w", name, eventsotel.InstrumentationName, err))
}
