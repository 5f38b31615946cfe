package metricevents

import (
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

type Option func(*Exporter) error

// WithTemporalitySelector sets the TemporalitySelector the exporter will use
// to determine the Temporality of an instrument based on its kind.
// If this option is not used, the exporter will use
// ["go.opentelemetry.io/otel/sdk/metric".DefaultTemporalitySelector].
func WithTemporalitySelector(selector metric.TemporalitySelector) Option {
	return func(e *Exporter) error {
		e.temporality = selector
		return nil
	}
}

// WithAggregationSelector sets the AggregationSelector the exporter will use
// to determine the aggregation to use for an instrument based on its kind. If
// this option is not used, the exporter will use
// ["go.opentelemetry.io/otel/sdk/metric".DefaultAggregationSelector]
// or the aggregation explicitly passed for a view matching an instrument.
func WithAggregationSelector(selector metric.AggregationSelector) Option {
	return func(e *Exporter) error {
		e.aggregation = selector
		return nil
	}
}

// WithLevelKeyword specifies the level and keyword of metric events.
//
// The default is [events.LevelInformational] and [KeywordMetric].
func WithLevelKeyword(l events.Level, keyword uint64) Option {
	return func(e *Exporter) error {
		e.level = l
		e.keyword = keyword
		return nil
	}
}

// WithConfig sets how attributes are encoded: JSON and ByteBools are honored.
func WithConfig(c events.Config) Option {
	return func(e *Exporter) error {
		e.config = c
		return nil
	}
}

// WithClosePlatform closes the platform when the exporter is shutdown.
func WithClosePlatform() Option {
	return func(e *Exporter) error {
		e.closePlatform = true
		return nil
	}
}
