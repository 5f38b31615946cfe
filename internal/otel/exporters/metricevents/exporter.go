package metricevents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// TODO: export exemplars when serializing datapoints (https://opentelemetry.io/docs/specs/otel/metrics/sdk/#exemplar)

// field names (and inclusion of instrumentation scope and resource) follow the OTel non-OTLP mapping
// (and OTLP convention):
//
//  - https://opentelemetry.io/docs/specs/otel/common/mapping-to-non-otlp/
//  - https://github.com/open-telemetry/opentelemetry-proto/blob/main/opentelemetry/proto/metrics/v1/metrics.proto

// KeywordMetric is the default keyword for metric events.
const KeywordMetric uint64 = 0x10000

const (
	eventName = "Metric"

	fieldName        = "name"
	fieldStartTime   = "start_time"
	fieldTime        = "time"
	fieldDescription = "description"
	fieldUnit        = "unit"
	fieldValue       = "value"

	fieldInstrumentationScope = "otel.scope"
	fieldSchemaURL            = "otel.schema_url"
	fieldResource             = "otel.resource"
)

// Exporter writes each metric data point as an event through an [events.Platform].
//
// Exports are serialized, so one encoder is reused for all events.
type Exporter struct {
	mu       sync.Mutex
	platform events.Platform
	enc      events.Encoder

	closePlatform bool

	level   events.Level
	keyword uint64
	config  events.Config

	temporality metric.TemporalitySelector
	aggregation metric.AggregationSelector

	// resource attributes should not change between exports
	rscs map[attribute.Distinct][]attribute.KeyValue
}

var _ metric.Exporter = &Exporter{}

// New returns a [metric.Exporter] that writes metrics to p.
func New(p events.Platform, opts ...Option) (*Exporter, error) {
	if p == nil {
		return nil, events.ErrNoPlatform
	}

	// C++ exporter writes as LevelAlways, .NET (Geneva) writes as LevelVerbose.
	// stick to Informational, like spans
	e := &Exporter{
		platform:    p,
		level:       events.LevelInformational,
		keyword:     KeywordMetric,
		config:      events.DefaultConfig(),
		temporality: metric.DefaultTemporalitySelector,
		aggregation: metric.DefaultAggregationSelector,
		rscs:        make(map[attribute.Distinct][]attribute.KeyValue),
	}
	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// EventSet is the (level, keyword) pair the exporter writes at.
func (e *Exporter) EventSet() events.EventSet {
	return events.EventSet{Level: e.level, Keyword: e.keyword}
}

func (e *Exporter) Temporality(k metric.InstrumentKind) metricdata.Temporality {
	return e.temporality(k)
}

func (e *Exporter) Aggregation(k metric.InstrumentKind) metric.Aggregation {
	return e.aggregation(k)
}

func (e *Exporter) Export(ctx context.Context, metrics *metricdata.ResourceMetrics) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.platform == nil {
		return nil
	}
	if !e.platform.Enabled(e.level, e.keyword) {
		return nil
	}
	if e.enc == nil {
		e.enc = e.platform.NewEncoder()
	}

	var errs []error
	rsc := e.resourceAttributes(metrics.Resource)
	// OTLP specifies the schema url, and allows instrumentation scopes to override resource-level schema url.
	// follow that convention.
	rscURL := metrics.Resource.SchemaURL()

	for _, scope := range metrics.ScopeMetrics {
		url := rscURL
		if scope.Scope.SchemaURL != "" {
			url = scope.Scope.SchemaURL
		}

		for _, m := range scope.Metrics {
			// short circut on context cancellation
			if err := ctx.Err(); err != nil {
				return err
			}

			h := header{
				m:     &m,
				url:   url,
				scope: scope.Scope,
				rsc:   rsc,
			}
			if err := e.writeData(&h, m.Data); err != nil {
				errs = append(errs, fmt.Errorf("metric export for %q: %w", m.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (*Exporter) ForceFlush(ctx context.Context) error {
	// nop; we don't hold any data to flush
	return ctx.Err()
}

func (e *Exporter) Shutdown(ctx context.Context) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.platform == nil {
		return nil
	}
	if e.closePlatform {
		err = e.platform.Close()
	}
	e.platform = nil
	e.enc = nil

	if err != nil {
		return err
	}
	return ctx.Err()
}

// header is the part of the event shared by all data points of a metric.
type header struct {
	m     *metricdata.Metrics
	url   string
	scope instrumentation.Scope
	rsc   []attribute.KeyValue
}

// start begins a new event for a data point.
func (e *Exporter) start(h *header) {
	enc := e.enc
	enc.Reset(eventName, e.level, e.keyword, 0)
	enc.AddString(fieldName, h.m.Name)
	enc.AddString(fieldDescription, h.m.Description)
	enc.AddString(fieldUnit, h.m.Unit)
	if h.url != "" {
		enc.AddString(fieldSchemaURL, h.url)
	}
	// see: https://opentelemetry.io/docs/specs/otel/common/mapping-to-non-otlp/#instrumentationscope
	if h.scope.Name != "" {
		enc.AddString(fieldInstrumentationScope+".name", h.scope.Name)
	}
	if h.scope.Version != "" {
		enc.AddString(fieldInstrumentationScope+".version", h.scope.Version)
	}
}

// finish adds the data point attributes and the resource, and writes the event.
func (e *Exporter) finish(h *header, attrs attribute.Set) error {
	events.AddAttributes(e.enc, attrs.ToSlice(), &e.config)

	// resources are serialized as a struct to avoid conflicts (and clutter) in the emitted event
	if n := events.AttributeFields(len(h.rsc), &e.config); n > 0 {
		rsc := h.rsc
		if !e.config.JSON {
			rsc = rsc[:n]
		}
		e.enc.AddStruct(fieldResource, uint8(n))
		events.AddAttributes(e.enc, rsc, &e.config)
	}
	return e.enc.Write(nil, nil)
}

func (e *Exporter) writeData(h *header, data metricdata.Aggregation) error {
	switch data := data.(type) {
	case metricdata.Sum[float64]:
		return writeSum(e, h, data)
	case metricdata.Sum[int64]:
		return writeSum(e, h, data)
	case metricdata.Gauge[float64]:
		return writeDataPoints(e, h, data.DataPoints, nil)
	case metricdata.Gauge[int64]:
		return writeDataPoints(e, h, data.DataPoints, nil)
	case metricdata.Histogram[int64]:
		return writeHistogram(e, h, data)
	case metricdata.Histogram[float64]:
		return writeHistogram(e, h, data)
	}
	return fmt.Errorf("unknown aggregation type: %T", data)
}

func writeSum[T int64 | float64](e *Exporter, h *header, data metricdata.Sum[T]) error {
	return writeDataPoints(e, h, data.DataPoints, func(enc events.Encoder) {
		enc.AddString("temporality", data.Temporality.String())
		enc.AddBool("monotonic", data.IsMonotonic, e.config.ByteBools)
	})
}

// each data point in the metric has unique attributes, so output each in a dedicated event
func writeDataPoints[T int64 | float64](e *Exporter, h *header, data []metricdata.DataPoint[T], extra func(events.Encoder)) error {
	var errs []error
	for _, datum := range data {
		e.start(h)
		addNum(e.enc, fieldValue, datum.Value)
		addTimes(e.enc, datum.StartTime, datum.Time)
		if extra != nil {
			extra(e.enc)
		}
		if err := e.finish(h, datum.Attributes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeHistogram[T int64 | float64](e *Exporter, h *header, data metricdata.Histogram[T]) error {
	var errs []error
	for _, datum := range data.DataPoints {
		e.start(h)
		enc := e.enc
		enc.AddFloat64Slice("buckets", append(datum.Bounds[:len(datum.Bounds):len(datum.Bounds)], math.Inf(1))) // +inf bound is left un-added
		enc.AddInt64Slice("bucket_counts", counts(datum.BucketCounts))
		enc.AddInt64("count", int64(datum.Count))
		addNum(enc, "sum", datum.Sum)
		if v, ok := datum.Min.Value(); ok {
			addNum(enc, "min", v)
		}
		if v, ok := datum.Max.Value(); ok {
			addNum(enc, "max", v)
		}
		addTimes(enc, datum.StartTime, datum.Time)
		enc.AddString("temporality", data.Temporality.String())

		if err := e.finish(h, datum.Attributes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func counts(cs []uint64) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = int64(c)
	}
	return out
}

func addNum[T int64 | float64](enc events.Encoder, n string, v T) {
	// can't type switch on type parameter
	// https://github.com/golang/go/issues/45380
	switch v := any(v).(type) {
	case int64:
		enc.AddInt64(n, v)
	case float64:
		enc.AddFloat64(n, v)
	}
}

func addTimes(enc events.Encoder, start, end time.Time) {
	if !start.IsZero() {
		enc.AddTime(fieldStartTime, start)
	}
	if !end.IsZero() {
		enc.AddTime(fieldTime, end)
	}
}

func (e *Exporter) resourceAttributes(rsc *resource.Resource) []attribute.KeyValue {
	k := rsc.Equivalent()
	if a, ok := e.rscs[k]; ok {
		return a
	}
	a := rsc.Attributes()
	e.rscs[k] = a
	return a
}
