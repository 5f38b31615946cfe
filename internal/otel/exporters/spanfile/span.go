package spanfile

import (
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/otel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Need a span struct to serialize and de-serialize spans recorded in one process,
// so they can be re-exported later by another.
//
// [stdouttrace.Exporter] does serialize to JSON, but does not implement de-serialization,
// since it use [tracetest.SpanStub] internally, and [*resource.Resource],
// [attribute.KeyValue] and [trace.SpanContext] either have private fields or do not implement
// [json.Unmarshaler].
//
// stdouttrace: https://github.com/open-telemetry/opentelemetry-go/tree/main/exporters/stdout/stdouttrace

type Span struct {
	Name                 string          `json:",omitempty"`
	TraceID              TraceID         `json:",omitempty"`
	SpanID               SpanID          `json:",omitempty"`
	ParentSpanID         SpanID          `json:",omitempty"`
	TraceState           string          `json:",omitempty"`
	Kind                 trace.SpanKind  `json:",omitempty"`
	StartTimeUnixNano    int64           `json:",omitempty"`
	EndTimeUnixNano      int64           `json:",omitempty"`
	Attributes           []KeyValue      `json:",omitempty"`
	Status               tracesdk.Status `json:",omitempty"`
	DroppedAttributes    int64           `json:",omitempty"`
	Events               []Event         `json:",omitempty"`
	Links                []Link          `json:",omitempty"`
	Resource             Resource        `json:",omitempty"`
	InstrumentationScope Scope           `json:",omitempty"`
}

type Event struct {
	Name         string
	TimeUnixNano int64
	Attributes   []KeyValue `json:",omitempty"`
}

type Link struct {
	TraceID    TraceID
	SpanID     SpanID
	TraceState string     `json:",omitempty"`
	Attributes []KeyValue `json:",omitempty"`
}

type Scope struct {
	Name      string `json:",omitempty"`
	Version   string `json:",omitempty"`
	SchemaURL string `json:",omitempty"`
}

func FromReadOnly(ro tracesdk.ReadOnlySpan) Span {
	if ro == nil {
		return Span{}
	}

	sc := ro.SpanContext()
	scope := ro.InstrumentationScope()
	return Span{
		Name:              ro.Name(),
		TraceID:           TraceID(sc.TraceID()),
		SpanID:            SpanID(sc.SpanID()),
		ParentSpanID:      SpanID(ro.Parent().SpanID()),
		TraceState:        sc.TraceState().String(),
		Kind:              trace.ValidateSpanKind(ro.SpanKind()),
		StartTimeUnixNano: ro.StartTime().UnixNano(),
		EndTimeUnixNano:   ro.EndTime().UnixNano(),
		Attributes:        keyValueList(ro.Attributes()),
		Status:            ro.Status(),
		DroppedAttributes: int64(ro.DroppedAttributes()),
		Events:            events(ro.Events()),
		Links:             links(ro.Links()),
		Resource:          newResource(ro.Resource()),
		InstrumentationScope: Scope{
			Name:      scope.Name,
			Version:   scope.Version,
			SchemaURL: scope.SchemaURL,
		},
	}
}

func events(evs []tracesdk.Event) []Event {
	if len(evs) == 0 {
		return nil
	}
	out := make([]Event, 0, len(evs))
	for _, e := range evs {
		out = append(out, Event{
			Name:         e.Name,
			TimeUnixNano: e.Time.UnixNano(),
			Attributes:   keyValueList(e.Attributes),
		})
	}
	return out
}

func links(ls []tracesdk.Link) []Link {
	if len(ls) == 0 {
		return nil
	}
	out := make([]Link, 0, len(ls))
	for _, l := range ls {
		out = append(out, Link{
			TraceID:    TraceID(l.SpanContext.TraceID()),
			SpanID:     SpanID(l.SpanContext.SpanID()),
			TraceState: l.SpanContext.TraceState().String(),
			Attributes: keyValueList(l.Attributes),
		})
	}
	return out
}

func (s *Span) Snapshot() tracesdk.ReadOnlySpan {
	// use tracetest to create a ReadOnlySpan, rather than implementing our own
	ro := &tracetest.SpanStub{
		Name:              s.Name,
		SpanContext:       spanContext(s.TraceID, s.SpanID, s.TraceState),
		SpanKind:          trace.ValidateSpanKind(s.Kind),
		Attributes:        toAttributes(s.Attributes),
		DroppedAttributes: int(s.DroppedAttributes),
		Status:            s.Status,
		StartTime:         time.Unix(0, s.StartTimeUnixNano),
		EndTime:           time.Unix(0, s.EndTimeUnixNano),
		Resource:          s.Resource.toResource(),
		InstrumentationScope: instrumentation.Scope{
			Name:      s.InstrumentationScope.Name,
			Version:   s.InstrumentationScope.Version,
			SchemaURL: s.InstrumentationScope.SchemaURL,
		},
	}
	if s.ParentSpanID != (SpanID{}) {
		ro.Parent = spanContext(s.TraceID, s.ParentSpanID, "")
	}
	for _, e := range s.Events {
		ro.Events = append(ro.Events, tracesdk.Event{
			Name:       e.Name,
			Time:       time.Unix(0, e.TimeUnixNano),
			Attributes: toAttributes(e.Attributes),
		})
	}
	for _, l := range s.Links {
		ro.Links = append(ro.Links, tracesdk.Link{
			SpanContext: spanContext(l.TraceID, l.SpanID, l.TraceState),
			Attributes:  toAttributes(l.Attributes),
		})
	}

	return ro.Snapshot()
}

// ignore tracestate parse errors, and leave the SpanContext's trace state as blank
func spanContext(tid TraceID, sid SpanID, state string) trace.SpanContext {
	ts, _ := trace.ParseTraceState(state)
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(tid),
		SpanID:     trace.SpanID(sid),
		TraceState: ts,
		TraceFlags: trace.FlagsSampled,
	})
}

func (s *Span) Valid() bool {
	return !(s.Name == "" || s.TraceID == TraceID{} || s.SpanID == SpanID{} || s.Kind == trace.SpanKindUnspecified)
}

type TraceID [16]byte

func (x TraceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(trace.TraceID(x).String())
}

func (x *TraceID) UnmarshalJSON(b []byte) error {
	s := ""
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == (trace.TraceID{}).String() {
		*x = TraceID{}
		return nil
	}
	id, err := trace.TraceIDFromHex(s)
	if err != nil {
		return fmt.Errorf("invalid trace ID string %q: %w", s, err)
	}
	*x = TraceID(id)
	return nil
}

type SpanID [8]byte

func (x SpanID) MarshalJSON() ([]byte, error) {
	return json.Marshal(trace.SpanID(x).String())
}

// UnmarshalJSON accepts the all-zero ID, which [SpanID.MarshalJSON] writes for root spans.
func (x *SpanID) UnmarshalJSON(b []byte) error {
	s := ""
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == (trace.SpanID{}).String() {
		*x = SpanID{}
		return nil
	}
	id, err := trace.SpanIDFromHex(s)
	if err != nil {
		return fmt.Errorf("invalid span ID string %q: %w", s, err)
	}
	*x = SpanID(id)
	return nil
}

type Resource struct {
	Attributes []KeyValue `json:",omitempty"`
	SchemaURL  string     `json:",omitempty"`
}

// map[attribute.Distinct]Resource
// cache [resource.Resource] attributes
var rscs sync.Map

func newResource(rsc *resource.Resource) Resource {
	d := rsc.Equivalent()
	if r, ok := rscs.Load(d); ok {
		return r.(Resource)
	}

	r := Resource{
		Attributes: keyValueList(rsc.Attributes()),
		SchemaURL:  rsc.SchemaURL(),
	}
	rscs.Store(d, r)
	return r
}

func (r *Resource) toResource() *resource.Resource {
	if len(r.Attributes) == 0 && r.SchemaURL == "" {
		return resource.Empty()
	}
	return resource.NewWithAttributes(r.SchemaURL, toAttributes(r.Attributes)...)
}

func keyValueList(attrs []attribute.KeyValue) []KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if kv := toKeyValue(a); kv.valid() {
			kvs = append(kvs, kv)
		}
	}
	return kvs
}

func toAttributes(kvs []KeyValue) []attribute.KeyValue {
	if len(kvs) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		a := kv.attribute()
		if a.Valid() {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// Can only be string, bool, float64, int64, or an array of those.
// https://opentelemetry.io/docs/specs/otel/common/#attribute

// KeyValue is an attribute with its OTel type, so that integers and floats survive the
// round trip through JSON numbers.
type KeyValue struct {
	Key   string
	Type  string
	Value any
}

var _ fmt.Stringer = (*KeyValue)(nil)

func (kv *KeyValue) String() string {
	return fmt.Sprintf(`KeyValue{Key: %s, Type: %s, Value: %v}`, kv.Key, kv.Type, kv.Value)
}

type kvInternal struct {
	Key   string
	Type  string
	Value jsoniter.RawMessage
}

func (kv *KeyValue) UnmarshalJSON(b []byte) (err error) {
	var x kvInternal
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	kv.Key = x.Key
	kv.Type = x.Type
	switch x.Type {
	case attribute.BOOL.String():
		kv.Value, err = decode[bool](x.Value)
	case attribute.INT64.String():
		kv.Value, err = decode[int64](x.Value)
	case attribute.FLOAT64.String():
		kv.Value, err = decode[float64](x.Value)
	case attribute.STRING.String():
		kv.Value, err = decode[string](x.Value)
	case attribute.BOOLSLICE.String():
		kv.Value, err = decode[[]bool](x.Value)
	case attribute.INT64SLICE.String():
		kv.Value, err = decode[[]int64](x.Value)
	case attribute.FLOAT64SLICE.String():
		kv.Value, err = decode[[]float64](x.Value)
	case attribute.STRINGSLICE.String():
		kv.Value, err = decode[[]string](x.Value)
	default:
		return fmt.Errorf("attribute %q: invalid type %q", x.Key, x.Type)
	}
	if err != nil {
		return fmt.Errorf("attribute %q: %w", x.Key, err)
	}
	return nil
}

func decode[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func toKeyValue(a attribute.KeyValue) KeyValue {
	if !a.Valid() {
		return KeyValue{}
	}

	return KeyValue{
		Key:   string(a.Key),
		Type:  a.Value.Type().String(),
		Value: a.Value.AsInterface(),
	}
}

func (kv *KeyValue) attribute() attribute.KeyValue {
	if kv.Value == nil {
		return attribute.KeyValue{}
	}
	return otel.Attribute(kv.Key, kv.Value)
}

func (kv *KeyValue) valid() bool {
	return kv.Key != "" && kv.Value != nil
}
