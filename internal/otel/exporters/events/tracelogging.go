package events

import (
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/Microsoft/go-otel-etw/internal/activity"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

// TraceLoggingProvider is a registered provider that accepts TraceLogging events,
// such as an ETW provider.
type TraceLoggingProvider interface {
	tracelogging.Writer
	Enabled(level uint8, keyword uint64) bool
	Close() error
}

// TraceLogging is a [Platform] that encodes events with TraceLogging.
// Activity IDs use [activity.SchemeSpanBytes].
type TraceLogging struct {
	refCount
	p TraceLoggingProvider
}

var _ Platform = (*TraceLogging)(nil)

// NewTraceLogging returns a [Platform] writing to p.
//
// p is closed when the last reference to the platform is closed.
func NewTraceLogging(p TraceLoggingProvider) *TraceLogging {
	t := &TraceLogging{p: p}
	t.refCount.init(p.Close)
	return t
}

func (t *TraceLogging) Enabled(level Level, keyword uint64) bool {
	return t.p.Enabled(uint8(level), keyword)
}

func (t *TraceLogging) NewEncoder() Encoder {
	return &traceLoggingEncoder{
		b: tracelogging.NewEventBuilder(),
		w: t.p,
	}
}

func (*TraceLogging) Scheme() activity.Scheme { return activity.SchemeSpanBytes }

type traceLoggingEncoder struct {
	b *tracelogging.EventBuilder
	w tracelogging.Writer
}

var _ Encoder = (*traceLoggingEncoder)(nil)

func (e *traceLoggingEncoder) Reset(name string, level Level, keyword uint64, tags uint32) {
	e.b.Reset(name, uint8(level), keyword, tags)
}

func (e *traceLoggingEncoder) SetOpcode(op Opcode) {
	switch op {
	case OpcodeStart:
		e.b.SetOpcode(tracelogging.OpcodeStart)
	case OpcodeStop:
		e.b.SetOpcode(tracelogging.OpcodeStop)
	default:
		e.b.SetOpcode(tracelogging.OpcodeInfo)
	}
}

// AddEventTime writes a FILETIME "otel_event_time" field for consumers that look for
// the tagged time, followed by a human readable SYSTEMTIME field named name.
func (e *traceLoggingEncoder) AddEventTime(name string, t time.Time, tagged bool) {
	var tags uint32
	if tagged {
		tags = FieldTagEventTime
	}
	e.b.AddFileTime("otel_event_time", t, tracelogging.OutTypeDateTimeUTC, tags)
	e.b.AddSystemTime(name, t, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddTime(name string, t time.Time) {
	e.b.AddSystemTime(name, t, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddString(name, v string) {
	e.b.AddStr8(name, v, tracelogging.OutTypeUTF8, 0)
}

func (e *traceLoggingEncoder) AddStringSlice(name string, vs []string) {
	e.b.AddStr8Sequence(name, vs, tracelogging.OutTypeUTF8, 0)
}

func (e *traceLoggingEncoder) AddJSON(name, v string) {
	e.b.AddStr8(name, v, tracelogging.OutTypeJSON, 0)
}

func (e *traceLoggingEncoder) AddBool(name string, v bool, byteBool bool) {
	if byteBool {
		e.b.AddU8(name, boolByte(v), tracelogging.OutTypeBoolean, 0)
		return
	}
	e.b.AddBool32(name, v, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddBoolSlice(name string, vs []bool, byteBool bool) {
	if byteBool {
		e.b.AddU8Sequence(name, boolBytes(vs), tracelogging.OutTypeBoolean, 0)
		return
	}
	e.b.AddBool32Sequence(name, vs, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddInt64(name string, v int64) {
	e.b.AddI64(name, v, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddInt64Slice(name string, vs []int64) {
	e.b.AddI64Sequence(name, vs, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddFloat64(name string, v float64) {
	e.b.AddF64(name, v, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddFloat64Slice(name string, vs []float64) {
	e.b.AddF64Sequence(name, vs, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddBytes(name string, v []byte) {
	e.b.AddU8Sequence(name, v, tracelogging.OutTypeDefault, 0)
}

func (e *traceLoggingEncoder) AddUint8(name string, v uint8, f Format) {
	out := tracelogging.OutTypeUnsigned
	if f == FormatBoolean {
		out = tracelogging.OutTypeBoolean
	}
	e.b.AddU8(name, v, out, 0)
}

func (e *traceLoggingEncoder) AddSchemaVersion(name string, v uint16) {
	e.b.AddU16(name, v, tracelogging.OutTypeSigned, 0)
}

func (e *traceLoggingEncoder) AddStruct(name string, fields uint8) {
	e.b.AddStruct(name, fields, 0)
}

func (e *traceLoggingEncoder) Write(activityID, relatedID *guid.GUID) error {
	return e.b.Write(e.w, activityID, relatedID)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func boolBytes(vs []bool) []uint8 {
	bs := make([]uint8, len(vs))
	for i, v := range vs {
		bs[i] = boolByte(v)
	}
	return bs
}
