package events

import (
	"math"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/Microsoft/go-otel-etw/internal/activity"
	"github.com/Microsoft/go-otel-etw/internal/eventheader"
)

// EventHeaderProvider is a registered provider that accepts EventHeader events,
// such as a set of user_events tracepoints.
type EventHeaderProvider interface {
	eventheader.Writer
	Enabled(level uint8, keyword uint64) bool
	Close() error
}

// EventHeader is a [Platform] that encodes events with EventHeader.
// Activity IDs use [activity.SchemeNameHash].
type EventHeader struct {
	refCount
	p EventHeaderProvider
}

var _ Platform = (*EventHeader)(nil)

// NewEventHeader returns a [Platform] writing to p.
//
// p is closed when the last reference to the platform is closed.
func NewEventHeader(p EventHeaderProvider) *EventHeader {
	h := &EventHeader{p: p}
	h.refCount.init(p.Close)
	return h
}

func (h *EventHeader) Enabled(level Level, keyword uint64) bool {
	return h.p.Enabled(uint8(level), keyword)
}

func (h *EventHeader) NewEncoder() Encoder {
	return &eventHeaderEncoder{
		b: eventheader.NewEventBuilder(),
		w: h.p,
	}
}

func (*EventHeader) Scheme() activity.Scheme { return activity.SchemeNameHash }

type eventHeaderEncoder struct {
	b *eventheader.EventBuilder
	w eventheader.Writer

	level   Level
	keyword uint64
}

var _ Encoder = (*eventHeaderEncoder)(nil)

// Reset truncates tags to 16 bits, the width of EventHeader tags.
func (e *eventHeaderEncoder) Reset(name string, level Level, keyword uint64, tags uint32) {
	e.level = level
	e.keyword = keyword
	e.b.Reset(name, uint16(tags))
}

func (e *eventHeaderEncoder) SetOpcode(op Opcode) {
	switch op {
	case OpcodeStart:
		e.b.SetOpcode(eventheader.OpcodeActivityStart)
	case OpcodeStop:
		e.b.SetOpcode(eventheader.OpcodeActivityStop)
	default:
		e.b.SetOpcode(eventheader.OpcodeInfo)
	}
}

func (e *eventHeaderEncoder) AddEventTime(name string, t time.Time, tagged bool) {
	var tag uint16
	if tagged {
		tag = FieldTagEventTime16
	}
	e.b.AddTime(name, t, tag)
}

func (e *eventHeaderEncoder) AddTime(name string, t time.Time) {
	e.b.AddTime(name, t, 0)
}

func (e *eventHeaderEncoder) AddString(name, v string) {
	e.b.AddString8(name, v, eventheader.FormatStringUtf, 0)
}

func (e *eventHeaderEncoder) AddStringSlice(name string, vs []string) {
	e.b.AddString8Sequence(name, vs, eventheader.FormatStringUtf, 0)
}

func (e *eventHeaderEncoder) AddJSON(name, v string) {
	e.b.AddString8(name, v, eventheader.FormatStringJSON, 0)
}

func (e *eventHeaderEncoder) AddBool(name string, v bool, byteBool bool) {
	if byteBool {
		e.b.AddValue8(name, boolByte(v), eventheader.FormatBoolean, 0)
		return
	}
	e.b.AddValue32(name, uint32(boolByte(v)), eventheader.FormatBoolean, 0)
}

func (e *eventHeaderEncoder) AddBoolSlice(name string, vs []bool, byteBool bool) {
	if byteBool {
		e.b.AddValue8Sequence(name, boolBytes(vs), eventheader.FormatBoolean, 0)
		return
	}
	ws := make([]uint32, len(vs))
	for i, v := range vs {
		ws[i] = uint32(boolByte(v))
	}
	e.b.AddValue32Sequence(name, ws, eventheader.FormatBoolean, 0)
}

func (e *eventHeaderEncoder) AddInt64(name string, v int64) {
	e.b.AddInt64(name, v, 0)
}

func (e *eventHeaderEncoder) AddInt64Slice(name string, vs []int64) {
	us := make([]uint64, len(vs))
	for i, v := range vs {
		us[i] = uint64(v)
	}
	e.b.AddValue64Sequence(name, us, eventheader.FormatSignedInt, 0)
}

func (e *eventHeaderEncoder) AddFloat64(name string, v float64) {
	e.b.AddFloat64(name, v, 0)
}

func (e *eventHeaderEncoder) AddFloat64Slice(name string, vs []float64) {
	us := make([]uint64, len(vs))
	for i, v := range vs {
		us[i] = math.Float64bits(v)
	}
	e.b.AddValue64Sequence(name, us, eventheader.FormatFloat, 0)
}

func (e *eventHeaderEncoder) AddBytes(name string, v []byte) {
	e.b.AddValue8Sequence(name, v, eventheader.FormatDefault, 0)
}

func (e *eventHeaderEncoder) AddUint8(name string, v uint8, f Format) {
	ff := eventheader.FormatUnsignedInt
	if f == FormatBoolean {
		ff = eventheader.FormatBoolean
	}
	e.b.AddValue8(name, v, ff, 0)
}

func (e *eventHeaderEncoder) AddSchemaVersion(name string, v uint16) {
	e.b.AddValue16(name, v, eventheader.FormatHexInt, 0)
}

func (e *eventHeaderEncoder) AddStruct(name string, fields uint8) {
	e.b.AddStruct(name, fields, 0)
}

func (e *eventHeaderEncoder) Write(activityID, relatedID *guid.GUID) error {
	return e.b.Write(e.w, uint8(e.level), e.keyword, activityID, relatedID)
}
