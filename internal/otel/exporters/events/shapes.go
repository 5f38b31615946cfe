package events

import (
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/activity"
	"github.com/Microsoft/go-otel-etw/internal/option"
)

// field names
const (
	fieldStartTime     = "StartTime"
	fieldEndTime       = "EndTime"
	fieldTime          = "time"
	fieldObservedTime  = "observed time"
	fieldKind          = "Kind"
	fieldStatusMessage = "StatusMessage"
	fieldSpanID        = "SpanId"
	fieldParentID      = "ParentId"
	fieldTraceID       = "TraceId"
	fieldLink          = "Link"
	fieldBody          = "Body"

	attrEventName    = "event.name"
	defaultEventName = "Event"
)

// lifecycle is a span start or stop event.
type lifecycle struct {
	name   string
	level  Level
	op     Opcode
	time   time.Time
	kind   trace.SpanKind
	status tracesdk.Status
	attrs  []attribute.KeyValue
	// tagged marks the time field as authoritative, for events written after the fact
	tagged bool
}

func eventTags(tagged bool) uint32 {
	if tagged {
		return EventTagIgnoreEventTime
	}
	return 0
}

func (c *core[K, P]) writeLifecycle(enc Encoder, id *activity.Identity, e *lifecycle) error {
	enc.Reset(e.name, e.level, c.keywords.SpanKeyword(), eventTags(e.tagged))
	enc.SetOpcode(e.op)

	timeField := fieldStartTime
	if e.op == OpcodeStop {
		timeField = fieldEndTime
	}
	enc.AddEventTime(timeField, e.time, e.tagged)
	enc.AddString(fieldKind, kindName(e.kind))
	if e.status.Code == codes.Error {
		enc.AddString(fieldStatusMessage, e.status.Description)
	}
	addIdentity(enc, id)
	AddAttributes(enc, e.attrs, &c.config)

	return c.inst.record(classLifecycle, enc.Write(&id.ActivityID, option.Ptr(id.ParentActivityID)))
}

// writeSpanEvents writes one event per span event, stopping at the first failure.
func (c *core[K, P]) writeSpanEvents(enc Encoder, id *activity.Identity, evs []tracesdk.Event, tagged bool) error {
	for i := range evs {
		if err := c.writeSpanEvent(enc, id, evs[i].Name, evs[i].Time, evs[i].Attributes, tagged); err != nil {
			return err
		}
	}
	return nil
}

func (c *core[K, P]) writeSpanEvent(enc Encoder, id *activity.Identity, name string, t time.Time, attrs []attribute.KeyValue, tagged bool) error {
	enc.Reset(name, c.keywords.EventLevel(), c.keywords.EventKeyword(), eventTags(tagged))
	enc.AddEventTime(fieldTime, t, tagged)
	addIdentity(enc, id)
	AddAttributes(enc, attrs, &c.config)

	return c.inst.record(classSpanEvent, enc.Write(&id.ActivityID, option.Ptr(id.ParentActivityID)))
}

// writeLinks writes one event per link, named after the span and timed at the span start.
// It stops at the first failure.
func (c *core[K, P]) writeLinks(enc Encoder, id *activity.Identity, span string, start time.Time, links []tracesdk.Link, tagged bool) error {
	for i := range links {
		l := &links[i]
		enc.Reset(span, c.keywords.LinkLevel(), c.keywords.LinkKeyword(), eventTags(tagged))
		enc.AddEventTime(fieldTime, start, tagged)
		enc.AddString(fieldLink, l.SpanContext.SpanID().String())
		AddAttributes(enc, l.Attributes, &c.config)

		if err := c.inst.record(classLink, enc.Write(&id.ActivityID, option.Ptr(id.ParentActivityID))); err != nil {
			return err
		}
	}
	return nil
}

func (c *core[K, P]) writeLog(enc Encoder, r *sdklog.Record, level Level, tagged bool) error {
	enc.Reset(logEventName(r), level, c.keywords.LogKeyword(), eventTags(tagged))

	if ts := logTime(r); present(ts) {
		enc.AddEventTime(fieldTime, ts, tagged)
	}
	if obs := r.ObservedTimestamp(); present(obs) {
		enc.AddTime(fieldObservedTime, obs)
	}

	var aid *guid.GUID
	if sid := r.SpanID(); sid.IsValid() {
		enc.AddString(fieldSpanID, sid.String())
		enc.AddString(fieldTraceID, r.TraceID().String())
		a := activity.ID(c.platform.Scheme(), sid)
		aid = &a
	}

	if body := r.Body(); body.Kind() != log.KindEmpty {
		addLogValue(enc, fieldBody, body, c.config.ByteBools)
	}
	addLogAttributes(enc, recordAttributes(r), &c.config)

	return c.inst.record(classLog, enc.Write(aid, nil))
}

func addIdentity(enc Encoder, id *activity.Identity) {
	enc.AddString(fieldSpanID, id.SpanID)
	if id.HasParent() {
		enc.AddString(fieldParentID, id.ParentSpanID)
	}
	enc.AddString(fieldTraceID, id.TraceID)
}

// logEventName returns the string "event.name" attribute, the record's event name,
// or "Event", in that order of preference.
func logEventName(r *sdklog.Record) string {
	name := ""
	r.WalkAttributes(func(kv log.KeyValue) bool {
		if kv.Key == attrEventName && kv.Value.Kind() == log.KindString {
			name = kv.Value.AsString()
			return false
		}
		return true
	})
	if name != "" {
		return name
	}
	if n := r.EventName(); n != "" {
		return n
	}
	return defaultEventName
}

// logTime returns the record timestamp, or the observed timestamp if that is absent.
func logTime(r *sdklog.Record) time.Time {
	if ts := r.Timestamp(); present(ts) {
		return ts
	}
	return r.ObservedTimestamp()
}

// present returns false for the zero time and the Unix epoch, which both mean "unset".
func present(t time.Time) bool {
	return !t.IsZero() && t.UnixNano() != 0
}

var kindNames = [...]string{
	trace.SpanKindInternal: "Internal",
	trace.SpanKindServer:   "Server",
	trace.SpanKindClient:   "Client",
	trace.SpanKindProducer: "Producer",
	trace.SpanKindConsumer: "Consumer",
}

// kindName coerces unspecified and unknown kinds to Internal.
func kindName(k trace.SpanKind) string {
	return kindNames[trace.ValidateSpanKind(k)]
}

// kindNumber is the Common Schema span kind: Internal (0) through Consumer (4).
func kindNumber(k trace.SpanKind) uint8 {
	return uint8(trace.ValidateSpanKind(k) - trace.SpanKindInternal)
}
