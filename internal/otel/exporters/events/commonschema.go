package events

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/Microsoft/go-otel-etw/internal/activity"
	"github.com/Microsoft/go-otel-etw/internal/otel/payload"
)

// Common Schema 4.0 versions 1
const commonSchemaVersion uint16 = 0x0401

const (
	csVersion = "__csver__"
	csPartA   = "PartA"
	csPartB   = "PartB"
	csPartC   = "PartC"

	csTypeSpan = "Span"
	csTypeLog  = "Log"
)

// partAExtensions are the optional PartA structs built from resource attributes.
type partAExtensions struct {
	role         string
	roleInstance string
	userID       string
}

func newPartAExtensions(rsc *attribute.Set) (x partAExtensions) {
	name := stringValue(rsc, semconv.ServiceNameKey)
	ns := stringValue(rsc, semconv.ServiceNamespaceKey)
	switch {
	case name != "" && ns != "":
		x.role = "[" + ns + "]/" + name
	case name != "":
		x.role = name
	default:
		x.role = ns
	}
	x.roleInstance = stringValue(rsc, semconv.ServiceInstanceIDKey)
	x.userID = stringValue(rsc, semconv.EnduserIDKey)
	return x
}

func (x *partAExtensions) cloudFields() (n uint8) {
	if x.role != "" {
		n++
	}
	if x.roleInstance != "" {
		n++
	}
	return n
}

// count is the number of extension structs.
func (x *partAExtensions) count() (n uint8) {
	if x.cloudFields() > 0 {
		n++
	}
	if x.userID != "" {
		n++
	}
	return n
}

func (x *partAExtensions) write(enc Encoder) {
	if n := x.cloudFields(); n > 0 {
		enc.AddStruct("ext_cloud", n)
		if x.role != "" {
			enc.AddString("role", x.role)
		}
		if x.roleInstance != "" {
			enc.AddString("roleInstance", x.roleInstance)
		}
	}
	if x.userID != "" {
		enc.AddStruct("ext_app", 1)
		enc.AddString("userId", x.userID)
	}
}

func stringValue(s *attribute.Set, k attribute.Key) string {
	if v, ok := s.Value(k); ok && v.Type() == attribute.STRING {
		return v.AsString()
	}
	return ""
}

func (c *core[K, P]) writePartA(enc Encoder, t time.Time, traceID, spanID string, rsc *attribute.Set) {
	var x partAExtensions
	if c.config.PartAExtensions {
		x = newPartAExtensions(rsc)
	}

	enc.AddStruct(csPartA, 2+x.count())
	enc.AddString("time", rfc3339(t))
	enc.AddStruct("ext_dt", 2)
	enc.AddString("traceId", traceID)
	enc.AddString("spanId", spanID)
	x.write(enc)
}

// writeCommonSchemaSpan writes a span as a Common Schema 4.0 event.
//
// Both PartA "time" and PartB "startTime" hold the span end time.
func (c *core[K, P]) writeCommonSchemaSpan(enc Encoder, id *activity.Identity, s tracesdk.ReadOnlySpan, level Level) error {
	enc.Reset(s.Name(), level, c.keywords.SpanKeyword(), 0)
	enc.AddSchemaVersion(csVersion, commonSchemaVersion)

	end := s.EndTime()
	rsc := s.Resource()
	c.writePartA(enc, end, id.TraceID, id.SpanID, rsc.Set())

	status := s.Status()
	links := s.Links()
	n := uint8(5)
	if id.HasParent() {
		n++
	}
	if status.Code == codes.Error {
		n++
	}
	if len(links) > 0 {
		n++
	}
	enc.AddStruct(csPartB, n)
	enc.AddString("_typeName", csTypeSpan)
	if id.HasParent() {
		enc.AddString("parentId", id.ParentSpanID)
	}
	enc.AddString("name", s.Name())
	enc.AddUint8("kind", kindNumber(s.SpanKind()), FormatUnsigned)
	enc.AddString("startTime", rfc3339(end))
	enc.AddUint8("success", boolByte(status.Code == codes.Ok), FormatBoolean)
	if status.Code == codes.Error {
		enc.AddString("statusMessage", status.Description)
	}
	if len(links) > 0 {
		enc.AddJSON("links", payload.Links(links))
	}

	attrs := s.Attributes()
	if c.config.ResourceAttributes {
		attrs = append(attrs[:len(attrs):len(attrs)], rsc.Attributes()...)
	}
	if n := partCFields(len(attrs), &c.config); n > 0 {
		enc.AddStruct(csPartC, uint8(n))
		if c.config.JSON {
			enc.AddJSON(payloadField, payload.Attributes(attrs))
		} else {
			AddAttributes(enc, attrs[:n], &c.config)
		}
	}

	return c.inst.record(classCommonSchema, enc.Write(nil, nil))
}

// writeCommonSchemaLog writes a log record as a Common Schema 4.0 event.
func (c *core[K, P]) writeCommonSchemaLog(enc Encoder, r *sdklog.Record) error {
	name := logEventName(r)
	enc.Reset(name, c.keywords.LogLevel(), c.keywords.LogKeyword(), 0)
	enc.AddSchemaVersion(csVersion, commonSchemaVersion)

	ts := logTime(r)
	rsc := r.Resource()
	c.writePartA(enc, ts, r.TraceID().String(), r.SpanID().String(), rsc.Set())

	sev := r.Severity()
	text := r.SeverityText()
	n := uint8(2)
	if sev > log.SeverityUndefined {
		n++
	}
	if text != "" {
		n++
	}
	if present(ts) {
		n++
	}
	enc.AddStruct(csPartB, n)
	enc.AddString("_typeName", csTypeLog)
	enc.AddString("name", name)
	if present(ts) {
		enc.AddString("eventTime", rfc3339(ts))
	}
	if sev > log.SeverityUndefined {
		enc.AddUint8("severityNumber", uint8(sev), FormatUnsigned)
	}
	if text != "" {
		enc.AddString("severityText", text)
	}

	kvs := recordAttributes(r)
	if c.config.ResourceAttributes {
		for _, kv := range rsc.Attributes() {
			kvs = append(kvs, logKeyValue(kv))
		}
	}
	if n := partCFields(len(kvs), &c.config); n > 0 {
		enc.AddStruct(csPartC, uint8(n))
		if c.config.JSON {
			enc.AddJSON(payloadField, payload.LogAttributes(kvs))
		} else {
			addLogAttributes(enc, kvs[:n], &c.config)
		}
	}

	return c.inst.record(classCommonSchema, enc.Write(nil, nil))
}

// partCFields returns the number of PartC fields for n attributes.
//
// In JSON mode PartC always holds the payload, which is "{}" without attributes.
// Otherwise PartC is left out when there are no attributes.
func partCFields(n int, c *Config) int {
	if c.JSON {
		return 1
	}
	return AttributeFields(n, c)
}

// rfc3339 formats t in UTC. Absent times format as the Unix epoch.
func rfc3339(t time.Time) string {
	if !present(t) {
		t = time.Unix(0, 0)
	}
	return t.UTC().Format(time.RFC3339Nano)
}
