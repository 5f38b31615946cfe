// This package serializes OTel attributes and log values as JSON strings, for events
// that carry their attributes as a single JSON payload field rather than as individual fields.
//
// Object keys are written in attribute order.
package payload

import (
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Attributes returns attrs as a JSON object.
func Attributes(attrs []attribute.KeyValue) string {
	s := api.BorrowStream(nil)
	defer api.ReturnStream(s)

	s.WriteObjectStart()
	for i, kv := range attrs {
		if i > 0 {
			s.WriteMore()
		}
		s.WriteObjectField(string(kv.Key))
		writeAttribute(s, kv.Value)
	}
	s.WriteObjectEnd()
	return string(s.Buffer())
}

// LogAttributes returns kvs as a JSON object.
func LogAttributes(kvs []log.KeyValue) string {
	s := api.BorrowStream(nil)
	defer api.ReturnStream(s)

	writeLogMap(s, kvs)
	return string(s.Buffer())
}

// LogValue returns v as JSON.
func LogValue(v log.Value) string {
	s := api.BorrowStream(nil)
	defer api.ReturnStream(s)

	writeLogValue(s, v)
	return string(s.Buffer())
}

// Links returns the trace and span IDs of links as a JSON array of
// {"toTraceId": ..., "toSpanId": ...} objects.
//
// Link attributes are not included.
func Links(links []tracesdk.Link) string {
	s := api.BorrowStream(nil)
	defer api.ReturnStream(s)

	s.WriteArrayStart()
	for i, l := range links {
		if i > 0 {
			s.WriteMore()
		}
		s.WriteObjectStart()
		s.WriteObjectField("toTraceId")
		s.WriteString(l.SpanContext.TraceID().String())
		s.WriteMore()
		s.WriteObjectField("toSpanId")
		s.WriteString(l.SpanContext.SpanID().String())
		s.WriteObjectEnd()
	}
	s.WriteArrayEnd()
	return string(s.Buffer())
}

func writeAttribute(s *jsoniter.Stream, v attribute.Value) {
	switch v.Type() {
	case attribute.BOOL:
		s.WriteBool(v.AsBool())
	case attribute.INT64:
		s.WriteInt64(v.AsInt64())
	case attribute.FLOAT64:
		writeFloat(s, v.AsFloat64())
	case attribute.STRING:
		s.WriteString(v.AsString())
	case attribute.BOOLSLICE:
		writeArray(s, v.AsBoolSlice(), s.WriteBool)
	case attribute.INT64SLICE:
		writeArray(s, v.AsInt64Slice(), s.WriteInt64)
	case attribute.FLOAT64SLICE:
		writeArray(s, v.AsFloat64Slice(), func(f float64) { writeFloat(s, f) })
	case attribute.STRINGSLICE:
		writeArray(s, v.AsStringSlice(), s.WriteString)
	default:
		s.WriteNil()
	}
}

func writeLogValue(s *jsoniter.Stream, v log.Value) {
	switch v.Kind() {
	case log.KindBool:
		s.WriteBool(v.AsBool())
	case log.KindInt64:
		s.WriteInt64(v.AsInt64())
	case log.KindFloat64:
		writeFloat(s, v.AsFloat64())
	case log.KindString:
		s.WriteString(v.AsString())
	case log.KindBytes:
		// an array of numbers, not base64
		writeArray(s, v.AsBytes(), func(b byte) { s.WriteUint8(b) })
	case log.KindSlice:
		writeArray(s, v.AsSlice(), func(v log.Value) { writeLogValue(s, v) })
	case log.KindMap:
		writeLogMap(s, v.AsMap())
	default:
		s.WriteNil()
	}
}

func writeLogMap(s *jsoniter.Stream, kvs []log.KeyValue) {
	s.WriteObjectStart()
	for i, kv := range kvs {
		if i > 0 {
			s.WriteMore()
		}
		s.WriteObjectField(kv.Key)
		writeLogValue(s, kv.Value)
	}
	s.WriteObjectEnd()
}

func writeArray[T any](s *jsoniter.Stream, vs []T, f func(T)) {
	s.WriteArrayStart()
	for i, v := range vs {
		if i > 0 {
			s.WriteMore()
		}
		f(v)
	}
	s.WriteArrayEnd()
}

// writeFloat writes NaN and infinities as strings, since JSON has no representation for them.
func writeFloat(s *jsoniter.Stream, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		s.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return
	}
	s.WriteFloat64(f)
}
