package events

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"

	"github.com/Microsoft/go-otel-etw/internal/otel/payload"
)

// payloadField holds all attributes in JSON mode.
const payloadField = "Payload"

// maxStructFields is the most fields a Common Schema part can hold.
const maxStructFields = 127

// AddAttributes writes attrs as one field each, or as a single JSON "Payload" field
// if c.JSON is set.
func AddAttributes(enc Encoder, attrs []attribute.KeyValue, c *Config) {
	if len(attrs) == 0 {
		return
	}
	if c.JSON {
		enc.AddJSON(payloadField, payload.Attributes(attrs))
		return
	}
	for _, kv := range attrs {
		addAttribute(enc, kv, c.ByteBools)
	}
}

func addAttribute(enc Encoder, kv attribute.KeyValue, byteBool bool) {
	name := string(kv.Key)
	v := kv.Value
	switch v.Type() {
	case attribute.BOOL:
		enc.AddBool(name, v.AsBool(), byteBool)
	case attribute.INT64:
		enc.AddInt64(name, v.AsInt64())
	case attribute.FLOAT64:
		enc.AddFloat64(name, v.AsFloat64())
	case attribute.STRING:
		enc.AddString(name, v.AsString())
	case attribute.BOOLSLICE:
		enc.AddBoolSlice(name, v.AsBoolSlice(), byteBool)
	case attribute.INT64SLICE:
		enc.AddInt64Slice(name, v.AsInt64Slice())
	case attribute.FLOAT64SLICE:
		enc.AddFloat64Slice(name, v.AsFloat64Slice())
	case attribute.STRINGSLICE:
		enc.AddStringSlice(name, v.AsStringSlice())
	default:
		enc.AddString(name, v.Emit())
	}
}

// addLogValue writes a log value as a single field.
//
// Homogeneous slices of scalars become sequences. Maps, mixed slices, and nested
// values are written as JSON.
func addLogValue(enc Encoder, name string, v log.Value, byteBool bool) {
	switch v.Kind() {
	case log.KindBool:
		enc.AddBool(name, v.AsBool(), byteBool)
	case log.KindInt64:
		enc.AddInt64(name, v.AsInt64())
	case log.KindFloat64:
		enc.AddFloat64(name, v.AsFloat64())
	case log.KindString:
		enc.AddString(name, v.AsString())
	case log.KindBytes:
		enc.AddBytes(name, v.AsBytes())
	case log.KindSlice:
		if !addLogSlice(enc, name, v.AsSlice(), byteBool) {
			enc.AddJSON(name, payload.LogValue(v))
		}
	default:
		enc.AddJSON(name, payload.LogValue(v))
	}
}

// addLogSlice writes vs as a sequence if every element has the same scalar kind,
// and returns false otherwise.
func addLogSlice(enc Encoder, name string, vs []log.Value, byteBool bool) bool {
	if len(vs) == 0 {
		enc.AddStringSlice(name, nil)
		return true
	}
	k := vs[0].Kind()
	for _, v := range vs[1:] {
		if v.Kind() != k {
			return false
		}
	}

	switch k {
	case log.KindBool:
		enc.AddBoolSlice(name, collect(vs, log.Value.AsBool), byteBool)
	case log.KindInt64:
		enc.AddInt64Slice(name, collect(vs, log.Value.AsInt64))
	case log.KindFloat64:
		enc.AddFloat64Slice(name, collect(vs, log.Value.AsFloat64))
	case log.KindString:
		enc.AddStringSlice(name, collect(vs, log.Value.AsString))
	default:
		return false
	}
	return true
}

func collect[T any](vs []log.Value, f func(log.Value) T) []T {
	out := make([]T, len(vs))
	for i, v := range vs {
		out[i] = f(v)
	}
	return out
}

// addLogAttributes writes kvs as one field each, or as a single JSON payload field.
func addLogAttributes(enc Encoder, kvs []log.KeyValue, c *Config) {
	if len(kvs) == 0 {
		return
	}
	if c.JSON {
		enc.AddJSON(payloadField, payload.LogAttributes(kvs))
		return
	}
	for _, kv := range kvs {
		addLogValue(enc, kv.Key, kv.Value, c.ByteBools)
	}
}

// AttributeFields returns the number of struct fields needed to hold n attributes.
// Beyond 127 attributes, the extras must be dropped.
func AttributeFields(n int, c *Config) int {
	switch {
	case n == 0:
		return 0
	case c.JSON:
		return 1
	case n > maxStructFields:
		return maxStructFields
	}
	return n
}

// logKeyValue converts a span or resource attribute into a log attribute.
func logKeyValue(kv attribute.KeyValue) log.KeyValue {
	k := string(kv.Key)
	v := kv.Value
	switch v.Type() {
	case attribute.BOOL:
		return log.Bool(k, v.AsBool())
	case attribute.INT64:
		return log.Int64(k, v.AsInt64())
	case attribute.FLOAT64:
		return log.Float64(k, v.AsFloat64())
	case attribute.STRING:
		return log.String(k, v.AsString())
	case attribute.BOOLSLICE:
		return log.Slice(k, convert(v.AsBoolSlice(), log.BoolValue)...)
	case attribute.INT64SLICE:
		return log.Slice(k, convert(v.AsInt64Slice(), log.Int64Value)...)
	case attribute.FLOAT64SLICE:
		return log.Slice(k, convert(v.AsFloat64Slice(), log.Float64Value)...)
	case attribute.STRINGSLICE:
		return log.Slice(k, convert(v.AsStringSlice(), log.StringValue)...)
	default:
		return log.String(k, v.Emit())
	}
}

func convert[T any](vs []T, f func(T) log.Value) []log.Value {
	out := make([]log.Value, len(vs))
	for i, v := range vs {
		out[i] = f(v)
	}
	return out
}

// recordAttributes returns the attributes of a log record, or nil if it has none.
func recordAttributes(r interface {
	AttributesLen() int
	WalkAttributes(func(log.KeyValue) bool)
}) []log.KeyValue {
	n := r.AttributesLen()
	if n == 0 {
		return nil
	}
	kvs := make([]log.KeyValue, 0, n)
	r.WalkAttributes(func(kv log.KeyValue) bool {
		kvs = append(kvs, kv)
		return true
	})
	return kvs
}
