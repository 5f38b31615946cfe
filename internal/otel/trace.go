package otel

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// nameSep separates the components of a span name.
const nameSep = "::"

// Name joins the non-empty components into a span name.
func Name(names ...string) string {
	var sb strings.Builder
	for _, n := range names {
		if n == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(nameSep)
		}
		sb.WriteString(n)
	}
	return sb.String()
}

// StartSpan starts a span from the repo tracer of the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, opts...)
}

var (
	WithServerSpanKind = trace.WithSpanKind(trace.SpanKindServer)
	WithClientSpanKind = trace.WithSpanKind(trace.SpanKindClient)
)

// SetSpanStatus marks the span Ok, or records err as an exception event and marks it Error.
func SetSpanStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func SetSpanStatusAndEnd(span trace.Span, err error, opts ...trace.SpanEndOption) {
	SetSpanStatus(span, err)
	span.End(opts...)
}

// Attribute converts v into the closest attribute type, so the exporters can write it as a
// typed field.
//
// Unsigned values that do not fit an int64 and unknown types become strings; types that
// are neither [fmt.Stringer] nor [time.Duration] are JSON encoded if possible.
func Attribute(k string, v any) attribute.KeyValue {
	switch x := v.(type) {
	case nil:
		return attribute.String(k, "<nil>")
	case bool:
		return attribute.Bool(k, x)
	case []bool:
		return attribute.BoolSlice(k, x)
	case string:
		return attribute.String(k, x)
	case []string:
		return attribute.StringSlice(k, x)
	case int:
		return attribute.Int(k, x)
	case []int:
		return attribute.IntSlice(k, x)
	case int8:
		return attribute.Int64(k, int64(x))
	case int16:
		return attribute.Int64(k, int64(x))
	case int32:
		return attribute.Int64(k, int64(x))
	case int64:
		return attribute.Int64(k, x)
	case []int64:
		return attribute.Int64Slice(k, x)
	case uint8:
		return attribute.Int64(k, int64(x))
	case uint16:
		return attribute.Int64(k, int64(x))
	case uint32:
		return attribute.Int64(k, int64(x))
	case uint64:
		if x > 1<<63-1 {
			return attribute.String(k, fmt.Sprint(x))
		}
		return attribute.Int64(k, int64(x))
	case float32:
		return attribute.Float64(k, float64(x))
	case float64:
		return attribute.Float64(k, x)
	case []float64:
		return attribute.Float64Slice(k, x)
	case time.Duration:
		return attribute.String(k, x.String())
	case fmt.Stringer:
		return attribute.Stringer(k, x)
	}

	if b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v); err == nil {
		return attribute.String(k, string(b))
	}
	return attribute.String(k, fmt.Sprintf("%v", v))
}
