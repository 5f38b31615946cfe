// This package derives platform activity IDs from OpenTelemetry span context.
//
// Activity IDs let trace consumers correlate the start, stop, event, and link
// events of a single span. They are derived from the span ID alone, so repeated
// derivations for the same span always agree.
package activity

import (
	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/option"
)

// Scheme selects how a span ID is turned into a 128 bit activity ID.
//
// A platform build must use one scheme for every event it writes.
type Scheme uint8

const (
	// SchemeSpanBytes zero-fills the first 8 bytes and places the raw span ID bytes
	// in the last 8, read as a big-endian GUID.
	// The span ID can be read back from the activity ID.
	SchemeSpanBytes Scheme = iota
	// SchemeNameHash uses a name-based (SHA-1) UUID of the span ID's hex string
	// within [Namespace].
	SchemeNameHash
)

func (s Scheme) String() string {
	switch s {
	case SchemeSpanBytes:
		return "SpanBytes"
	case SchemeNameHash:
		return "NameHash"
	default:
		return "Unknown"
	}
}

// Namespace is the name-based UUID namespace for [SchemeNameHash].
// It is the OpenTelemetry provider group ID.
var Namespace = uuid.MustParse("e60ec51a-8e54-5a4f-2fb2-60a4f9213b3a")

// Identity holds the correlation data for one span, computed once per event write.
type Identity struct {
	ActivityID guid.GUID
	// ParentActivityID is None if the span has no (valid) parent.
	ParentActivityID option.Option[guid.GUID]

	// lowercase hex renderings
	SpanID       string // 16 chars
	ParentSpanID string // 16 chars, or empty if there is no parent
	TraceID      string // 32 chars
}

// HasParent returns if the identity has a parent span.
func (i *Identity) HasParent() bool { return option.IsSome(i.ParentActivityID) }

// Derive computes the correlation identity for a span.
func Derive(s Scheme, spanID, parentSpanID trace.SpanID, traceID trace.TraceID) Identity {
	id := Identity{
		ActivityID: ID(s, spanID),
		SpanID:     spanID.String(),
		TraceID:    traceID.String(),
	}
	if parentSpanID.IsValid() {
		id.ParentActivityID = option.Some(ID(s, parentSpanID))
		id.ParentSpanID = parentSpanID.String()
	}
	return id
}

// ID returns the activity ID for a span ID.
func ID(s Scheme, spanID trace.SpanID) guid.GUID {
	if s == SchemeNameHash {
		return guid.FromArray(uuid.NewSHA1(Namespace, []byte(spanID.String())))
	}

	var b [16]byte
	copy(b[8:], spanID[:])
	return guid.FromArray(b)
}
