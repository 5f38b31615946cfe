package events

import (
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/Microsoft/go-otel-etw/internal/activity"
)

// Event and field tags marking a field as the authoritative event time.
//
// Events written long after the fact (batch export) carry [EventTagIgnoreEventTime],
// and their time field is tagged with [FieldTagEventTime], so consumers use the field
// instead of the envelope timestamp.
const (
	EventTagIgnoreEventTime uint32 = 12345
	FieldTagEventTime       uint32 = 98765

	// EventHeader field tags are 16 bits wide, and keep the low bits of [FieldTagEventTime].
	FieldTagEventTime16 = uint16(FieldTagEventTime & 0xffff)
)

//go:generate go run go.uber.org/mock/mockgen -destination mock_platform_test.go -package events . Platform

// Platform is the native tracing facility: it reports which (level, keyword) pairs
// have listeners, and creates encoders that write to it.
//
// Implementations must be safe for concurrent use. Encoders are not.
type Platform interface {
	// Enabled returns whether any consumer is listening for events with the level and keyword.
	//
	// It is called before any encoding work and must not allocate.
	Enabled(level Level, keyword uint64) bool
	// NewEncoder returns a new, unshared encoder that writes to the platform.
	NewEncoder() Encoder
	// Scheme is the activity ID scheme used by the platform.
	Scheme() activity.Scheme
	// Close unregisters the platform provider.
	Close() error
}

// Format is a display hint for [Encoder.AddUint8].
type Format uint8

const (
	FormatUnsigned Format = iota
	FormatBoolean
)

// Encoder writes the fields of one event at a time into a reusable buffer.
//
// Each event starts with Reset and ends with Write. Struct fields are followed
// by exactly as many member fields as the struct declares.
type Encoder interface {
	// Reset starts a new event with opcode [OpcodeInfo].
	Reset(name string, level Level, keyword uint64, tags uint32)
	SetOpcode(op Opcode)

	// AddEventTime adds the event's time as the field name.
	// If tagged, the field carries [FieldTagEventTime].
	AddEventTime(name string, t time.Time, tagged bool)
	// AddTime adds a plain timestamp field.
	AddTime(name string, t time.Time)

	AddString(name, v string)
	AddStringSlice(name string, vs []string)
	// AddJSON adds a string field holding JSON.
	AddJSON(name, v string)
	// AddBool adds a bool as either a single byte or the platform's native 32-bit bool.
	AddBool(name string, v bool, byteBool bool)
	AddBoolSlice(name string, vs []bool, byteBool bool)
	AddInt64(name string, v int64)
	AddInt64Slice(name string, vs []int64)
	AddFloat64(name string, v float64)
	AddFloat64Slice(name string, vs []float64)
	AddBytes(name string, v []byte)
	AddUint8(name string, v uint8, f Format)
	// AddSchemaVersion adds the 16-bit Common Schema version field.
	AddSchemaVersion(name string, v uint16)
	AddStruct(name string, fields uint8)

	// Write hands the finished event to the platform, with optional activity and
	// related activity IDs.
	Write(activityID, relatedID *guid.GUID) error
}
