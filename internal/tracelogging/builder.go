// This package builds TraceLogging (self-describing ETW) events.
//
// An event is a pair of buffers: the metadata, which describes the event name and the
// name and type of each field, and the data, which holds the field values in the order
// they were added.
// Both are handed to ETW as separate data descriptors by the provider.
//
// The builder does no I/O and is usable on any platform.
//
// See:
//   - https://learn.microsoft.com/en-us/windows/win32/tracelogging/trace-logging-about
//   - TraceLoggingProvider.h in the Windows SDK
package tracelogging

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// Writer accepts finished TraceLogging events.
type Writer interface {
	WriteEvent(desc *EventDescriptor, activityID, relatedID *guid.GUID, meta, data []byte) error
}

// EventBuilder accumulates the metadata and data for a single event.
//
// The builder is reused across events via [EventBuilder.Reset], and is not safe for concurrent use.
type EventBuilder struct {
	desc EventDescriptor
	meta []byte
	data []byte
}

func NewEventBuilder() *EventBuilder {
	b := &EventBuilder{
		meta: make([]byte, 0, 256),
		data: make([]byte, 0, 256),
	}
	b.Reset("", 0, 0, 0)
	return b
}

// Reset clears the builder and starts a new event.
//
// tags are the (28 bit) event tags.
func (b *EventBuilder) Reset(name string, level uint8, keyword uint64, tags uint32) {
	b.desc = EventDescriptor{
		Channel: ChannelTraceLogging,
		Level:   level,
		Keyword: keyword,
	}
	b.meta = append(b.meta[:0], 0, 0) // size, filled in by Metadata
	b.meta = appendTags(b.meta, tags)
	b.meta = appendCString(b.meta, name)
	b.data = b.data[:0]
}

func (b *EventBuilder) SetOpcode(op uint8) { b.desc.Opcode = op }

func (b *EventBuilder) Descriptor() EventDescriptor { return b.desc }

// Metadata returns the event metadata, with its size prefix set.
//
// The returned slice is only valid until the next call to [EventBuilder.Reset].
func (b *EventBuilder) Metadata() []byte {
	binary.LittleEndian.PutUint16(b.meta, uint16(len(b.meta)))
	return b.meta
}

// Data returns the event payload.
//
// The returned slice is only valid until the next call to [EventBuilder.Reset].
func (b *EventBuilder) Data() []byte { return b.data }

// Write hands the event to w.
func (b *EventBuilder) Write(w Writer, activityID, relatedID *guid.GUID) error {
	d := b.desc
	return w.WriteEvent(&d, activityID, relatedID, b.Metadata(), b.data)
}

//
// fields
//

func (b *EventBuilder) AddStruct(name string, fields uint8, tags uint32) {
	if fields > maxStructFields {
		fields = maxStructFields
	}
	b.meta = appendCString(b.meta, name)
	b.meta = append(b.meta, byte(InTypeStruct)|flagChain)
	if tags == 0 {
		b.meta = append(b.meta, fields)
		return
	}
	b.meta = append(b.meta, fields|flagChain)
	b.meta = appendTags(b.meta, tags)
}

// AddStr8 adds a counted 8-bit string field.
// Strings longer than 65535 bytes are truncated.
func (b *EventBuilder) AddStr8(name, v string, out OutType, tags uint32) {
	b.field(name, InTypeStr8, out, tags)
	b.data = appendCounted(b.data, v)
}

func (b *EventBuilder) AddStr8Sequence(name string, vs []string, out OutType, tags uint32) {
	b.field(name, InTypeStr8|flagVariableCount, out, tags)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = appendCounted(b.data, v)
	}
}

func (b *EventBuilder) AddU8(name string, v uint8, out OutType, tags uint32) {
	b.field(name, InTypeUint8, out, tags)
	b.data = append(b.data, v)
}

func (b *EventBuilder) AddU8Sequence(name string, vs []uint8, out OutType, tags uint32) {
	b.field(name, InTypeUint8|flagVariableCount, out, tags)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	b.data = append(b.data, vs...)
}

func (b *EventBuilder) AddU16(name string, v uint16, out OutType, tags uint32) {
	b.field(name, InTypeUint16, out, tags)
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

func (b *EventBuilder) AddI64(name string, v int64, out OutType, tags uint32) {
	b.field(name, InTypeInt64, out, tags)
	b.data = binary.LittleEndian.AppendUint64(b.data, uint64(v))
}

func (b *EventBuilder) AddI64Sequence(name string, vs []int64, out OutType, tags uint32) {
	b.field(name, InTypeInt64|flagVariableCount, out, tags)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = binary.LittleEndian.AppendUint64(b.data, uint64(v))
	}
}

func (b *EventBuilder) AddF64(name string, v float64, out OutType, tags uint32) {
	b.field(name, InTypeFloat64, out, tags)
	b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(v))
}

func (b *EventBuilder) AddF64Sequence(name string, vs []float64, out OutType, tags uint32) {
	b.field(name, InTypeFloat64|flagVariableCount, out, tags)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(v))
	}
}

// AddBool32 adds a 4 byte (win:Boolean) field.
func (b *EventBuilder) AddBool32(name string, v bool, out OutType, tags uint32) {
	b.field(name, InTypeBool32, out, tags)
	b.data = binary.LittleEndian.AppendUint32(b.data, bool32(v))
}

func (b *EventBuilder) AddBool32Sequence(name string, vs []bool, out OutType, tags uint32) {
	b.field(name, InTypeBool32|flagVariableCount, out, tags)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = binary.LittleEndian.AppendUint32(b.data, bool32(v))
	}
}

// AddFileTime adds t as a FILETIME: 100ns intervals since 1601-01-01 UTC.
func (b *EventBuilder) AddFileTime(name string, t time.Time, out OutType, tags uint32) {
	b.field(name, InTypeFileTime, out, tags)
	b.data = binary.LittleEndian.AppendUint64(b.data, uint64(ToFileTime(t)))
}

// AddSystemTime adds t (in UTC) as a SYSTEMTIME, with millisecond precision.
func (b *EventBuilder) AddSystemTime(name string, t time.Time, out OutType, tags uint32) {
	b.field(name, InTypeSystemTime, out, tags)
	t = t.UTC()
	for _, v := range [8]int{
		t.Year(),
		int(t.Month()),
		int(t.Weekday()),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
		t.Nanosecond() / int(time.Millisecond),
	} {
		b.data = binary.LittleEndian.AppendUint16(b.data, uint16(v))
	}
}

func (b *EventBuilder) field(name string, in InType, out OutType, tags uint32) {
	b.meta = appendCString(b.meta, name)
	switch {
	case tags != 0:
		b.meta = append(b.meta, byte(in)|flagChain, byte(out)|flagChain)
		b.meta = appendTags(b.meta, tags)
	case out != OutTypeDefault:
		b.meta = append(b.meta, byte(in)|flagChain, byte(out))
	default:
		b.meta = append(b.meta, byte(in))
	}
}

//
// encoding helpers
//

// unix epoch, as a FILETIME
const fileTimeEpoch = 116_444_736_000_000_000

func ToFileTime(t time.Time) int64 {
	return t.UnixNano()/100 + fileTimeEpoch
}

func FromFileTime(ft int64) time.Time {
	return time.Unix(0, (ft-fileTimeEpoch)*100).UTC()
}

// appendTags appends the 28 bit tags value 7 bits at a time, most significant first,
// setting the high bit on every byte but the last.
// No tags is encoded as a single zero byte.
func appendTags(b []byte, tags uint32) []byte {
	tags &= maxTags
	for {
		v := byte(tags >> 21)
		if tags&0x1f_ffff == 0 {
			return append(b, v&0x7f)
		}
		b = append(b, v|0x80)
		tags <<= 7
	}
}

func appendCString(b []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		// embedded nuls would terminate the name early
		if s[i] == 0 {
			s = s[:i]
			break
		}
	}
	b = append(b, s...)
	return append(b, 0)
}

func appendCounted(b []byte, s string) []byte {
	s = s[:clampCount(len(s))]
	b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func clampCount(n int) int {
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return n
}

func bool32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
