// This package builds EventHeader events for Linux user_events tracepoints.
//
// An EventHeader event is written to a tracepoint registered with the fixed
// "u8 eventheader_flags; u8 version; u16 id; u16 tag; u8 opcode; u8 level" format,
// followed by extension blocks (activity IDs, self-describing metadata) and then the
// field data.
//
// The builder does no I/O and is usable on any platform.
//
// See https://github.com/microsoft/LinuxTracepoints/blob/main/libeventheader-tracepoint/include/eventheader/eventheader.h
package eventheader

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// Writer accepts finished events for the tracepoint matching level and keyword.
type Writer interface {
	WriteEvent(level uint8, keyword uint64, event []byte) error
}

// EventBuilder accumulates the metadata and data for a single event.
//
// The builder is reused across events via [EventBuilder.Reset], and is not safe for concurrent use.
type EventBuilder struct {
	tag    uint16
	opcode uint8

	meta  []byte // event name, then field metadata
	data  []byte
	event []byte // assembled event
}

func NewEventBuilder() *EventBuilder {
	b := &EventBuilder{
		meta:  make([]byte, 0, 256),
		data:  make([]byte, 0, 256),
		event: make([]byte, 0, 512),
	}
	b.Reset("", 0)
	return b
}

// Reset clears the builder and starts a new event.
func (b *EventBuilder) Reset(name string, tag uint16) {
	b.tag = tag
	b.opcode = OpcodeInfo
	b.meta = appendCString(b.meta[:0], name)
	b.data = b.data[:0]
}

func (b *EventBuilder) SetOpcode(op uint8) { b.opcode = op }

// Bytes assembles the event: the header, the activity ID extension (if activityID is
// not nil), the metadata extension, and the data.
//
// relatedID is ignored if activityID is nil.
// The returned slice is only valid until the next call to Bytes.
func (b *EventBuilder) Bytes(level uint8, activityID, relatedID *guid.GUID) []byte {
	flags := FlagLittleEndian | FlagExtension
	if strconv.IntSize == 64 {
		flags |= FlagPointer64
	}

	e := b.event[:0]
	e = append(e, flags, 0)                        // flags, version
	e = binary.LittleEndian.AppendUint16(e, 0)     // id
	e = binary.LittleEndian.AppendUint16(e, b.tag) // tag
	e = append(e, b.opcode, level)

	if activityID != nil {
		size := 16
		if relatedID != nil {
			size = 32
		}
		e = appendExtension(e, size, ExtensionKindActivityID|ExtensionKindChainFlag)
		a := activityID.ToArray()
		e = append(e, a[:]...)
		if relatedID != nil {
			r := relatedID.ToArray()
			e = append(e, r[:]...)
		}
	}

	e = appendExtension(e, len(b.meta), ExtensionKindMetadata)
	e = append(e, b.meta...)
	e = append(e, b.data...)
	b.event = e
	return e
}

// Write assembles the event and hands it to w.
func (b *EventBuilder) Write(w Writer, level uint8, keyword uint64, activityID, relatedID *guid.GUID) error {
	return w.WriteEvent(level, keyword, b.Bytes(level, activityID, relatedID))
}

//
// fields
//

func (b *EventBuilder) AddStruct(name string, fields uint8, tag uint16) {
	if fields > maxStructFields {
		fields = maxStructFields
	}
	b.meta = appendCString(b.meta, name)
	b.meta = append(b.meta, byte(EncodingStruct)|chainFlag)
	if tag == 0 {
		b.meta = append(b.meta, fields)
		return
	}
	b.meta = append(b.meta, fields|chainFlag)
	b.meta = binary.LittleEndian.AppendUint16(b.meta, tag)
}

func (b *EventBuilder) AddValue8(name string, v uint8, f Format, tag uint16) {
	b.field(name, EncodingValue8, f, tag)
	b.data = append(b.data, v)
}

func (b *EventBuilder) AddValue8Sequence(name string, vs []uint8, f Format, tag uint16) {
	b.field(name, EncodingValue8|encodingVArrayFlag, f, tag)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	b.data = append(b.data, vs...)
}

func (b *EventBuilder) AddValue16(name string, v uint16, f Format, tag uint16) {
	b.field(name, EncodingValue16, f, tag)
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

func (b *EventBuilder) AddValue32(name string, v uint32, f Format, tag uint16) {
	b.field(name, EncodingValue32, f, tag)
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

func (b *EventBuilder) AddValue32Sequence(name string, vs []uint32, f Format, tag uint16) {
	b.field(name, EncodingValue32|encodingVArrayFlag, f, tag)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = binary.LittleEndian.AppendUint32(b.data, v)
	}
}

func (b *EventBuilder) AddValue64(name string, v uint64, f Format, tag uint16) {
	b.field(name, EncodingValue64, f, tag)
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

func (b *EventBuilder) AddValue64Sequence(name string, vs []uint64, f Format, tag uint16) {
	b.field(name, EncodingValue64|encodingVArrayFlag, f, tag)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = binary.LittleEndian.AppendUint64(b.data, v)
	}
}

func (b *EventBuilder) AddInt64(name string, v int64, tag uint16) {
	b.AddValue64(name, uint64(v), FormatSignedInt, tag)
}

func (b *EventBuilder) AddFloat64(name string, v float64, tag uint16) {
	b.AddValue64(name, math.Float64bits(v), FormatFloat, tag)
}

// AddTime adds t as whole seconds since the unix epoch.
func (b *EventBuilder) AddTime(name string, t time.Time, tag uint16) {
	b.AddValue64(name, uint64(t.Unix()), FormatTime, tag)
}

// AddString8 adds a counted 8-bit string field.
// Strings longer than 65535 bytes are truncated.
func (b *EventBuilder) AddString8(name, v string, f Format, tag uint16) {
	b.field(name, EncodingStringLength16Char8, f, tag)
	b.data = appendCounted(b.data, v)
}

func (b *EventBuilder) AddString8Sequence(name string, vs []string, f Format, tag uint16) {
	b.field(name, EncodingStringLength16Char8|encodingVArrayFlag, f, tag)
	vs = vs[:clampCount(len(vs))]
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(vs)))
	for _, v := range vs {
		b.data = appendCounted(b.data, v)
	}
}

func (b *EventBuilder) field(name string, e Encoding, f Format, tag uint16) {
	b.meta = appendCString(b.meta, name)
	switch {
	case tag != 0:
		b.meta = append(b.meta, byte(e)|chainFlag, byte(f)|chainFlag)
		b.meta = binary.LittleEndian.AppendUint16(b.meta, tag)
	case f != FormatDefault:
		b.meta = append(b.meta, byte(e)|chainFlag, byte(f))
	default:
		b.meta = append(b.meta, byte(e))
	}
}

//
// encoding helpers
//

func appendExtension(b []byte, size int, kind ExtensionKind) []byte {
	b = binary.LittleEndian.AppendUint16(b, uint16(size))
	return binary.LittleEndian.AppendUint16(b, uint16(kind))
}

func appendCString(b []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
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
