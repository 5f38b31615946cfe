package eventheader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
)

var ErrMalformed = errors.New("malformed EventHeader event")

// Event is a decoded EventHeader event.
type Event struct {
	Flags   uint8
	Version uint8
	ID      uint16
	Tag     uint16
	Opcode  uint8
	Level   uint8

	ActivityID *guid.GUID
	RelatedID  *guid.GUID

	Name   string
	Fields []Field
}

// Field is a decoded field.
//
// Value is interpreted using the field format where it changes the Go type:
// Value64 with FormatSignedInt is an int64, with FormatFloat a float64, and with
// FormatTime a [time.Time]; Value8 and Value32 with FormatBoolean are bools.
// Other values are unsigned integers of the encoding's width, or strings.
// Sequences are slices of the element type.
// Struct fields have no Value, and instead hold their members in Fields.
type Field struct {
	Name     string
	Encoding Encoding // without array or chain flags
	Format   Format
	Tag      uint16
	Array    bool
	Value    any
	Fields   []Field
}

// Field returns the first field named n.
func (e *Event) Field(n string) (Field, bool) { return find(e.Fields, n) }

// Field returns the first struct member named n.
func (f *Field) Field(n string) (Field, bool) { return find(f.Fields, n) }

func find(fs []Field, n string) (Field, bool) {
	for _, f := range fs {
		if f.Name == n {
			return f, true
		}
	}
	return Field{}, false
}

// Decode parses an event produced by an [EventBuilder].
func Decode(b []byte) (*Event, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: header too short", ErrMalformed)
	}
	e := &Event{
		Flags:   b[0],
		Version: b[1],
		ID:      binary.LittleEndian.Uint16(b[2:]),
		Tag:     binary.LittleEndian.Uint16(b[4:]),
		Opcode:  b[6],
		Level:   b[7],
	}
	if e.Flags&FlagLittleEndian == 0 {
		return nil, fmt.Errorf("%w: big endian events are not supported", ErrMalformed)
	}
	b = b[headerSize:]

	var meta []byte
	for more := e.Flags&FlagExtension != 0; more; {
		if len(b) < extensionSize {
			return nil, fmt.Errorf("%w: extension header truncated", ErrMalformed)
		}
		size := int(binary.LittleEndian.Uint16(b))
		kind := ExtensionKind(binary.LittleEndian.Uint16(b[2:]))
		b = b[extensionSize:]
		if len(b) < size {
			return nil, fmt.Errorf("%w: extension truncated", ErrMalformed)
		}
		ext := b[:size]
		b = b[size:]
		more = kind&ExtensionKindChainFlag != 0

		switch kind & extensionKindMask {
		case ExtensionKindMetadata:
			meta = ext
		case ExtensionKindActivityID:
			if size != 16 && size != 32 {
				return nil, fmt.Errorf("%w: activity ID extension is %d bytes", ErrMalformed, size)
			}
			a := guid.FromArray([16]byte(ext[:16]))
			e.ActivityID = &a
			if size == 32 {
				r := guid.FromArray([16]byte(ext[16:32]))
				e.RelatedID = &r
			}
		}
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata extension", ErrMalformed)
	}

	d := &decoder{meta: meta, data: b}
	var err error
	if e.Name, err = d.cstring(); err != nil {
		return nil, err
	}
	if e.Fields, err = d.fields(-1); err != nil {
		return nil, err
	}
	if len(d.data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing data bytes", ErrMalformed, len(d.data))
	}
	return e, nil
}

type decoder struct {
	meta []byte
	data []byte
}

func (d *decoder) fields(n int) ([]Field, error) {
	var fs []Field
	for ; n != 0 && len(d.meta) > 0; n-- {
		f, err := d.field()
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: struct is missing %d fields", ErrMalformed, n)
	}
	return fs, nil
}

func (d *decoder) field() (f Field, err error) {
	if f.Name, err = d.cstring(); err != nil {
		return f, err
	}
	enc, err := d.metaByte()
	if err != nil {
		return f, err
	}
	f.Encoding = Encoding(enc) & encodingMask
	f.Array = enc&encodingVArrayFlag != 0
	if enc&encodingCArrayFlag != 0 {
		return f, fmt.Errorf("%w: field %q: constant length arrays are not supported", ErrMalformed, f.Name)
	}

	var format byte
	if enc&chainFlag != 0 {
		if format, err = d.metaByte(); err != nil {
			return f, err
		}
		if format&chainFlag != 0 {
			if len(d.meta) < 2 {
				return f, fmt.Errorf("%w: field tag truncated", ErrMalformed)
			}
			f.Tag = binary.LittleEndian.Uint16(d.meta)
			d.meta = d.meta[2:]
		}
	}

	if f.Encoding == EncodingStruct {
		f.Fields, err = d.fields(int(format &^ chainFlag))
		return f, err
	}
	f.Format = Format(format &^ chainFlag)

	count := 1
	if f.Array {
		c, err := d.dataBytes(2)
		if err != nil {
			return f, err
		}
		count = int(binary.LittleEndian.Uint16(c))
	}

	values := make([]any, 0, count)
	for i := 0; i < count; i++ {
		v, err := d.value(f.Encoding, f.Format)
		if err != nil {
			return f, fmt.Errorf("field %q: %w", f.Name, err)
		}
		values = append(values, v)
	}
	if !f.Array {
		f.Value = values[0]
		return f, nil
	}
	f.Value = sequence(values)
	return f, nil
}

func (d *decoder) value(e Encoding, f Format) (any, error) {
	switch e {
	case EncodingValue8:
		b, err := d.dataBytes(1)
		if err != nil {
			return nil, err
		}
		if f == FormatBoolean {
			return b[0] != 0, nil
		}
		return b[0], nil
	case EncodingValue16:
		b, err := d.dataBytes(2)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case EncodingValue32:
		b, err := d.dataBytes(4)
		if err != nil {
			return nil, err
		}
		v := binary.LittleEndian.Uint32(b)
		if f == FormatBoolean {
			return v != 0, nil
		}
		return v, nil
	case EncodingValue64:
		b, err := d.dataBytes(8)
		if err != nil {
			return nil, err
		}
		v := binary.LittleEndian.Uint64(b)
		switch f {
		case FormatSignedInt:
			return int64(v), nil
		case FormatFloat:
			return math.Float64frombits(v), nil
		case FormatTime:
			return time.Unix(int64(v), 0).UTC(), nil
		}
		return v, nil
	case EncodingStringLength16Char8:
		n, err := d.dataBytes(2)
		if err != nil {
			return nil, err
		}
		s, err := d.dataBytes(int(binary.LittleEndian.Uint16(n)))
		return string(s), err
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %d", ErrMalformed, e)
	}
}

// sequence converts decoded values into a typed slice, based on the first element.
func sequence(vs []any) any {
	if len(vs) == 0 {
		return []any{}
	}
	switch vs[0].(type) {
	case string:
		return collect[string](vs)
	case bool:
		return collect[bool](vs)
	case uint8:
		return collect[uint8](vs)
	case uint16:
		return collect[uint16](vs)
	case uint32:
		return collect[uint32](vs)
	case int64:
		return collect[int64](vs)
	case float64:
		return collect[float64](vs)
	case time.Time:
		return collect[time.Time](vs)
	default:
		return collect[uint64](vs)
	}
}

func collect[T any](vs []any) []T {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(T))
	}
	return out
}

func (d *decoder) cstring() (string, error) {
	for i, c := range d.meta {
		if c == 0 {
			s := string(d.meta[:i])
			d.meta = d.meta[i+1:]
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unterminated name", ErrMalformed)
}

func (d *decoder) metaByte() (byte, error) {
	if len(d.meta) == 0 {
		return 0, fmt.Errorf("%w: metadata truncated", ErrMalformed)
	}
	b := d.meta[0]
	d.meta = d.meta[1:]
	return b, nil
}

func (d *decoder) dataBytes(n int) ([]byte, error) {
	if len(d.data) < n {
		return nil, fmt.Errorf("%w: data truncated", ErrMalformed)
	}
	b := d.data[:n]
	d.data = d.data[n:]
	return b, nil
}
