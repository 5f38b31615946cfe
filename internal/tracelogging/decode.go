package tracelogging

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrMalformed = errors.New("malformed TraceLogging event")

// Event is a decoded TraceLogging event.
type Event struct {
	Name   string
	Tags   uint32
	Fields []Field
}

// Field is a decoded field.
//
// Value holds a Go value matching the InType: string, uint8, uint16, int64, float64,
// bool, or [time.Time], or a slice of those for sequences.
// Struct fields have no Value, and instead hold their members in Fields.
type Field struct {
	Name    string
	InType  InType // without count or chain flags
	OutType OutType
	Tags    uint32
	Array   bool
	Value   any
	Fields  []Field
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

// Decode parses event metadata and data produced by an [EventBuilder].
func Decode(meta, data []byte) (*Event, error) {
	if len(meta) < 2 {
		return nil, fmt.Errorf("%w: metadata too short", ErrMalformed)
	}
	if n := int(binary.LittleEndian.Uint16(meta)); n != len(meta) {
		return nil, fmt.Errorf("%w: metadata size %d does not match buffer size %d", ErrMalformed, n, len(meta))
	}

	d := &decoder{meta: meta[2:], data: data}
	e := &Event{}
	var err error
	if e.Tags, err = d.tags(); err != nil {
		return nil, err
	}
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

// fields reads n fields, or until the metadata is exhausted if n < 0.
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
	in, err := d.metaByte()
	if err != nil {
		return f, err
	}
	f.InType = InType(in) & inTypeMask
	f.Array = in&flagVariableCount != 0
	if in&flagConstantCount != 0 {
		return f, fmt.Errorf("%w: field %q: constant count arrays are not supported", ErrMalformed, f.Name)
	}

	var out byte
	if in&flagChain != 0 {
		if out, err = d.metaByte(); err != nil {
			return f, err
		}
		if out&flagChain != 0 {
			if f.Tags, err = d.tags(); err != nil {
				return f, err
			}
		}
	}

	if f.InType == InTypeStruct {
		f.Fields, err = d.fields(int(out &^ flagChain))
		return f, err
	}
	f.OutType = OutType(out &^ flagChain)

	count := 1
	if f.Array {
		c, err := d.u16()
		if err != nil {
			return f, err
		}
		count = int(c)
	}

	values := make([]any, 0, count)
	for i := 0; i < count; i++ {
		v, err := d.value(f.InType)
		if err != nil {
			return f, fmt.Errorf("field %q: %w", f.Name, err)
		}
		values = append(values, v)
	}

	if !f.Array {
		f.Value = values[0]
		return f, nil
	}
	f.Value = sequence(f.InType, values)
	return f, nil
}

func (d *decoder) value(t InType) (any, error) {
	switch t {
	case InTypeStr8:
		n, err := d.u16()
		if err != nil {
			return nil, err
		}
		b, err := d.dataBytes(int(n))
		return string(b), err
	case InTypeUint8:
		b, err := d.dataBytes(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case InTypeUint16:
		return d.u16()
	case InTypeInt64:
		b, err := d.dataBytes(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case InTypeFloat64:
		b, err := d.dataBytes(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case InTypeBool32:
		b, err := d.dataBytes(4)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(b) != 0, nil
	case InTypeFileTime:
		b, err := d.dataBytes(8)
		if err != nil {
			return nil, err
		}
		return FromFileTime(int64(binary.LittleEndian.Uint64(b))), nil
	case InTypeSystemTime:
		b, err := d.dataBytes(16)
		if err != nil {
			return nil, err
		}
		w := func(i int) int { return int(binary.LittleEndian.Uint16(b[2*i:])) }
		return time.Date(w(0), time.Month(w(1)), w(3), w(4), w(5), w(6), w(7)*int(time.Millisecond), time.UTC), nil
	default:
		return nil, fmt.Errorf("%w: unsupported InType %d", ErrMalformed, t)
	}
}

func sequence(t InType, vs []any) any {
	switch t {
	case InTypeStr8:
		return collect[string](vs)
	case InTypeUint8:
		return collect[uint8](vs)
	case InTypeUint16:
		return collect[uint16](vs)
	case InTypeInt64:
		return collect[int64](vs)
	case InTypeFloat64:
		return collect[float64](vs)
	case InTypeBool32:
		return collect[bool](vs)
	default:
		return collect[time.Time](vs)
	}
}

func collect[T any](vs []any) []T {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(T))
	}
	return out
}

func (d *decoder) tags() (uint32, error) {
	var tags uint32
	for shift := 21; ; shift -= 7 {
		b, err := d.metaByte()
		if err != nil {
			return 0, err
		}
		if shift < 0 {
			return 0, fmt.Errorf("%w: tags longer than 28 bits", ErrMalformed)
		}
		tags |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return tags, nil
		}
	}
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

func (d *decoder) u16() (uint16, error) {
	b, err := d.dataBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) dataBytes(n int) ([]byte, error) {
	if len(d.data) < n {
		return nil, fmt.Errorf("%w: data truncated", ErrMalformed)
	}
	b := d.data[:n]
	d.data = d.data[n:]
	return b, nil
}
