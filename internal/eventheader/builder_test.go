package eventheader

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/google/go-cmp/cmp"
)

func wantFlags() uint8 {
	f := FlagLittleEndian | FlagExtension
	if strconv.IntSize == 64 {
		f |= FlagPointer64
	}
	return f
}

func TestEventLayout(t *testing.T) {
	b := NewEventBuilder()
	b.Reset("ev", 0x3039)
	b.SetOpcode(OpcodeActivityStart)
	b.AddValue8("b", 1, FormatBoolean, 0)
	b.AddString8("s", "ab", FormatDefault, 0)

	got := b.Bytes(4, nil, nil)
	want := []byte{
		wantFlags(), 0, // flags, version
		0, 0, // id
		0x39, 0x30, // tag
		OpcodeActivityStart, 4,
		// metadata extension
		10, 0, byte(ExtensionKindMetadata), 0,
		'e', 'v', 0,
		'b', 0, byte(EncodingValue8) | 0x80, byte(FormatBoolean),
		's', 0, byte(EncodingStringLength16Char8),
		// data
		1,
		2, 0, 'a', 'b',
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, wanted %x", got, want)
	}
}

func TestActivityExtension(t *testing.T) {
	a := guid.FromArray([16]byte{8: 1, 15: 2})
	r := guid.FromArray([16]byte{8: 3, 15: 4})

	b := NewEventBuilder()
	b.Reset("e", 0)

	for _, tc := range []struct {
		name    string
		related *guid.GUID
		size    int
	}{
		{"activity", nil, 16},
		{"related", &r, 32},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ev := b.Bytes(5, &a, tc.related)

			ext := ev[headerSize:]
			if size := int(ext[0]) | int(ext[1])<<8; size != tc.size {
				t.Fatalf("got activity extension size %d, wanted %d", size, tc.size)
			}
			if kind := ExtensionKind(ext[2]) | ExtensionKind(ext[3])<<8; kind != ExtensionKindActivityID|ExtensionKindChainFlag {
				t.Fatalf("got extension kind %#x, wanted %#x", kind, ExtensionKindActivityID|ExtensionKindChainFlag)
			}
			aa := a.ToArray()
			if !bytes.Equal(ext[4:20], aa[:]) {
				t.Fatalf("got activity ID %x, wanted %x", ext[4:20], aa)
			}

			d, err := Decode(ev)
			if err != nil {
				t.Fatal(err)
			}
			if d.ActivityID == nil || *d.ActivityID != a {
				t.Fatalf("got activity ID %v, wanted %v", d.ActivityID, a)
			}
			if (d.RelatedID == nil) != (tc.related == nil) {
				t.Fatalf("got related ID %v, wanted %v", d.RelatedID, tc.related)
			}
			if tc.related != nil && *d.RelatedID != r {
				t.Fatalf("got related ID %v, wanted %v", *d.RelatedID, r)
			}
		})
	}
}

func TestFieldTag(t *testing.T) {
	b := NewEventBuilder()
	b.Reset("e", 0)
	b.AddTime("EndTime", time.Unix(1, 0), 33229)

	ev := b.Bytes(4, nil, nil)
	wantMeta := []byte{
		'e', 0,
		'E', 'n', 'd', 'T', 'i', 'm', 'e', 0, byte(EncodingValue64) | 0x80, byte(FormatTime) | 0x80, 0xcd, 0x81,
	}
	meta := ev[headerSize+extensionSize : headerSize+extensionSize+len(wantMeta)]
	if !bytes.Equal(meta, wantMeta) {
		t.Fatalf("got metadata %x, wanted %x", meta, wantMeta)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2023, time.March, 4, 5, 6, 7, 0, time.UTC)

	b := NewEventBuilder()
	b.Reset("round trip", 12345)
	b.SetOpcode(OpcodeActivityStop)
	b.AddValue16("__csver__", 0x0401, FormatHexInt, 0)
	b.AddStruct("PartA", 2, 0)
	b.AddString8("time", "2023-03-04T05:06:07Z", FormatDefault, 0)
	b.AddStruct("ext_dt", 2, 0)
	b.AddString8("traceId", "t", FormatDefault, 0)
	b.AddString8("spanId", "s", FormatDefault, 0)
	b.AddValue8Sequence("bytes", []byte{1, 2}, FormatDefault, 0)
	b.AddValue8Sequence("bools", []byte{1, 0}, FormatBoolean, 0)
	b.AddValue32("b32", 1, FormatBoolean, 0)
	b.AddValue32Sequence("b32s", []uint32{0, 1}, FormatBoolean, 0)
	b.AddInt64("i", -3, 0)
	b.AddValue64Sequence("is", []uint64{1, 2}, FormatSignedInt, 0)
	b.AddFloat64("f", 7.1, 0)
	b.AddString8Sequence("ss", []string{"x", "y"}, FormatDefault, 0)
	b.AddString8("json", `{"a":1}`, FormatStringJSON, 0)
	b.AddTime("StartTime", ts, 33229)

	e, err := Decode(b.Bytes(5, nil, nil))
	if err != nil {
		t.Fatal(err)
	}

	want := &Event{
		Flags:  wantFlags(),
		Tag:    12345,
		Opcode: OpcodeActivityStop,
		Level:  5,
		Name:   "round trip",
		Fields: []Field{
			{Name: "__csver__", Encoding: EncodingValue16, Format: FormatHexInt, Value: uint16(0x0401)},
			{Name: "PartA", Encoding: EncodingStruct, Fields: []Field{
				{Name: "time", Encoding: EncodingStringLength16Char8, Value: "2023-03-04T05:06:07Z"},
				{Name: "ext_dt", Encoding: EncodingStruct, Fields: []Field{
					{Name: "traceId", Encoding: EncodingStringLength16Char8, Value: "t"},
					{Name: "spanId", Encoding: EncodingStringLength16Char8, Value: "s"},
				}},
			}},
			{Name: "bytes", Encoding: EncodingValue8, Array: true, Value: []uint8{1, 2}},
			{Name: "bools", Encoding: EncodingValue8, Format: FormatBoolean, Array: true, Value: []bool{true, false}},
			{Name: "b32", Encoding: EncodingValue32, Format: FormatBoolean, Value: true},
			{Name: "b32s", Encoding: EncodingValue32, Format: FormatBoolean, Array: true, Value: []bool{false, true}},
			{Name: "i", Encoding: EncodingValue64, Format: FormatSignedInt, Value: int64(-3)},
			{Name: "is", Encoding: EncodingValue64, Format: FormatSignedInt, Array: true, Value: []int64{1, 2}},
			{Name: "f", Encoding: EncodingValue64, Format: FormatFloat, Value: 7.1},
			{Name: "ss", Encoding: EncodingStringLength16Char8, Array: true, Value: []string{"x", "y"}},
			{Name: "json", Encoding: EncodingStringLength16Char8, Format: FormatStringJSON, Value: `{"a":1}`},
			{Name: "StartTime", Encoding: EncodingValue64, Format: FormatTime, Tag: 33229, Value: ts},
		},
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Fatalf("decoded event mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMalformed(t *testing.T) {
	b := NewEventBuilder()
	b.Reset("e", 0)
	b.AddInt64("i", 1, 0)
	ev := bytes.Clone(b.Bytes(4, nil, nil))

	for _, tc := range []struct {
		name string
		b    []byte
	}{
		{"header", ev[:4]},
		{"data", ev[:len(ev)-1]},
		{"trailing", append(bytes.Clone(ev), 0)},
	} {
		if _, err := Decode(tc.b); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: got error %v, wanted %v", tc.name, err, ErrMalformed)
		}
	}
}

func TestTracepointName(t *testing.T) {
	for _, tc := range []struct {
		provider, group string
		level           uint8
		keyword         uint64
		want            string
	}{
		{"MyProvider", "", 4, 1, "MyProvider_L4K1"},
		{"MyProvider", "", 5, 0x100, "MyProvider_L5K100"},
		{"My_Provider", "asdf", 2, 0xff, "My_Provider_L2KffGasdf"},
	} {
		if got := TracepointName(tc.provider, tc.level, tc.keyword, tc.group); got != tc.want {
			t.Fatalf("got %q, wanted %q", got, tc.want)
		}
	}

	want := "P_L4K1 u8 eventheader_flags; u8 version; u16 id; u16 tag; u8 opcode; u8 level"
	if got := RegistrationCommand("P_L4K1"); got != want {
		t.Fatalf("got %q, wanted %q", got, want)
	}
}

func TestValidateNames(t *testing.T) {
	for _, tc := range []struct {
		provider, group string
		want            error
	}{
		{"my_provider_name", "", nil},
		{"MyProvider1", "group1", nil},
		{"", "", ErrInvalidProviderName},
		{"my-provider", "", ErrInvalidProviderName},
		{"my provider", "", ErrInvalidProviderName},
		{"p", "Group", ErrInvalidGroupName},
		{"p", "g_1", ErrInvalidGroupName},
		{string(bytes.Repeat([]byte{'a'}, 250)), "", ErrInvalidProviderName},
	} {
		if err := ValidateNames(tc.provider, tc.group); !errors.Is(err, tc.want) {
			t.Fatalf("ValidateNames(%q, %q): got %v, wanted %v", tc.provider, tc.group, err, tc.want)
		}
	}
}
