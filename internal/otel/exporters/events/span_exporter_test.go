package events

import (
	"bytes"
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/activity"
	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

func export(t *testing.T, e tracesdk.SpanExporter, spans ...tracesdk.ReadOnlySpan) {
	t.Helper()
	if err := e.ExportSpans(context.Background(), spans); err != nil {
		t.Fatalf("export: %v", err)
	}
}

func TestSpanExporterLifecycle(t *testing.T) {
	p := &tlProvider{}
	e := newTLSpanExporter(t, p)
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		s.Attributes = []attribute.KeyValue{attribute.Int("int", 5), attribute.Float64("float", 7.1)}
	}))

	evs := p.events(t)
	if len(evs) != 2 {
		t.Fatalf("got %d events, wanted 2", len(evs))
	}
	start, stop := evs[0], evs[1]
	wantID := activity.ID(activity.SchemeSpanBytes, testSpanID)

	for _, tc := range []struct {
		e      tlEvent
		opcode uint8
		fields []string
		time   time.Time
	}{
		{start, tracelogging.OpcodeStart, []string{"otel_event_time", "StartTime", "Kind", "SpanId", "TraceId"}, testStart},
		{stop, tracelogging.OpcodeStop, []string{"otel_event_time", "EndTime", "Kind", "SpanId", "TraceId", "int", "float"}, testEnd},
	} {
		if tc.e.Name != "op" {
			t.Fatalf("got event name %q, wanted %q", tc.e.Name, "op")
		}
		if tc.e.Desc.Opcode != tc.opcode {
			t.Fatalf("got opcode %d, wanted %d", tc.e.Desc.Opcode, tc.opcode)
		}
		if tc.e.Desc.Level != uint8(LevelInformational) || tc.e.Desc.Keyword != KeywordSpan {
			t.Fatalf("got level %d keyword %#x, wanted %d and %#x", tc.e.Desc.Level, tc.e.Desc.Keyword, LevelInformational, KeywordSpan)
		}
		if tc.e.Tags != EventTagIgnoreEventTime {
			t.Fatalf("got event tags %d, wanted %d", tc.e.Tags, EventTagIgnoreEventTime)
		}
		if diff := cmp.Diff(tc.fields, tlNames(tc.e.Fields)); diff != "" {
			t.Fatalf("fields mismatch (-want +got):\n%s", diff)
		}
		if tc.e.ActivityID == nil || *tc.e.ActivityID != wantID {
			t.Fatalf("got activity ID %v, wanted %v", tc.e.ActivityID, wantID)
		}
		if tc.e.RelatedID != nil {
			t.Fatalf("got related activity ID %v, wanted none", *tc.e.RelatedID)
		}

		ft := tlField(t, tc.e.Event, "otel_event_time")
		if ft.Tags != FieldTagEventTime || ft.OutType != tracelogging.OutTypeDateTimeUTC {
			t.Fatalf("got time field tags %d and out type %d", ft.Tags, ft.OutType)
		}
		if got := ft.Value.(time.Time); !got.Equal(tc.time) {
			t.Fatalf("got time %v, wanted %v", got, tc.time)
		}
		if got := tlField(t, tc.e.Event, "Kind").Value; got != "Server" {
			t.Fatalf("got kind %v, wanted Server", got)
		}
		if got := tlField(t, tc.e.Event, "SpanId").Value; got != testSpanID.String() {
			t.Fatalf("got span ID %v, wanted %v", got, testSpanID)
		}
		if got := tlField(t, tc.e.Event, "TraceId").Value; got != testTraceID.String() {
			t.Fatalf("got trace ID %v, wanted %v", got, testTraceID)
		}
	}

	if got := tlField(t, stop.Event, "int").Value; got != int64(5) {
		t.Fatalf("got int %v, wanted 5", got)
	}
	if got := tlField(t, stop.Event, "float").Value; got != 7.1 {
		t.Fatalf("got float %v, wanted 7.1", got)
	}
}

func TestSpanExporterCommonSchemaSuccess(t *testing.T) {
	p := &tlProvider{}
	e := newTLSpanExporter(t, p, WithConfig(Config{Activities: true, CommonSchema: true}))
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		s.Attributes = []attribute.KeyValue{attribute.Int("int", 5), attribute.Float64("float", 7.1)}
	}))

	evs := p.events(t)
	if len(evs) != 3 {
		t.Fatalf("got %d events, wanted 3", len(evs))
	}
	cs := evs[2]
	if diff := cmp.Diff([]string{"__csver__", "PartA", "PartB", "PartC"}, tlNames(cs.Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if cs.ActivityID != nil {
		t.Fatalf("got activity ID %v, wanted none", *cs.ActivityID)
	}
	if cs.Tags != 0 || cs.Desc.Opcode != tracelogging.OpcodeInfo {
		t.Fatalf("got tags %d and opcode %d, wanted 0 and 0", cs.Tags, cs.Desc.Opcode)
	}
	if got := tlField(t, cs.Event, "__csver__").Value; got != uint16(0x0401) {
		t.Fatalf("got version %v, wanted 0x0401", got)
	}

	partB := tlField(t, cs.Event, "PartB")
	if diff := cmp.Diff([]string{"_typeName", "name", "kind", "startTime", "success"}, tlNames(partB.Fields)); diff != "" {
		t.Fatalf("PartB mismatch (-want +got):\n%s", diff)
	}
	if got := tlMember(t, partB, "kind").Value; got != uint8(1) {
		t.Fatalf("got kind %v, wanted 1", got)
	}
	success := tlMember(t, partB, "success")
	if success.Value != uint8(1) || success.OutType != tracelogging.OutTypeBoolean {
		t.Fatalf("got success %v (out type %d), wanted boolean 1", success.Value, success.OutType)
	}

	partC := tlField(t, cs.Event, "PartC")
	if diff := cmp.Diff([]string{"int", "float"}, tlNames(partC.Fields)); diff != "" {
		t.Fatalf("PartC mismatch (-want +got):\n%s", diff)
	}
}

func TestSpanExporterCommonSchemaError(t *testing.T) {
	p := &tlProvider{}
	e := newTLSpanExporter(t, p, WithConfig(Config{CommonSchema: true}))
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		s.Status = tracesdk.Status{Code: codes.Error, Description: "boom"}
	}))

	evs := p.events(t)
	if len(evs) != 1 {
		t.Fatalf("got %d events, wanted 1", len(evs))
	}
	cs := evs[0]
	if cs.Desc.Level != uint8(LevelError) {
		t.Fatalf("got level %d, wanted %d", cs.Desc.Level, LevelError)
	}

	partB := tlField(t, cs.Event, "PartB")
	if diff := cmp.Diff([]string{"_typeName", "name", "kind", "startTime", "success", "statusMessage"}, tlNames(partB.Fields)); diff != "" {
		t.Fatalf("PartB mismatch (-want +got):\n%s", diff)
	}
	if got := tlMember(t, partB, "success").Value; got != uint8(0) {
		t.Fatalf("got success %v, wanted 0", got)
	}
	if got := tlMember(t, partB, "statusMessage").Value; got != "boom" {
		t.Fatalf("got status message %v, wanted boom", got)
	}
	if _, ok := cs.Field("PartC"); ok {
		t.Fatal("got PartC for a span without attributes")
	}
}

// Both PartA "time" and PartB "startTime" are taken from the span end time.
func TestCommonSchemaSpanTimesUseEndTime(t *testing.T) {
	p := &tlProvider{}
	e := newTLSpanExporter(t, p, WithConfig(Config{CommonSchema: true}))
	export(t, e, newSpan(withParent))

	cs := p.events(t)[0]
	want := "2023-03-04T05:06:08.5Z"

	partA := tlField(t, cs.Event, "PartA")
	if got := tlMember(t, partA, "time").Value; got != want {
		t.Fatalf("got PartA time %v, wanted %v", got, want)
	}
	extDT := tlMember(t, partA, "ext_dt")
	if diff := cmp.Diff([]any{testTraceID.String(), testSpanID.String()},
		[]any{tlMember(t, extDT, "traceId").Value, tlMember(t, extDT, "spanId").Value}); diff != "" {
		t.Fatalf("ext_dt mismatch (-want +got):\n%s", diff)
	}

	partB := tlField(t, cs.Event, "PartB")
	if got := tlMember(t, partB, "startTime").Value; got != want {
		t.Fatalf("got PartB startTime %v, wanted %v", got, want)
	}
	if got := tlMember(t, partB, "parentId").Value; got != testParentID.String() {
		t.Fatalf("got parent ID %v, wanted %v", got, testParentID)
	}
}

func TestSpanExporterLinks(t *testing.T) {
	linked := []trace.SpanID{{7: 1}, {7: 2}, {7: 3}}
	p := &tlProvider{}
	e := newTLSpanExporter(t, p)
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		for i, sid := range linked {
			s.Links = append(s.Links, tracesdk.Link{
				SpanContext: spanContext(testTraceID, sid),
				Attributes:  []attribute.KeyValue{attribute.Int("index", i)},
			})
		}
	}))

	evs := p.events(t)
	if len(evs) != 5 {
		t.Fatalf("got %d events, wanted 5", len(evs))
	}
	start := evs[0]
	for i, l := range evs[1:4] {
		if l.Name != "op" || l.Desc.Opcode != tracelogging.OpcodeInfo {
			t.Fatalf("link %d: got name %q and opcode %d", i, l.Name, l.Desc.Opcode)
		}
		if l.Desc.Level != uint8(LevelVerbose) || l.Desc.Keyword != KeywordLink {
			t.Fatalf("link %d: got level %d keyword %#x", i, l.Desc.Level, l.Desc.Keyword)
		}
		if *l.ActivityID != *start.ActivityID {
			t.Fatalf("link %d: got activity ID %v, wanted %v", i, *l.ActivityID, *start.ActivityID)
		}
		if diff := cmp.Diff([]string{"otel_event_time", "time", "Link", "index"}, tlNames(l.Fields)); diff != "" {
			t.Fatalf("link %d: fields mismatch (-want +got):\n%s", i, diff)
		}
		if got := tlField(t, l.Event, "Link").Value; got != linked[i].String() {
			t.Fatalf("link %d: got %v, wanted %v", i, got, linked[i])
		}
		if got := tlField(t, l.Event, "index").Value; got != int64(i) {
			t.Fatalf("link %d: got index %v", i, got)
		}
	}
}

func TestSpanExporterEvents(t *testing.T) {
	evTime := testStart.Add(time.Second)
	p := &tlProvider{}
	e := newTLSpanExporter(t, p, WithConfig(Config{Activities: true, JSON: true}))
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		withParent(s)
		s.Events = []tracesdk.Event{
			{Name: "first", Time: evTime, Attributes: []attribute.KeyValue{attribute.String("k", "v")}},
			{Name: "second", Time: evTime},
		}
	}))

	evs := p.events(t)
	if len(evs) != 4 {
		t.Fatalf("got %d events, wanted 4", len(evs))
	}
	first, second := evs[1], evs[2]
	if first.Name != "first" || second.Name != "second" {
		t.Fatalf("got events %q and %q", first.Name, second.Name)
	}
	if diff := cmp.Diff([]string{"otel_event_time", "time", "SpanId", "ParentId", "TraceId", "Payload"}, tlNames(first.Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"otel_event_time", "time", "SpanId", "ParentId", "TraceId"}, tlNames(second.Fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	payload := tlField(t, first.Event, "Payload")
	if payload.Value != `{"k":"v"}` || payload.OutType != tracelogging.OutTypeJSON {
		t.Fatalf("got payload %v (out type %d)", payload.Value, payload.OutType)
	}
	if got := tlField(t, first.Event, "otel_event_time").Value.(time.Time); !got.Equal(evTime) {
		t.Fatalf("got time %v, wanted %v", got, evTime)
	}
	wantParent := activity.ID(activity.SchemeSpanBytes, testParentID)
	if first.RelatedID == nil || *first.RelatedID != wantParent {
		t.Fatalf("got related activity ID %v, wanted %v", first.RelatedID, wantParent)
	}
	if first.Desc.Level != uint8(LevelVerbose) || first.Desc.Keyword != KeywordEvent {
		t.Fatalf("got level %d keyword %#x", first.Desc.Level, first.Desc.Keyword)
	}
}

func TestSpanExporterEmptySpan(t *testing.T) {
	p := &tlProvider{}
	e := newTLSpanExporter(t, p, WithConfig(Config{Activities: true, CommonSchema: true}))
	export(t, e, newSpan(func(s *tracetest.SpanStub) { s.Status = tracesdk.Status{} }))

	evs := p.events(t)
	if len(evs) != 3 {
		t.Fatalf("got %d events, wanted 3", len(evs))
	}
	if diff := cmp.Diff([]string{"otel_event_time", "EndTime", "Kind", "SpanId", "TraceId"}, tlNames(evs[1].Fields)); diff != "" {
		t.Fatalf("stop fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"__csver__", "PartA", "PartB"}, tlNames(evs[2].Fields)); diff != "" {
		t.Fatalf("Common Schema fields mismatch (-want +got):\n%s", diff)
	}
	// unset status
	for _, ev := range evs {
		if ev.Desc.Level != uint8(LevelVerbose) {
			t.Fatalf("event %q: got level %d, wanted %d", ev.Name, ev.Desc.Level, LevelVerbose)
		}
	}
}

func TestCommonSchemaEmptyPartC(t *testing.T) {
	for _, tc := range []struct {
		json   bool
		fields []string
	}{
		{false, []string{"__csver__", "PartA", "PartB"}},
		{true, []string{"__csver__", "PartA", "PartB", "PartC"}},
	} {
		p := &tlProvider{}
		export(t, newTLSpanExporter(t, p, WithConfig(Config{CommonSchema: true, JSON: tc.json})), newSpan(nil))

		evs := p.events(t)
		if len(evs) != 1 {
			t.Fatalf("json %t: got %d events, wanted 1", tc.json, len(evs))
		}
		if diff := cmp.Diff(tc.fields, tlNames(evs[0].Fields)); diff != "" {
			t.Fatalf("json %t: fields mismatch (-want +got):\n%s", tc.json, diff)
		}
		if !tc.json {
			continue
		}
		partC := tlField(t, evs[0].Event, "PartC")
		if got := tlMember(t, partC, "Payload").Value; got != "{}" {
			t.Fatalf("got payload %v, wanted {}", got)
		}
	}
}

func TestSpanExporterRepeatable(t *testing.T) {
	span := newSpan(func(s *tracetest.SpanStub) {
		withParent(s)
		s.Attributes = []attribute.KeyValue{attribute.String("s", "v"), attribute.BoolSlice("bs", []bool{true, false})}
		s.Events = []tracesdk.Event{{Name: "ev", Time: testStart}}
		s.Links = []tracesdk.Link{{SpanContext: spanContext(testTraceID, testParentID)}}
	})

	for _, c := range []Config{
		{Activities: true, CommonSchema: true},
		{Activities: true, CommonSchema: true, JSON: true, ByteBools: true},
		{Activities: true, CommonSchema: true, SharedEncoder: true},
	} {
		p := &tlProvider{}
		e := newTLSpanExporter(t, p, WithConfig(c))
		export(t, e, span)
		n := len(p.writes)
		export(t, e, span)

		if len(p.writes) != 2*n {
			t.Fatalf("got %d writes, wanted %d", len(p.writes), 2*n)
		}
		for i := 0; i < n; i++ {
			a, b := p.writes[i], p.writes[n+i]
			if !bytes.Equal(a.meta, b.meta) || !bytes.Equal(a.data, b.data) || a.desc != b.desc {
				t.Fatalf("config %+v: write %d differs between exports", c, i)
			}
		}
	}
}

// normalize converts decoded field values into the types produced by decoding JSON.
func normalize(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case []int64:
		return anys(v, func(i int64) any { return float64(i) })
	case []float64:
		return anys(v, func(f float64) any { return f })
	case []string:
		return anys(v, func(s string) any { return s })
	case []bool:
		return anys(v, func(b bool) any { return b })
	}
	return v
}

func anys[T any](vs []T, f func(T) any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = f(v)
	}
	return out
}

func TestFieldAndJSONModesAgree(t *testing.T) {
	attrs := []attribute.KeyValue{
		attribute.String("s", "v"),
		attribute.Int("i", 3),
		attribute.Float64("f", 1.5),
		attribute.Bool("b", true),
		attribute.StringSlice("ss", []string{"a", "b"}),
		attribute.Int64Slice("is", []int64{1, -2}),
		attribute.BoolSlice("bs", []bool{false, true}),
	}
	span := newSpan(func(s *tracetest.SpanStub) { s.Attributes = attrs })

	fieldsP := &tlProvider{}
	export(t, newTLSpanExporter(t, fieldsP), span)
	stop := fieldsP.events(t)[1]
	fromFields := make(map[string]any)
	for _, f := range stop.Fields[5:] {
		fromFields[f.Name] = normalize(f.Value)
	}

	jsonP := &tlProvider{}
	export(t, newTLSpanExporter(t, jsonP, WithConfig(Config{Activities: true, JSON: true})), span)
	stop = jsonP.events(t)[1]
	fromJSON := make(map[string]any)
	s := tlField(t, stop.Event, "Payload").Value.(string)
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(s, &fromJSON); err != nil {
		t.Fatalf("unmarshal payload %q: %v", s, err)
	}

	if diff := cmp.Diff(fromFields, fromJSON); diff != "" {
		t.Fatalf("field and JSON attributes differ (-fields +json):\n%s", diff)
	}
}

func TestBoolRepresentation(t *testing.T) {
	span := newSpan(func(s *tracetest.SpanStub) {
		s.Attributes = []attribute.KeyValue{attribute.Bool("flag", true)}
	})

	t.Run("TraceLogging", func(t *testing.T) {
		for _, tc := range []struct {
			byteBool bool
			in       tracelogging.InType
		}{
			{true, tracelogging.InTypeUint8},
			{false, tracelogging.InTypeBool32},
		} {
			p := &tlProvider{}
			export(t, newTLSpanExporter(t, p, WithConfig(Config{Activities: true, ByteBools: tc.byteBool})), span)
			f := tlField(t, p.events(t)[1].Event, "flag")
			if f.InType != tc.in {
				t.Fatalf("byte bools %t: got in type %d, wanted %d", tc.byteBool, f.InType, tc.in)
			}
			var got bool
			switch v := f.Value.(type) {
			case uint8:
				got = v != 0
				if f.OutType != tracelogging.OutTypeBoolean {
					t.Fatalf("got out type %d for a byte bool", f.OutType)
				}
			case bool:
				got = v
			}
			if !got {
				t.Fatalf("byte bools %t: got %v, wanted true", tc.byteBool, f.Value)
			}
		}
	})

	t.Run("EventHeader", func(t *testing.T) {
		for _, tc := range []struct {
			byteBool bool
			enc      eventheader.Encoding
		}{
			{true, eventheader.EncodingValue8},
			{false, eventheader.EncodingValue32},
		} {
			p := &ehProvider{}
			e, err := NewSpanExporter(DefaultKeywords(), NewEventHeader(p), WithConfig(Config{Activities: true, ByteBools: tc.byteBool}))
			if err != nil {
				t.Fatal(err)
			}
			export(t, e, span)
			f := ehField(t, p.events(t)[1].Event, "flag")
			if f.Encoding != tc.enc || f.Format != eventheader.FormatBoolean {
				t.Fatalf("byte bools %t: got encoding %d format %d", tc.byteBool, f.Encoding, f.Format)
			}
			if f.Value != true {
				t.Fatalf("byte bools %t: got %v, wanted true", tc.byteBool, f.Value)
			}
		}
	})
}

func TestSpanExporterEventHeader(t *testing.T) {
	p := &ehProvider{}
	e, err := NewSpanExporter(DefaultKeywords(), NewEventHeader(p), WithConfig(Config{Activities: true, CommonSchema: true}))
	if err != nil {
		t.Fatal(err)
	}
	export(t, e, newSpan(func(s *tracetest.SpanStub) {
		withParent(s)
		s.Attributes = []attribute.KeyValue{attribute.Int("int", 5)}
	}))

	evs := p.events(t)
	if len(evs) != 3 {
		t.Fatalf("got %d events, wanted 3", len(evs))
	}
	start, stop, cs := evs[0], evs[1], evs[2]

	wantID := activity.ID(activity.SchemeNameHash, testSpanID)
	wantParent := activity.ID(activity.SchemeNameHash, testParentID)
	for _, ev := range []ehEvent{start, stop} {
		if ev.ActivityID == nil || *ev.ActivityID != wantID {
			t.Fatalf("got activity ID %v, wanted %v", ev.ActivityID, wantID)
		}
		if ev.RelatedID == nil || *ev.RelatedID != wantParent {
			t.Fatalf("got related activity ID %v, wanted %v", ev.RelatedID, wantParent)
		}
		if ev.Tag != uint16(EventTagIgnoreEventTime) || ev.Level != uint8(LevelInformational) || ev.Keyword != KeywordSpan {
			t.Fatalf("got tag %d level %d keyword %#x", ev.Tag, ev.Level, ev.Keyword)
		}
	}
	if start.Opcode != eventheader.OpcodeActivityStart || stop.Opcode != eventheader.OpcodeActivityStop {
		t.Fatalf("got opcodes %d and %d", start.Opcode, stop.Opcode)
	}

	if diff := cmp.Diff([]string{"StartTime", "Kind", "SpanId", "ParentId", "TraceId"}, ehNames(start.Fields)); diff != "" {
		t.Fatalf("start fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"EndTime", "Kind", "SpanId", "ParentId", "TraceId", "int"}, ehNames(stop.Fields)); diff != "" {
		t.Fatalf("stop fields mismatch (-want +got):\n%s", diff)
	}
	end := ehField(t, stop.Event, "EndTime")
	if end.Format != eventheader.FormatTime || end.Tag != FieldTagEventTime16 {
		t.Fatalf("got end time format %d and tag %d", end.Format, end.Tag)
	}
	if got := end.Value.(time.Time); !got.Equal(testEnd.Truncate(time.Second)) {
		t.Fatalf("got end time %v, wanted %v", got, testEnd.Truncate(time.Second))
	}

	if cs.ActivityID != nil || cs.Opcode != eventheader.OpcodeInfo {
		t.Fatalf("got Common Schema activity ID %v and opcode %d", cs.ActivityID, cs.Opcode)
	}
	if diff := cmp.Diff([]string{"__csver__", "PartA", "PartB", "PartC"}, ehNames(cs.Fields)); diff != "" {
		t.Fatalf("Common Schema fields mismatch (-want +got):\n%s", diff)
	}
	partB := ehField(t, cs.Event, "PartB")
	if diff := cmp.Diff([]string{"_typeName", "parentId", "name", "kind", "startTime", "success"}, ehNames(partB.Fields)); diff != "" {
		t.Fatalf("PartB mismatch (-want +got):\n%s", diff)
	}
	if success, _ := partB.Field("success"); success.Value != true {
		t.Fatalf("got success %v, wanted true", success.Value)
	}
}

func TestEventHeaderEventTimeTag(t *testing.T) {
	// the 16-bit field tag keeps the low bits of the TraceLogging field tag
	if FieldTagEventTime16 != 33229 {
		t.Fatalf("got field tag %d, wanted 33229", FieldTagEventTime16)
	}

	p := &ehProvider{}
	e, err := NewSpanExporter(DefaultKeywords(), NewEventHeader(p))
	if err != nil {
		t.Fatal(err)
	}
	export(t, e, newSpan(nil))
	evs := p.events(t)
	if len(evs) != 2 {
		t.Fatalf("got %d events, wanted 2", len(evs))
	}
	for i, name := range []string{"StartTime", "EndTime"} {
		if got := ehField(t, evs[i].Event, name).Tag; got != 33229 {
			t.Fatalf("got %s tag %d, wanted 33229", name, got)
		}
	}
}

func TestSpanExporterWriteErrors(t *testing.T) {
	var handled []error
	prev := otel.GetErrorHandler()
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) { handled = append(handled, err) }))
	t.Cleanup(func() { otel.SetErrorHandler(prev) })

	code := syscall.Errno(8)
	p := &tlProvider{err: &ExportError{Code: code}}
	e := newTLSpanExporter(t, p, WithConfig(Config{Activities: true, CommonSchema: true}))

	span := newSpan(func(s *tracetest.SpanStub) {
		s.Events = []tracesdk.Event{{Name: "ev", Time: testStart}}
		s.Links = []tracesdk.Link{{SpanContext: spanContext(testTraceID, testParentID)}}
	})
	// a failed span does not stop the batch
	export(t, e, span, span)

	// the failed start event skips the remaining lifecycle events, but not the Common Schema event
	if len(p.writes) != 4 {
		t.Fatalf("got %d write attempts, wanted 4", len(p.writes))
	}
	if len(handled) != 2 {
		t.Fatalf("got %d handled errors, wanted 2", len(handled))
	}
	for _, err := range handled {
		if !errors.Is(err, ErrExportFailed) || !errors.Is(err, code) {
			t.Fatalf("got error %v, wanted %v and %v", err, ErrExportFailed, code)
		}
	}
}

func TestSpanExporterShutdown(t *testing.T) {
	p := &tlProvider{}
	platform := NewTraceLogging(p)
	platform.Retain()

	a, err := NewSpanExporter(DefaultKeywords(), platform, WithClosePlatform())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSpanExporter(DefaultKeywords(), platform, WithClosePlatform())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if p.closed != 0 {
		t.Fatalf("provider closed while still referenced")
	}

	export(t, a, newSpan(nil))
	if len(p.writes) != 0 {
		t.Fatalf("got %d writes after shutdown", len(p.writes))
	}
	export(t, b, newSpan(nil))
	if len(p.writes) != 2 {
		t.Fatalf("got %d writes, wanted 2", len(p.writes))
	}

	if err := b.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if p.closed != 1 {
		t.Fatalf("got provider closed %d times, wanted 1", p.closed)
	}
}

func TestNewSpanExporterInvalidConfig(t *testing.T) {
	_, err := NewSpanExporter(DefaultKeywords(), NewTraceLogging(&tlProvider{}), WithConfig(Config{JSON: true}))
	if !errors.Is(err, ErrConfigurationInvalid) {
		t.Fatalf("got error %v, wanted %v", err, ErrConfigurationInvalid)
	}
}
