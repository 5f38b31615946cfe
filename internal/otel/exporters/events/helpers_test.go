package events

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

var (
	testTraceID  = trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	testSpanID   = trace.SpanID{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	testParentID = trace.SpanID{0x0f, 0xed, 0xcb, 0xa9, 0x87, 0x65, 0x43, 0x21}

	testStart = time.Date(2023, time.March, 4, 5, 6, 7, 0, time.UTC)
	testEnd   = testStart.Add(1500 * time.Millisecond)
)

func spanContext(tid trace.TraceID, sid trace.SpanID) trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
}

// newSpan returns a completed Ok server span without a parent, modified by f.
func newSpan(f func(*tracetest.SpanStub)) tracesdk.ReadOnlySpan {
	s := tracetest.SpanStub{
		Name:        "op",
		SpanContext: spanContext(testTraceID, testSpanID),
		SpanKind:    trace.SpanKindServer,
		StartTime:   testStart,
		EndTime:     testEnd,
		Status:      tracesdk.Status{Code: codes.Ok},
	}
	if f != nil {
		f(&s)
	}
	return s.Snapshot()
}

func withParent(s *tracetest.SpanStub) {
	s.Parent = spanContext(testTraceID, testParentID)
}

//
// TraceLogging
//

type tlWrite struct {
	desc       tracelogging.EventDescriptor
	activityID *guid.GUID
	relatedID  *guid.GUID
	meta, data []byte
}

// tlProvider records TraceLogging events.
type tlProvider struct {
	// enabled is consulted by Enabled; nil enables everything
	enabled func(level uint8, keyword uint64) bool
	// err is returned from every write
	err error

	mu     sync.Mutex
	writes []tlWrite
	closed int
}

var _ TraceLoggingProvider = (*tlProvider)(nil)

func (p *tlProvider) Enabled(level uint8, keyword uint64) bool {
	if p.enabled == nil {
		return true
	}
	return p.enabled(level, keyword)
}

func (p *tlProvider) WriteEvent(desc *tracelogging.EventDescriptor, activityID, relatedID *guid.GUID, meta, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, tlWrite{
		desc:       *desc,
		activityID: cloneGUID(activityID),
		relatedID:  cloneGUID(relatedID),
		meta:       bytes.Clone(meta),
		data:       bytes.Clone(data),
	})
	return p.err
}

func (p *tlProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// tlEvent is a decoded TraceLogging write.
type tlEvent struct {
	*tracelogging.Event
	Desc       tracelogging.EventDescriptor
	ActivityID *guid.GUID
	RelatedID  *guid.GUID
}

func (p *tlProvider) events(t *testing.T) []tlEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	evs := make([]tlEvent, 0, len(p.writes))
	for i, w := range p.writes {
		e, err := tracelogging.Decode(w.meta, w.data)
		if err != nil {
			t.Fatalf("decode event %d: %v", i, err)
		}
		evs = append(evs, tlEvent{
			Event:      e,
			Desc:       w.desc,
			ActivityID: w.activityID,
			RelatedID:  w.relatedID,
		})
	}
	return evs
}

func tlNames(fs []tracelogging.Field) []string {
	ns := make([]string, 0, len(fs))
	for _, f := range fs {
		ns = append(ns, f.Name)
	}
	return ns
}

func tlField(t *testing.T, e *tracelogging.Event, name string) tracelogging.Field {
	t.Helper()
	f, ok := e.Field(name)
	if !ok {
		t.Fatalf("event %q has no field %q: %v", e.Name, name, tlNames(e.Fields))
	}
	return f
}

func tlMember(t *testing.T, s tracelogging.Field, name string) tracelogging.Field {
	t.Helper()
	f, ok := s.Field(name)
	if !ok {
		t.Fatalf("struct %q has no field %q: %v", s.Name, name, tlNames(s.Fields))
	}
	return f
}

func newTLSpanExporter(t *testing.T, p *tlProvider, opts ...Option) *SpanExporter[Keywords, *TraceLogging] {
	t.Helper()
	e, err := NewSpanExporter(DefaultKeywords(), NewTraceLogging(p), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

//
// EventHeader
//

type ehWrite struct {
	level   uint8
	keyword uint64
	event   []byte
}

// ehProvider records EventHeader events.
type ehProvider struct {
	enabled func(level uint8, keyword uint64) bool
	err     error

	mu     sync.Mutex
	writes []ehWrite
	closed int
}

var _ EventHeaderProvider = (*ehProvider)(nil)

func (p *ehProvider) Enabled(level uint8, keyword uint64) bool {
	if p.enabled == nil {
		return true
	}
	return p.enabled(level, keyword)
}

func (p *ehProvider) WriteEvent(level uint8, keyword uint64, event []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, ehWrite{level: level, keyword: keyword, event: bytes.Clone(event)})
	return p.err
}

func (p *ehProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

type ehEvent struct {
	*eventheader.Event
	Keyword uint64
}

func (p *ehProvider) events(t *testing.T) []ehEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	evs := make([]ehEvent, 0, len(p.writes))
	for i, w := range p.writes {
		e, err := eventheader.Decode(w.event)
		if err != nil {
			t.Fatalf("decode event %d: %v", i, err)
		}
		if e.Level != w.level {
			t.Fatalf("event %d: header level %d does not match write level %d", i, e.Level, w.level)
		}
		evs = append(evs, ehEvent{Event: e, Keyword: w.keyword})
	}
	return evs
}

func ehNames(fs []eventheader.Field) []string {
	ns := make([]string, 0, len(fs))
	for _, f := range fs {
		ns = append(ns, f.Name)
	}
	return ns
}

func ehField(t *testing.T, e *eventheader.Event, name string) eventheader.Field {
	t.Helper()
	f, ok := e.Field(name)
	if !ok {
		t.Fatalf("event %q has no field %q: %v", e.Name, name, ehNames(e.Fields))
	}
	return f
}

func cloneGUID(g *guid.GUID) *guid.GUID {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}
