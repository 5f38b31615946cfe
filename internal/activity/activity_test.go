package activity

import (
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/option"
)

var (
	spanID   = trace.SpanID{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	parentID = trace.SpanID{0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10}
	traceID  = trace.TraceID{0x0f, 0x1e, 0x2d, 0x3c, 0x4b, 0x5a, 0x69, 0x78, 0x87, 0x96, 0xa5, 0xb4, 0xc3, 0xd2, 0xe1, 0xf0}
)

func TestSpanBytesLayout(t *testing.T) {
	g := ID(SchemeSpanBytes, spanID)
	b := g.ToArray()

	for i := 0; i < 8; i++ {
		if b[i] != 0 {
			t.Fatalf("byte %d: got %#x, wanted 0", i, b[i])
		}
	}
	if got := trace.SpanID(b[8:]); got != spanID {
		t.Fatalf("got span ID %v, wanted %v", got, spanID)
	}
	if s, want := g.String(), "00000000-0000-0000-0123-456789abcdef"; s != want {
		t.Fatalf("got %s, wanted %s", s, want)
	}
}

func TestNameHash(t *testing.T) {
	g := ID(SchemeNameHash, spanID)
	u := uuid.UUID(g.ToArray())

	if v := u.Version(); v != 5 {
		t.Fatalf("got UUID version %d, wanted 5", v)
	}
	if want := uuid.NewSHA1(Namespace, []byte("0123456789abcdef")); u != want {
		t.Fatalf("got %v, wanted %v", u, want)
	}
	if other := ID(SchemeNameHash, parentID); other == g {
		t.Fatalf("different span IDs produced the same activity ID %v", g)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	for _, s := range []Scheme{SchemeSpanBytes, SchemeNameHash} {
		t.Run(s.String(), func(t *testing.T) {
			a := Derive(s, spanID, parentID, traceID)
			b := Derive(s, spanID, parentID, traceID)
			if a.ActivityID != b.ActivityID {
				t.Fatalf("got %v and %v for the same span", a.ActivityID, b.ActivityID)
			}
			if *a.ParentActivityID != *b.ParentActivityID {
				t.Fatalf("got parents %v and %v for the same span", *a.ParentActivityID, *b.ParentActivityID)
			}
			if *a.ParentActivityID != ID(s, parentID) {
				t.Fatalf("got parent %v, wanted %v", *a.ParentActivityID, ID(s, parentID))
			}
		})
	}
}

func TestDeriveParent(t *testing.T) {
	id := Derive(SchemeSpanBytes, spanID, trace.SpanID{}, traceID)
	if id.HasParent() || option.IsSome(id.ParentActivityID) {
		t.Fatalf("got parent activity ID %v for invalid parent span ID", *id.ParentActivityID)
	}
	if id.ParentSpanID != "" {
		t.Fatalf("got parent span ID %q, wanted empty", id.ParentSpanID)
	}

	id = Derive(SchemeSpanBytes, spanID, parentID, traceID)
	if !id.HasParent() {
		t.Fatal("got no parent activity ID for valid parent span ID")
	}
	if id.ParentSpanID != "fedcba9876543210" {
		t.Fatalf("got parent span ID %q, wanted %q", id.ParentSpanID, "fedcba9876543210")
	}
}

func TestDeriveHex(t *testing.T) {
	id := Derive(SchemeSpanBytes, trace.SpanID{7: 1}, trace.SpanID{}, trace.TraceID{15: 2})

	for _, tc := range []struct {
		got, want string
	}{
		{id.SpanID, "0000000000000001"},
		{id.TraceID, "00000000000000000000000000000002"},
	} {
		if tc.got != tc.want {
			t.Fatalf("got %q, wanted %q", tc.got, tc.want)
		}
	}
}
