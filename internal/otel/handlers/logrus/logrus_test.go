package logrus

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

func TestHandler(t *testing.T) {
	l, hook := test.NewNullLogger()
	h := New(
		WithEntry(logrus.NewEntry(l)),
		WithLevel(logrus.WarnLevel),
		WithExtra(logrus.Fields{"app": "test"}),
		WithResource(resource.NewSchemaless(semconv.ServiceName("svc"))),
	)

	err := fmt.Errorf("export span: %w", events.NewExportError(syscall.Errno(8)))
	h.Handle(err)

	e := hook.LastEntry()
	if e == nil {
		t.Fatal("no entry logged")
	}
	if e.Level != logrus.WarnLevel {
		t.Fatalf("got level %v, wanted %v", e.Level, logrus.WarnLevel)
	}
	if got := e.Data[logrus.ErrorKey]; !errors.Is(got.(error), events.ErrExportFailed) {
		t.Fatalf("got error %v", got)
	}
	if got := e.Data["code"]; got != uint32(8) {
		t.Fatalf("got code %v, wanted 8", got)
	}
	if got := e.Data["app"]; got != "test" {
		t.Fatalf("got app %v, wanted test", got)
	}
	if got := e.Data["otel.resource"]; got != `{"service.name":"svc"}` {
		t.Fatalf("got resource %v", got)
	}

	h.Handle(errors.New("other"))
	if _, ok := hook.LastEntry().Data["code"]; ok {
		t.Fatal("got code for a non-export error")
	}
}
