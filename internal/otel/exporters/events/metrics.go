package events

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"

	"github.com/Microsoft/go-otel-etw/internal/otel/metric"
)

// eventClass labels the self-telemetry counters.
type eventClass uint8

const (
	classLifecycle eventClass = iota
	classSpanEvent
	classLink
	classLog
	classCommonSchema
	numClasses
)

func (c eventClass) String() string {
	switch c {
	case classLifecycle:
		return "lifecycle"
	case classSpanEvent:
		return "span_event"
	case classLink:
		return "link"
	case classLog:
		return "log"
	case classCommonSchema:
		return "common_schema"
	default:
		return "unknown"
	}
}

const eventClassKey = attribute.Key("event.class")

// per-class measurement options, built once so recording does not allocate
var classOpts = func() (opts [numClasses][]api.AddOption) {
	for c := eventClass(0); c < numClasses; c++ {
		opts[c] = []api.AddOption{api.WithAttributeSet(attribute.NewSet(eventClassKey.String(c.String())))}
	}
	return opts
}()

type instruments struct {
	written api.Int64Counter
	failed  api.Int64Counter
}

func newInstruments() *instruments {
	return &instruments{
		written: metric.Int64Counter("otel.events.written",
			api.WithDescription("Events written to the platform"),
			api.WithUnit("{event}")),
		failed: metric.Int64Counter("otel.events.failed",
			api.WithDescription("Events the platform failed to write"),
			api.WithUnit("{event}")),
	}
}

// record counts one write attempt for the class, and passes err through.
func (i *instruments) record(c eventClass, err error) error {
	if err != nil {
		i.failed.Add(context.Background(), 1, classOpts[c]...)
	} else {
		i.written.Add(context.Background(), 1, classOpts[c]...)
	}
	return err
}
