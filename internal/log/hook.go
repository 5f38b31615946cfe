package log

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Hook adds the trace and span IDs of the span in an entry's context to the entry.
//
// Time fields are formatted with [TimeFormat], since the ETW logrus hook would
// otherwise render them with [time.Time.String].
type Hook struct{}

var _ logrus.Hook = &Hook{}

func NewHook() *Hook {
	return &Hook{}
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	var sc trace.SpanContext
	if e.Context != nil {
		sc = trace.SpanContextFromContext(e.Context)
	}

	// the entry's Data may be shared, so copy before modifying
	data := make(logrus.Fields, len(e.Data)+2)
	for k, v := range e.Data {
		if t, ok := v.(time.Time); ok {
			v = FormatTime(t)
		}
		data[k] = v
	}
	if sc.IsValid() {
		data["traceID"] = sc.TraceID().String()
		data["spanID"] = sc.SpanID().String()
	}
	e.Data = data
	return nil
}
