//go:build windows

package etw

import (
	"errors"
	"fmt"

	"github.com/Microsoft/go-winio/pkg/etw"
	"go.opentelemetry.io/otel"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// .NET OTel SDK sets the event name to "OpenTelemetry-Sdk".
// We do something similar here.
//
// https://github.com/open-telemetry/opentelemetry-dotnet/blob/main/src/OpenTelemetry/Internal/OpenTelemetrySdkEventSource.cs
const name = "OpenTelemetry.Error"

// ErrNoETWProvider is returned when there is no configured ETW provider.
var ErrNoETWProvider = errors.New("no ETW provider")

type handler struct {
	provider *etw.Provider
	level    etw.Level
	extra    []etw.FieldOpt
}

var _ otel.ErrorHandler = (*handler)(nil)

// New creates a new [otel.ErrorHandler] to log errors raised span processing/export.
//
// Since [otel.ErrorHandler] does not expose a Close/Shutdown function, this error handler
// expects the ETW provider to exist until the global [otel.TracerProvider] is shutdown.
func New(opts ...Option) (otel.ErrorHandler, error) {
	h := &handler{
		level: etw.LevelError,
	}
	for _, o := range opts {
		if err := o(h); err != nil {
			return nil, err
		}
	}

	if h.provider == nil {
		return nil, ErrNoETWProvider
	}
	return h, nil
}

func (h *handler) Handle(e error) {
	if !h.provider.IsEnabledForLevel(h.level) {
		return
	}

	fields := make([]etw.FieldOpt, 0, 4+len(h.extra))
	fields = append(fields,
		etw.StringField("Error", e.Error()),
		etw.StringField("ErrorType", fmt.Sprintf("%T", e)),
	)
	var ee *events.ExportError
	if errors.As(e, &ee) {
		fields = append(fields, etw.Uint32Field("Code", uint32(ee.Code)))
	}
	fields = append(fields, h.extra...)

	// ignore errors; theres no one to report too
	_ = h.provider.WriteEvent(name,
		[]etw.EventOpt{etw.WithLevel(h.level)},
		fields,
	)
}
