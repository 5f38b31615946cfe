//go:build windows

package etw

import (
	"github.com/Microsoft/go-winio/pkg/etw"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

const fieldResource = "otel.resource"

type Option func(*handler) error

// WithExistingETWProvider configures the handler to use an existing ETW provider.
// The provider will not be closed.
func WithExistingETWProvider(p *etw.Provider) Option {
	return func(h *handler) error {
		h.provider = p
		return nil
	}
}

// WithETWLevel specifies the [etw.Level] to use when writing errors as ETW events.
//
// The default is [etw.LevelError].
func WithETWLevel(l etw.Level) Option {
	return func(h *handler) error {
		h.level = l
		return nil
	}
}

// WithResource adds the [resource.Resource] attributes to each error event, as a struct.
func WithResource(rsc *resource.Resource) Option {
	return func(h *handler) error {
		if fs := serializeAttributes(rsc.Attributes()); len(fs) > 0 {
			h.extra = append(h.extra, etw.Struct(fieldResource, fs...))
		}
		return nil
	}
}

func serializeAttributes(attrs []attribute.KeyValue) []etw.FieldOpt {
	fields := make([]etw.FieldOpt, 0, len(attrs))
	for _, attr := range attrs {
		// AsInterface() will convert to the right field type based on OTel's supported field types,
		// and then etw.SmartField will do its own type-matching.
		fields = append(fields, etw.SmartField(string(attr.Key), attr.Value.AsInterface()))
	}
	return fields
}
