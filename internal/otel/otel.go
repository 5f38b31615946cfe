// helper functions for dealing with OTel
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InstrumentationName is the name of OTel ["go.opentelemetry.io/otel/metric".Meter] or
// ["go.opentelemetry.io/otel/trace".Tracer] used in this repo.
//
// Use one instrumentation library provider to simplify code.
const InstrumentationName = "github.com/Microsoft/go-otel-etw"

// DefaultResource returns a resource describing the current application and the OTel SDK.
//
// serviceNamespace and serviceInstance are optional, and are used by Common Schema
// PartA extensions.
func DefaultResource(appName, appVersion, serviceNamespace, serviceInstance string, attrs ...attribute.KeyValue) *resource.Resource {
	as := []attribute.KeyValue{
		semconv.TelemetrySDKLanguageGo,
		semconv.TelemetrySDKName("opentelemetry"),
		semconv.TelemetrySDKVersion(otel.Version()),
	}

	if appName != "" {
		as = append(as, semconv.ServiceName(appName))
	}
	if appVersion != "" {
		as = append(as, semconv.ServiceVersion(appVersion))
	}
	if serviceNamespace != "" {
		as = append(as, semconv.ServiceNamespace(serviceNamespace))
	}
	if serviceInstance != "" {
		as = append(as, semconv.ServiceInstanceID(serviceInstance))
	}
	as = append(as, attrs...)
	return resource.NewWithAttributes(semconv.SchemaURL, as...)
}
