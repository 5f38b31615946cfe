package otel

import (
	"sync"

	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// span processors registered to receive spans that did not come from a local tracer,
// such as spans replayed from a span file

var spanProcessors = struct {
	m   sync.Mutex
	sps []tracesdk.SpanProcessor
}{}

// RegisterSpanProcessor adds sp to the processors that [ExportSpan] sends spans to.
// The returned function removes it.
func RegisterSpanProcessor(sp tracesdk.SpanProcessor) (unregister func()) {
	if sp == nil {
		return func() {}
	}

	spanProcessors.m.Lock()
	defer spanProcessors.m.Unlock()
	spanProcessors.sps = append(spanProcessors.sps, sp)

	return func() {
		spanProcessors.m.Lock()
		defer spanProcessors.m.Unlock()
		for i, x := range spanProcessors.sps {
			if x == sp {
				spanProcessors.sps = append(spanProcessors.sps[:i:i], spanProcessors.sps[i+1:]...)
				return
			}
		}
	}
}

// ExportSpan ends s on every registered span processor.
func ExportSpan(s tracesdk.ReadOnlySpan) {
	spanProcessors.m.Lock()
	defer spanProcessors.m.Unlock()

	for _, sp := range spanProcessors.sps {
		sp.OnEnd(s)
	}
}
