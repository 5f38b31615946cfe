//go:generate go run go.uber.org/mock/mockgen -destination mock_handler_test.go -package events go.opentelemetry.io/otel ErrorHandler

// Package events provides an [otel.ErrorHandler] that writes errors as events through an
// [events.Platform], so they appear next to the exported telemetry.
package events

import (
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// .NET OTel SDK sets the event name to "OpenTelemetry-Sdk".
// We do something similar here.
const name = "OpenTelemetry.Error"

// KeywordError is the default keyword for error events.
const KeywordError uint64 = 0x8000

type handler struct {
	p       events.Platform
	level   events.Level
	keyword uint64
	// fallback is called with errors that could not be written
	fallback otel.ErrorHandler

	// errors are rare and can be raised from any goroutine, so share one encoder
	mu  sync.Mutex
	enc events.Encoder
}

var _ otel.ErrorHandler = (*handler)(nil)

type Option func(*handler)

// WithLevelKeyword specifies the level and keyword of error events.
//
// The default is [events.LevelError] and [KeywordError].
func WithLevelKeyword(l events.Level, keyword uint64) Option {
	return func(h *handler) {
		h.level = l
		h.keyword = keyword
	}
}

// WithFallback specifies a handler for errors that cannot be written as events,
// along with the reason they could not be.
func WithFallback(f otel.ErrorHandler) Option {
	return func(h *handler) {
		h.fallback = f
	}
}

// New creates a new [otel.ErrorHandler] that writes errors to p.
//
// Since [otel.ErrorHandler] does not expose a Close/Shutdown function, p must remain open
// until the handler is replaced.
func New(p events.Platform, opts ...Option) (otel.ErrorHandler, error) {
	if p == nil {
		return nil, events.ErrNoPlatform
	}
	h := &handler{
		p:       p,
		level:   events.LevelError,
		keyword: KeywordError,
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// EventSet is the (level, keyword) pair for error events with the default options.
func EventSet() events.EventSet {
	return events.EventSet{Level: events.LevelError, Keyword: KeywordError}
}

func (h *handler) Handle(err error) {
	if err == nil || !h.p.Enabled(h.level, h.keyword) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enc == nil {
		h.enc = h.p.NewEncoder()
	}

	enc := h.enc
	enc.Reset(name, h.level, h.keyword, 0)
	enc.AddString("Error", err.Error())
	enc.AddString("ErrorType", fmt.Sprintf("%T", err))
	var ee *events.ExportError
	if errors.As(err, &ee) {
		enc.AddInt64("Code", int64(ee.Code))
	}

	if wErr := enc.Write(nil, nil); wErr != nil && h.fallback != nil {
		h.fallback.Handle(errors.Join(err, wErr))
	}
}
