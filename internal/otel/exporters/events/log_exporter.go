package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// LogExporter writes log records to the platform. It is meant for use with a batching
// log processor, so log events are tagged to use their time fields.
type LogExporter[K KeywordLevelProvider, P Platform] struct {
	c atomic.Pointer[core[K, P]]
}

var _ sdklog.Exporter = (*LogExporter[Keywords, *TraceLogging])(nil)

// NewLogExporter returns a [sdklog.Exporter] that writes to p.
func NewLogExporter[K KeywordLevelProvider, P Platform](k K, p P, opts ...Option) (*LogExporter[K, P], error) {
	c, err := newCore(k, p, opts)
	if err != nil {
		return nil, err
	}
	e := &LogExporter[K, P]{}
	e.c.Store(c)
	return e, nil
}

// Export writes each record in turn.
//
// Records that fail to export do not stop the others: their errors are sent to the
// OTel error handler.
func (e *LogExporter[K, P]) Export(ctx context.Context, records []sdklog.Record) error {
	c := e.c.Load()
	if c == nil {
		return nil
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := &records[i]
		if err := c.exportLog(r, true); err != nil {
			otel.Handle(fmt.Errorf("export log record %q: %w", logEventName(r), err))
		}
	}
	return nil
}

// Shutdown stops the exporter. Later exports are no-ops.
func (e *LogExporter[K, P]) Shutdown(ctx context.Context) error {
	if c := e.c.Swap(nil); c != nil {
		return c.shutdown(ctx)
	}
	return nil
}

// ForceFlush is a no-op, since records are written synchronously.
func (*LogExporter[K, P]) ForceFlush(ctx context.Context) error { return ctx.Err() }

// LogProcessor writes log records to the platform as they are emitted.
type LogProcessor[K KeywordLevelProvider, P Platform] struct {
	c atomic.Pointer[core[K, P]]
}

var _ sdklog.Processor = (*LogProcessor[Keywords, *TraceLogging])(nil)

// NewLogProcessor returns a [sdklog.Processor] that writes to p.
func NewLogProcessor[K KeywordLevelProvider, P Platform](k K, p P, opts ...Option) (*LogProcessor[K, P], error) {
	c, err := newCore(k, p, opts)
	if err != nil {
		return nil, err
	}
	lp := &LogProcessor[K, P]{}
	lp.c.Store(c)
	return lp, nil
}

// OnEmit writes the record, and returns the platform error, if any.
func (lp *LogProcessor[K, P]) OnEmit(_ context.Context, r *sdklog.Record) error {
	if c := lp.c.Load(); c != nil {
		return c.exportLog(r, false)
	}
	return nil
}

func (lp *LogProcessor[K, P]) Shutdown(ctx context.Context) error {
	if c := lp.c.Swap(nil); c != nil {
		return c.shutdown(ctx)
	}
	return nil
}

func (*LogProcessor[K, P]) ForceFlush(ctx context.Context) error { return ctx.Err() }
