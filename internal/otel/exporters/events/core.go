package events

import (
	"context"
	"errors"
	"sync"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/activity"
)

// core is the state shared by all drivers: the keyword policy, the platform, the
// configuration, and the encoders.
//
// Every write first checks that the platform has a listener for the event's
// (level, keyword), and does no other work if not.
type core[K KeywordLevelProvider, P Platform] struct {
	keywords K
	platform P
	config   Config
	encoders encoderSource
	inst     *instruments

	closePlatform bool
	closeOnce     sync.Once
}

func newCore[K KeywordLevelProvider, P Platform](k K, p P, opts []Option) (*core[K, P], error) {
	if any(p) == nil {
		return nil, ErrNoPlatform
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	c := &core[K, P]{
		keywords:      k,
		platform:      p,
		config:        s.config,
		inst:          newInstruments(),
		closePlatform: s.closePlatform,
	}
	if s.config.SharedEncoder {
		c.encoders = newLockedEncoder(p)
	} else {
		c.encoders = newEncoderPool(p)
	}
	return c, nil
}

func (c *core[K, P]) identity(sc trace.SpanContext, parent trace.SpanID) activity.Identity {
	return activity.Derive(c.platform.Scheme(), sc.SpanID(), parent, sc.TraceID())
}

// exportSpan writes a completed span: the lifecycle start, span events, links,
// and lifecycle stop, then (independently) the Common Schema event.
//
// The span status selects the level of the lifecycle and Common Schema events.
// Lifecycle writes stop at the first failure.
func (c *core[K, P]) exportSpan(s tracesdk.ReadOnlySpan) error {
	level := LevelFromStatus(s.Status().Code)
	kw := c.keywords.SpanKeyword()
	activities := c.config.Activities && c.platform.Enabled(level, kw)
	cs := c.config.CommonSchema && c.platform.Enabled(level, kw)
	if !activities && !cs {
		return nil
	}

	id := c.identity(s.SpanContext(), s.Parent().SpanID())
	enc := c.encoders.get()
	defer c.encoders.put(enc)

	var err error
	if activities {
		err = c.writeSpanActivities(enc, &id, s, level)
	}
	if cs {
		err = errors.Join(err, c.writeCommonSchemaSpan(enc, &id, s, level))
	}
	return err
}

func (c *core[K, P]) writeSpanActivities(enc Encoder, id *activity.Identity, s tracesdk.ReadOnlySpan, level Level) error {
	name := s.Name()
	kind := s.SpanKind()
	err := c.writeLifecycle(enc, id, &lifecycle{
		name:   name,
		level:  level,
		op:     OpcodeStart,
		time:   s.StartTime(),
		kind:   kind,
		tagged: true,
	})
	if err != nil {
		return err
	}

	if evs := s.Events(); len(evs) > 0 && c.platform.Enabled(c.keywords.EventLevel(), c.keywords.EventKeyword()) {
		if err := c.writeSpanEvents(enc, id, evs, true); err != nil {
			return err
		}
	}
	if links := s.Links(); len(links) > 0 && c.platform.Enabled(c.keywords.LinkLevel(), c.keywords.LinkKeyword()) {
		if err := c.writeLinks(enc, id, name, s.StartTime(), links, true); err != nil {
			return err
		}
	}

	return c.writeLifecycle(enc, id, &lifecycle{
		name:   name,
		level:  level,
		op:     OpcodeStop,
		time:   s.EndTime(),
		kind:   kind,
		status: s.Status(),
		attrs:  s.Attributes(),
		tagged: true,
	})
}

// spanStarted writes the realtime lifecycle start event, followed by the span's links.
func (c *core[K, P]) spanStarted(s tracesdk.ReadOnlySpan) error {
	level := c.keywords.SpanLevel()
	if !c.config.Activities || !c.platform.Enabled(level, c.keywords.SpanKeyword()) {
		return nil
	}

	id := c.identity(s.SpanContext(), s.Parent().SpanID())
	enc := c.encoders.get()
	defer c.encoders.put(enc)

	err := c.writeLifecycle(enc, &id, &lifecycle{
		name:  s.Name(),
		level: level,
		op:    OpcodeStart,
		time:  s.StartTime(),
		kind:  s.SpanKind(),
	})
	if err != nil {
		return err
	}
	if links := s.Links(); len(links) > 0 && c.platform.Enabled(c.keywords.LinkLevel(), c.keywords.LinkKeyword()) {
		return c.writeLinks(enc, &id, s.Name(), s.StartTime(), links, false)
	}
	return nil
}

// spanEnded writes the realtime lifecycle stop event and the Common Schema event.
func (c *core[K, P]) spanEnded(s tracesdk.ReadOnlySpan) error {
	level := c.keywords.SpanLevel()
	kw := c.keywords.SpanKeyword()
	activities := c.config.Activities && c.platform.Enabled(level, kw)
	cs := c.config.CommonSchema && c.platform.Enabled(level, kw)
	if !activities && !cs {
		return nil
	}

	id := c.identity(s.SpanContext(), s.Parent().SpanID())
	enc := c.encoders.get()
	defer c.encoders.put(enc)

	var err error
	if activities {
		err = c.writeLifecycle(enc, &id, &lifecycle{
			name:   s.Name(),
			level:  level,
			op:     OpcodeStop,
			time:   s.EndTime(),
			kind:   s.SpanKind(),
			status: s.Status(),
			attrs:  s.Attributes(),
		})
	}
	if cs {
		err = errors.Join(err, c.writeCommonSchemaSpan(enc, &id, s, level))
	}
	return err
}

// spanEventAdded writes a realtime span event.
func (c *core[K, P]) spanEventAdded(s tracesdk.ReadOnlySpan, name string, cfg *trace.EventConfig) error {
	if !c.config.Activities || !c.platform.Enabled(c.keywords.EventLevel(), c.keywords.EventKeyword()) {
		return nil
	}

	id := c.identity(s.SpanContext(), s.Parent().SpanID())
	enc := c.encoders.get()
	defer c.encoders.put(enc)

	return c.writeSpanEvent(enc, &id, name, cfg.Timestamp(), cfg.Attributes(), false)
}

// exportLog writes a log record as a log event and (independently) a Common Schema event.
//
// The record severity selects the level of the log event.
func (c *core[K, P]) exportLog(r *sdklog.Record, tagged bool) error {
	level := c.keywords.LogLevel()
	if r.Severity() != 0 {
		level = LevelFromSeverity(r.Severity())
	}
	kw := c.keywords.LogKeyword()
	activities := c.config.Activities && c.platform.Enabled(level, kw)
	cs := c.config.CommonSchema && c.platform.Enabled(c.keywords.LogLevel(), kw)
	if !activities && !cs {
		return nil
	}

	enc := c.encoders.get()
	defer c.encoders.put(enc)

	var err error
	if activities {
		err = c.writeLog(enc, r, level, tagged)
	}
	if cs {
		err = errors.Join(err, c.writeCommonSchemaLog(enc, r))
	}
	return err
}

// shutdown closes the platform if the driver owns it.
func (c *core[K, P]) shutdown(ctx context.Context) error {
	var err error
	if c.closePlatform {
		c.closeOnce.Do(func() { err = c.platform.Close() })
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}
