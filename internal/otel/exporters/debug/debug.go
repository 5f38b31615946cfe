// Package debug provides platform providers that decode every event and log it with
// logrus, instead of handing it to ETW or user_events.
//
// They are meant for development, and on platforms without a native tracing facility.
package debug

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/sirupsen/logrus"

	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/log"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

// Logrus fields added to every event.
const (
	FieldEvent      = "event"
	FieldLevel      = "eventLevel"
	FieldKeyword    = "keyword"
	FieldOpcode     = "opcode"
	FieldTags       = "tags"
	FieldActivityID = "activityID"
	FieldRelatedID  = "relatedActivityID"
)

type base struct {
	entry   *logrus.Entry
	level   logrus.Level
	enabled func(level uint8, keyword uint64) bool
	closed  atomic.Bool
}

type Option func(*base)

// WithEntry specifies the entry events are logged with. The default is [log.L].
func WithEntry(e *logrus.Entry) Option {
	return func(b *base) { b.entry = e }
}

// WithLevel specifies the logrus level events are logged at. The default is [logrus.DebugLevel].
func WithLevel(l logrus.Level) Option {
	return func(b *base) { b.level = l }
}

// WithEnabled filters events by level and keyword, in addition to the logrus level.
func WithEnabled(f func(level uint8, keyword uint64) bool) Option {
	return func(b *base) { b.enabled = f }
}

func (b *base) init(opts []Option) {
	b.entry = log.L
	b.level = logrus.DebugLevel
	for _, o := range opts {
		o(b)
	}
}

func (b *base) Enabled(level uint8, keyword uint64) bool {
	if b.closed.Load() || !b.entry.Logger.IsLevelEnabled(b.level) {
		return false
	}
	return b.enabled == nil || b.enabled(level, keyword)
}

func (b *base) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *base) log(name string, fields logrus.Fields, activityID, relatedID *guid.GUID) {
	if activityID != nil {
		fields[FieldActivityID] = activityID.String()
	}
	if relatedID != nil {
		fields[FieldRelatedID] = relatedID.String()
	}
	fields[FieldEvent] = name
	b.entry.WithFields(fields).Log(b.level, name)
}

//
// TraceLogging
//

// TraceLogging logs TraceLogging events.
type TraceLogging struct{ base }

var _ events.TraceLoggingProvider = (*TraceLogging)(nil)

func NewTraceLogging(opts ...Option) *TraceLogging {
	w := &TraceLogging{}
	w.init(opts)
	return w
}

func (w *TraceLogging) WriteEvent(desc *tracelogging.EventDescriptor, activityID, relatedID *guid.GUID, meta, data []byte) error {
	e, err := tracelogging.Decode(meta, data)
	if err != nil {
		return err
	}

	fields := make(logrus.Fields, len(e.Fields)+7)
	fields[FieldLevel] = events.Level(desc.Level).String()
	fields[FieldKeyword] = keyword(desc.Keyword)
	fields[FieldOpcode] = desc.Opcode
	if e.Tags != 0 {
		fields[FieldTags] = e.Tags
	}
	addTraceLoggingFields(fields, "", e.Fields)
	w.log(e.Name, fields, activityID, relatedID)
	return nil
}

func addTraceLoggingFields(fields logrus.Fields, prefix string, fs []tracelogging.Field) {
	for _, f := range fs {
		if f.InType == tracelogging.InTypeStruct {
			addTraceLoggingFields(fields, prefix+f.Name+".", f.Fields)
			continue
		}
		fields[prefix+f.Name] = value(f.Value)
	}
}

//
// EventHeader
//

// EventHeader logs EventHeader events.
type EventHeader struct{ base }

var _ events.EventHeaderProvider = (*EventHeader)(nil)

func NewEventHeader(opts ...Option) *EventHeader {
	w := &EventHeader{}
	w.init(opts)
	return w
}

func (w *EventHeader) WriteEvent(level uint8, kw uint64, b []byte) error {
	e, err := eventheader.Decode(b)
	if err != nil {
		return err
	}

	fields := make(logrus.Fields, len(e.Fields)+7)
	fields[FieldLevel] = events.Level(level).String()
	fields[FieldKeyword] = keyword(kw)
	fields[FieldOpcode] = e.Opcode
	if e.Tag != 0 {
		fields[FieldTags] = e.Tag
	}
	addEventHeaderFields(fields, "", e.Fields)
	w.log(e.Name, fields, e.ActivityID, e.RelatedID)
	return nil
}

func addEventHeaderFields(fields logrus.Fields, prefix string, fs []eventheader.Field) {
	for _, f := range fs {
		if f.Encoding == eventheader.EncodingStruct {
			addEventHeaderFields(fields, prefix+f.Name+".", f.Fields)
			continue
		}
		fields[prefix+f.Name] = value(f.Value)
	}
}

func keyword(k uint64) string { return "0x" + strconv.FormatUint(k, 16) }

// value formats times the way the rest of the logs do.
func value(v any) any {
	switch t := v.(type) {
	case time.Time:
		return log.FormatTime(t)
	case []time.Time:
		ss := make([]string, 0, len(t))
		for _, x := range t {
			ss = append(ss, log.FormatTime(x))
		}
		return ss
	case fmt.Stringer:
		return t.String()
	}
	return v
}
