package userevents

import (
	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// eventSet identifies a tracepoint by level and keyword.
type eventSet struct {
	level   uint8
	keyword uint64
}

// tracepointNames returns the tracepoint name for each event set, without duplicates.
func tracepointNames(provider, group string, sets []events.EventSet) map[eventSet]string {
	m := make(map[eventSet]string, len(sets))
	for _, s := range sets {
		k := eventSet{level: uint8(s.Level), keyword: s.Keyword}
		if _, ok := m[k]; ok {
			continue
		}
		m[k] = eventheader.TracepointName(provider, k.level, k.keyword, group)
	}
	return m
}
