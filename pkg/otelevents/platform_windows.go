//go:build windows

package otelevents

import (
	"github.com/Microsoft/go-otel-etw/internal/etw"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/debug"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

func newPlatform(name string, c *config) (platform, error) {
	if c.debug != nil {
		return events.NewTraceLogging(debug.NewTraceLogging(debug.WithEntry(c.debug))), nil
	}

	var opts []etw.Option
	if c.id != nil {
		opts = append(opts, etw.WithID(*c.id))
	}
	if c.group != nil {
		opts = append(opts, etw.WithGroup(*c.group))
	}
	p, err := etw.New(name, opts...)
	if err != nil {
		return nil, err
	}
	return events.NewTraceLogging(p), nil
}
