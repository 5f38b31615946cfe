//go:build linux

package otelevents

import (
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/debug"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
	"github.com/Microsoft/go-otel-etw/internal/userevents"
)

func newPlatform(name string, c *config) (platform, error) {
	if c.debug != nil {
		return events.NewEventHeader(debug.NewEventHeader(debug.WithEntry(c.debug))), nil
	}

	p, err := userevents.New(name, EventSets(c.keywords), userevents.WithGroup(c.groupName))
	if err != nil {
		return nil, err
	}
	return events.NewEventHeader(p), nil
}
