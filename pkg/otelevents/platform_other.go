//go:build !windows && !linux

package otelevents

import (
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/debug"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

func newPlatform(_ string, c *config) (platform, error) {
	if c.debug == nil {
		return nil, ErrUnsupportedPlatform
	}
	return events.NewEventHeader(debug.NewEventHeader(debug.WithEntry(c.debug))), nil
}
