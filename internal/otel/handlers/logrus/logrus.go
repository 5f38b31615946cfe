// This package provides an [OTel error handler] that outputs via logrus.
//
// [OTel error handler]: https://pkg.go.dev/go.opentelemetry.io/otel#ErrorHandler
package logrus

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/Microsoft/go-otel-etw/internal/log"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// New creates a new [otel.ErrorHandler] to log errors raised during OTel instrument creation/processing/export.
//
// Errors from rejected event writes are logged with the platform error code.
func New(opts ...Option) otel.ErrorHandler {
	c := newConfig()
	for _, o := range opts {
		o(&c)
	}

	return otel.ErrorHandlerFunc(func(err error) {
		// [WithFields] will create a copy of c.extra, so we don't need to worry about
		// copying it per call to prevent inadvertent modification
		e := c.entry.WithFields(c.extra).WithError(err)

		var ee *events.ExportError
		if errors.As(err, &ee) {
			e = e.WithFields(logrus.Fields{
				"code":    uint32(ee.Code),
				"codeMsg": ee.Code.Error(),
			})
		}
		e.Log(c.level, "OpenTelemetry error")
	})
}

type Option func(*config)

type config struct {
	entry *logrus.Entry
	level logrus.Level
	extra logrus.Fields
}

func newConfig() config {
	return config{
		entry: log.L,
		level: logrus.ErrorLevel,
		extra: make(logrus.Fields),
	}
}

// WithResource specifies an OTel [resource.Resource] to append to the error message.
func WithResource(rsc *resource.Resource) Option {
	attr := rsc.Attributes()
	m := make(map[string]any, len(attr))
	for _, kv := range attr {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return func(c *config) {
		if s := log.Format(context.Background(), m); s != "" {
			c.extra["otel.resource"] = s
		}
	}
}

// WithExtra specifies additional [logrus.Fields] to append to the error message.
func WithExtra(fields logrus.Fields) Option {
	return func(c *config) {
		for k, v := range fields {
			c.extra[k] = v
		}
	}
}

// WithLevel specifies the [logrus.Level] to use when writing errors.
//
// The default is [logrus.ErrorLevel].
func WithLevel(l logrus.Level) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithEntry specifies the [logrus.Entry] to log with.
//
// The default is [log.L].
func WithEntry(e *logrus.Entry) Option {
	return func(c *config) {
		c.entry = e
	}
}
