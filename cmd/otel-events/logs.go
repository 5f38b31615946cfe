package main

import (
	"context"
	"errors"
	"time"

	cli "github.com/urfave/cli/v2"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/Microsoft/go-otel-etw/internal/log"
	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
)

const (
	eventNameFlagName = "event-name"
	messageFlagName   = "message"
	inSpanFlagName    = "in-span"
)

// severities emitted by the logs command, one record each.
var severities = []otellog.Severity{
	otellog.SeverityTrace,
	otellog.SeverityDebug,
	otellog.SeverityInfo,
	otellog.SeverityWarn,
	otellog.SeverityError,
	otellog.SeverityFatal,
}

var logsCommand = &cli.Command{
	Name:  "logs",
	Usage: "emit a log record at each severity",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  eventNameFlagName,
			Usage: "event `NAME` for the records, instead of the default",
		},
		&cli.StringFlag{
			Name:  messageFlagName,
			Value: "hello from otel-events",
			Usage: "record body",
		},
		&cli.BoolFlag{
			Name:  inSpanFlagName,
			Usage: "emit the records within a span, so they carry its trace context",
		},
	},
	Action: logs,
}

func logs(c *cli.Context) (err error) {
	ctx := c.Context
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(ctx)) }()

	var p sdklog.Processor
	if s.conf.Realtime {
		if p, err = s.provider.LogProcessor(); err != nil {
			return err
		}
	} else {
		e, err := s.provider.LogExporter()
		if err != nil {
			return err
		}
		p = sdklog.NewBatchProcessor(e)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(p),
		sdklog.WithResource(s.rsc),
	)
	s.closers = append(s.closers, func(ctx context.Context) error {
		return errors.Join(lp.ForceFlush(ctx), lp.Shutdown(ctx))
	})
	l := lp.Logger(eventsotel.InstrumentationName)

	if c.Bool(inSpanFlagName) {
		shutdown, err := s.tracing()
		if err != nil {
			return err
		}
		s.closers = append(s.closers, shutdown)

		var span trace.Span
		ctx, span = eventsotel.StartSpan(ctx, eventsotel.Name("otel-events", "logs"))
		defer span.End()
	}

	for i, sev := range severities {
		var r otellog.Record
		now := time.Now()
		r.SetTimestamp(now)
		r.SetObservedTimestamp(now)
		r.SetSeverity(sev)
		r.SetSeverityText(sev.String())
		r.SetBody(otellog.StringValue(c.String(messageFlagName)))
		if n := c.String(eventNameFlagName); n != "" {
			r.SetEventName(n)
		}
		r.AddAttributes(
			otellog.Int("index", i),
			otellog.Slice("values", otellog.Int64Value(1), otellog.Int64Value(2), otellog.Int64Value(3)),
			otellog.Map("detail", otellog.String("source", "cli"), otellog.Bool("sample", true)),
		)
		l.Emit(ctx, r)
	}
	log.G(ctx).WithField("records", len(severities)).Info("emitted log records")
	return nil
}
