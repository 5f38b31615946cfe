package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	api "go.opentelemetry.io/otel/metric"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Microsoft/go-otel-etw/internal/log"
	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/spanfile"
	"github.com/Microsoft/go-otel-etw/internal/otel/metric"
)

const (
	countFlagName     = "count"
	parallelFlagName  = "parallel"
	recordFlagName    = "record"
	failEveryFlagName = "fail-every"
	spanNamePrefix    = "otel-events"
)

var errSimulated = errors.New("simulated failure")

var spansCommand = &cli.Command{
	Name:  "spans",
	Usage: "emit span trees with events, links, and errors",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    countFlagName,
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of span trees to emit",
		},
		&cli.IntFlag{
			Name:  parallelFlagName,
			Value: 4,
			Usage: "number of span trees to emit concurrently",
		},
		&cli.IntFlag{
			Name:  failEveryFlagName,
			Value: 3,
			Usage: "fail every `N`th lookup span; 0 disables failures",
		},
		&cli.PathFlag{
			Name:  recordFlagName,
			Usage: "also write the emitted spans to a span `FILE`, for replay",
		},
	},
	Action: spans,
}

func spans(c *cli.Context) (err error) {
	ctx := c.Context
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(ctx)) }()

	var opts []tracesdk.TracerProviderOption
	if p := c.Path(recordFlagName); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func(context.Context) error { return f.Close() })
		e, err := spanfile.New(f)
		if err != nil {
			return err
		}
		opts = append(opts, tracesdk.WithSyncer(e))
	}

	shutdown, err := s.tracing(opts...)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, shutdown)

	trees := metric.Int64Counter("otel_events.cli.trees", api.WithUnit("{tree}"))
	durations := metric.Float64Histogram("otel_events.cli.tree.duration", api.WithUnit("ms"))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Int(parallelFlagName), 1))
	for i := 0; i < c.Int(countFlagName); i++ {
		g.Go(func() error {
			start := time.Now()
			emitTree(gctx, i, c.Int(failEveryFlagName))
			trees.Add(gctx, 1)
			durations.Record(gctx, float64(time.Since(start).Microseconds())/1000)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.G(ctx).WithField(countFlagName, c.Int(countFlagName)).Info("emitted span trees")
	return nil
}

// emitTree emits a server span with two client children. The second child links to
// the first, and every failEvery-th tree's first child fails.
func emitTree(ctx context.Context, i, failEvery int) {
	ctx, root := eventsotel.StartSpan(ctx, eventsotel.Name(spanNamePrefix, "request"),
		eventsotel.WithServerSpanKind,
		trace.WithAttributes(
			eventsotel.Attribute("index", i),
			eventsotel.Attribute("float", 7.1),
			eventsotel.Attribute("tags", []string{"sample", "cli"}),
			attribute.Bool("sampled", true),
		))
	defer root.End()

	lctx, lookup := eventsotel.StartSpan(ctx, eventsotel.Name(spanNamePrefix, "lookup"), eventsotel.WithClientSpanKind)
	lookup.AddEvent("cache miss", trace.WithAttributes(eventsotel.Attribute("key", fmt.Sprintf("item-%d", i))))
	var err error
	if failEvery > 0 && i%failEvery == failEvery-1 {
		err = errSimulated
	}
	eventsotel.SetSpanStatusAndEnd(lookup, err)

	_, store := eventsotel.StartSpan(ctx, eventsotel.Name(spanNamePrefix, "store"),
		eventsotel.WithClientSpanKind,
		trace.WithLinks(trace.LinkFromContext(lctx, attribute.String("reason", "retry"))))
	store.AddEvent("stored", trace.WithAttributes(eventsotel.Attribute("duration", time.Millisecond)))
	eventsotel.SetSpanStatusAndEnd(store, nil)

	root.SetStatus(statusFor(err))
}

func statusFor(err error) (codes.Code, string) {
	if err != nil {
		return codes.Error, err.Error()
	}
	return codes.Ok, ""
}
