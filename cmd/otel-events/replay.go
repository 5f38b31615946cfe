package main

import (
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Microsoft/go-otel-etw/internal/log"
	eventsotel "github.com/Microsoft/go-otel-etw/internal/otel"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/spanfile"
)

var replayCommand = &cli.Command{
	Name:      "replay",
	Usage:     "write the spans recorded in span files as events",
	ArgsUsage: "FILE [FILE...]",
	Action:    replay,
}

func replay(c *cli.Context) (err error) {
	ctx := c.Context
	if c.NArg() == 0 {
		return errors.New("no span files provided")
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(ctx)) }()

	e, err := s.provider.SpanExporter()
	if err != nil {
		return err
	}
	sp := tracesdk.NewSimpleSpanProcessor(e)
	unregister := eventsotel.RegisterSpanProcessor(sp)
	defer unregister()
	s.closers = append(s.closers, sp.Shutdown)

	n := 0
	for _, p := range c.Args().Slice() {
		entry := log.G(ctx).WithField("file", p)
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		err = spanfile.Read(f, func(ro tracesdk.ReadOnlySpan) error {
			eventsotel.ExportSpan(ro)
			n++
			return nil
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("read span file %s: %w", p, err)
		}
		entry.Debug("replayed span file")
	}
	log.G(ctx).WithField("spans", n).Info("replayed spans")
	return nil
}
