package main

import (
	"fmt"
	"sort"

	cli "github.com/urfave/cli/v2"

	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
	"github.com/Microsoft/go-otel-etw/pkg/otelevents"
)

const tracepointsFlagName = "tracepoints"

var providerIDCommand = &cli.Command{
	Name:      "provider-id",
	Usage:     "print the ETW provider GUID derived from a provider name",
	ArgsUsage: "[NAME]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  tracepointsFlagName,
			Usage: "also print the user_events tracepoint names the provider registers",
		},
	},
	Action: providerID,
}

func providerID(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one provider name, got %d", c.NArg())
	}
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	name := conf.Provider
	if c.NArg() == 1 {
		name = c.Args().First()
	}

	fmt.Fprintf(c.App.Writer, "%s\t%s\n", name, tracelogging.ProviderIDFromName(name))
	if !c.Bool(tracepointsFlagName) {
		return nil
	}

	seen := make(map[string]struct{})
	var tps []string
	for _, s := range otelevents.EventSets(conf.keywords()) {
		n := eventheader.TracepointName(name, uint8(s.Level), s.Keyword, conf.Group)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		tps = append(tps, n)
	}
	sort.Strings(tps)
	for _, n := range tps {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}
