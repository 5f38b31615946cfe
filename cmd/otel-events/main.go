package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	elog "github.com/Microsoft/go-otel-etw/internal/log"
)

const (
	configFlagName       = "config"
	providerFlagName     = "provider"
	providerIDFlagName   = "provider-id"
	groupFlagName        = "group"
	realtimeFlagName     = "realtime"
	commonSchemaFlagName = "common-schema"
	activitiesFlagName   = "activities"
	jsonFlagName         = "json"
	byteBoolsFlagName    = "byte-bools"
	debugFlagName        = "debug"
	logLevelFlagName     = "log-level"
	metricsFlagName      = "metrics"
	errorEventsFlagName  = "error-events"
)

func main() {
	// Run() should not return an error because of ExitErrHandler, but just in case ...
	if err := app().Run(os.Args); err != nil {
		log.New(os.Stderr, "", 0).Fatal(err)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:           "otel-events",
		Usage:          "Emit sample OpenTelemetry spans and logs as ETW or user_events events",
		ExitErrHandler: errHandler,
		Commands: []*cli.Command{
			spansCommand,
			logsCommand,
			providerIDCommand,
			replayCommand,
		},
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    configFlagName,
				Aliases: []string{"c"},
				Usage:   "TOML `FILE` with provider and exporter settings; flags take precedence",
			},
			&cli.StringFlag{
				Name:    providerFlagName,
				Aliases: []string{"p"},
				Usage:   "provider `NAME`",
			},
			&cli.StringFlag{
				Name:  providerIDFlagName,
				Usage: "ETW provider `GUID`, instead of deriving it from the name",
			},
			&cli.StringFlag{
				Name:  groupFlagName,
				Usage: "provider group: a GUID on Windows, or a tracepoint group suffix on Linux",
			},
			&cli.BoolFlag{
				Name:  realtimeFlagName,
				Usage: "write events as spans and logs happen, instead of in batches",
			},
			&cli.BoolFlag{
				Name:  commonSchemaFlagName,
				Usage: "write Common Schema 4.0 events",
			},
			&cli.BoolFlag{
				Name:  activitiesFlagName,
				Value: true,
				Usage: "write span lifecycle, span event, link, and log events",
			},
			&cli.BoolFlag{
				Name:  jsonFlagName,
				Usage: "write attributes as a single JSON payload field",
			},
			&cli.BoolFlag{
				Name:  byteBoolsFlagName,
				Usage: "write bools as single bytes",
			},
			&cli.BoolFlag{
				Name:  debugFlagName,
				Usage: "log decoded events instead of registering a provider",
			},
			&cli.BoolFlag{
				Name:  metricsFlagName,
				Usage: "write exporter self-telemetry as metric events",
			},
			&cli.BoolFlag{
				Name:  errorEventsFlagName,
				Usage: "write OpenTelemetry errors as events, in addition to logging them",
			},
			&cli.StringFlag{
				Name:  logLevelFlagName,
				Value: logrus.InfoLevel.String(),
				Usage: "logging `LEVEL`",
			},
		},
		Before: func(c *cli.Context) error {
			lvl, err := logrus.ParseLevel(c.String(logLevelFlagName))
			if err != nil {
				return err
			}
			// decoded events are logged at debug level
			if c.Bool(debugFlagName) && !c.IsSet(logLevelFlagName) {
				lvl = logrus.DebugLevel
			}
			logrus.SetLevel(lvl)
			logrus.AddHook(elog.NewHook())
			logrus.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: elog.TimeFormat,
			})
			return setupLogging(c)
		},
		After: func(*cli.Context) error {
			return closeLogging()
		},
	}
}

func errHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	s := c.App.Name
	if c.Command != nil && c.Command.Name != "" {
		s += " " + c.Command.Name
	}
	cli.HandleExitCoder(cli.Exit(fmt.Errorf("%s: %w", s, err), 1))
}
