//go:build windows

package main

import (
	"github.com/Microsoft/go-winio/pkg/etw"
	"github.com/Microsoft/go-winio/pkg/etwlogrus"
	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/Microsoft/go-otel-etw/internal/log"
	etwhandler "github.com/Microsoft/go-otel-etw/internal/otel/handlers/etw"
)

// logProvider receives the CLI's own logs, separate from the exported telemetry.
const logProvider = "GoOtelEvents.Cli"

var logETW *etw.Provider

func setupLogging(c *cli.Context) error {
	f := func(guid.GUID, etw.ProviderState, etw.Level, uint64, uint64, uintptr) {}
	provider, err := etw.NewProvider(logProvider, f)
	if err != nil {
		logrus.WithError(err).Warning("could not register ETW logging provider")
		return nil
	}
	hook, err := etwlogrus.NewHookFromProvider(provider)
	if err != nil {
		_ = provider.Close()
		logrus.WithError(err).Warning("could not create ETW logrus hook")
		return nil
	}
	logrus.AddHook(hook)
	logETW = provider

	// keep console output when decoded events are logged
	if !c.Bool(debugFlagName) {
		logrus.SetFormatter(log.NopFormatter{})
	}
	return nil
}

func closeLogging() error {
	if logETW == nil {
		return nil
	}
	return logETW.Close()
}

// platformErrorHandler writes OpenTelemetry errors to the logging provider.
func platformErrorHandler(rsc *resource.Resource) otel.ErrorHandler {
	if logETW == nil {
		return nil
	}
	h, err := etwhandler.New(etwhandler.WithExistingETWProvider(logETW), etwhandler.WithResource(rsc))
	if err != nil {
		logrus.WithError(err).Warning("could not create ETW error handler")
		return nil
	}
	return h
}
