//go:build !windows

package main

import (
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
)

func setupLogging(*cli.Context) error {
	logrus.SetOutput(os.Stderr)
	return nil
}

func closeLogging() error { return nil }

func platformErrorHandler(*resource.Resource) otel.ErrorHandler { return nil }
