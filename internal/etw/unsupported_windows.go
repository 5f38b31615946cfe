//go:build windows && !(amd64 || arm64)

package etw

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

var ErrUnsupported = fmt.Errorf("ETW provider registration is not supported on %s", runtime.GOARCH)

type Provider struct{ enableState }

var _ events.TraceLoggingProvider = (*Provider)(nil)

type config struct{ id, group *guid.GUID }

type Option func(*config)

func WithID(id guid.GUID) Option       { return func(c *config) { c.id = &id } }
func WithGroup(group guid.GUID) Option { return func(c *config) { c.group = &group } }

func New(string, ...Option) (*Provider, error) { return nil, ErrUnsupported }

func (*Provider) ID() guid.GUID { return guid.GUID{} }

func (*Provider) WriteEvent(*tracelogging.EventDescriptor, *guid.GUID, *guid.GUID, []byte, []byte) error {
	return errors.ErrUnsupported
}

func (*Provider) Close() error { return nil }
