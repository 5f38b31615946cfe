package otelevents

import (
	"fmt"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/sirupsen/logrus"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

type (
	Level    = events.Level
	Keywords = events.Keywords
	EventSet = events.EventSet
)

const (
	LevelCritical      = events.LevelCritical
	LevelError         = events.LevelError
	LevelWarning       = events.LevelWarning
	LevelInformational = events.LevelInformational
	LevelVerbose       = events.LevelVerbose
)

// DefaultKeywords returns the default keywords and levels for each event class.
func DefaultKeywords() Keywords { return events.DefaultKeywords() }

type config struct {
	id *guid.GUID
	// ETW provider group
	group *guid.GUID
	// user_events tracepoint group suffix
	groupName string

	keywords Keywords
	events   events.Config
	realtime bool

	debug *logrus.Entry
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		keywords: DefaultKeywords(),
		events:   events.DefaultConfig(),
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if err := c.events.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Option configures a [Provider] and the exporters created from it.
type Option func(*config) error

// WithProviderID overrides the ETW provider ID, which is otherwise derived from the
// provider name.
func WithProviderID(id guid.GUID) Option {
	return func(c *config) error {
		c.id = &id
		return nil
	}
}

// WithProviderGroup makes the ETW provider part of a provider group.
func WithProviderGroup(group guid.GUID) Option {
	return func(c *config) error {
		c.group = &group
		return nil
	}
}

// WithTracepointGroup adds a group suffix to the user_events tracepoint names.
// It may only contain lowercase ASCII letters and digits.
func WithTracepointGroup(group string) Option {
	return func(c *config) error {
		c.groupName = group
		return nil
	}
}

// WithKeywords overrides the keyword and level of each event class.
func WithKeywords(k Keywords) Option {
	return func(c *config) error {
		for _, l := range []Level{k.SpanLvl, k.EventLvl, k.LinkLvl, k.LogLvl} {
			if l < LevelCritical || l > LevelVerbose {
				return fmt.Errorf("%w: level %v", events.ErrConfigurationInvalid, l)
			}
		}
		c.keywords = k
		return nil
	}
}

// WithActivities enables or disables span lifecycle, span event, link, and log events.
// They are enabled by default.
func WithActivities(b bool) Option {
	return func(c *config) error {
		c.events.Activities = b
		return nil
	}
}

// WithCommonSchema enables or disables Common Schema 4.0 span and log events.
// They are disabled by default.
func WithCommonSchema(b bool) Option {
	return func(c *config) error {
		c.events.CommonSchema = b
		return nil
	}
}

// WithJSONPayload writes attributes as a single JSON "Payload" field.
func WithJSONPayload() Option {
	return func(c *config) error {
		c.events.JSON = true
		return nil
	}
}

// WithByteBools writes bools as single bytes instead of 32-bit platform bools.
func WithByteBools() Option {
	return func(c *config) error {
		c.events.ByteBools = true
		return nil
	}
}

// WithPartAExtensions adds the Common Schema ext_cloud and ext_app structs, built from
// the service and enduser resource attributes.
func WithPartAExtensions() Option {
	return func(c *config) error {
		c.events.PartAExtensions = true
		return nil
	}
}

// WithResourceAttributes includes resource attributes in Common Schema PartC.
func WithResourceAttributes() Option {
	return func(c *config) error {
		c.events.ResourceAttributes = true
		return nil
	}
}

// WithSharedEncoder uses one mutex-guarded encoder per exporter, instead of a pool.
//
// Concurrent exports are serialized for the entire encode and write of every event.
func WithSharedEncoder() Option {
	return func(c *config) error {
		c.events.SharedEncoder = true
		return nil
	}
}

// WithRealtime writes span events as they happen (from a span processor) in
// [Provider.TracerProvider], instead of exporting completed spans in batches.
func WithRealtime() Option {
	return func(c *config) error {
		c.realtime = true
		return nil
	}
}

// WithDebugWriter logs decoded events to entry instead of registering a platform provider.
//
// It is the only option on platforms without ETW or user_events.
func WithDebugWriter(entry *logrus.Entry) Option {
	return func(c *config) error {
		if entry == nil {
			return fmt.Errorf("%w: nil debug log entry", events.ErrConfigurationInvalid)
		}
		c.debug = entry
		return nil
	}
}
