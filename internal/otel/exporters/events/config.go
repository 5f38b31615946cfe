package events

import "fmt"

// Config selects which events a driver writes, and how fields are encoded.
//
// It is fixed when the driver is created.
type Config struct {
	// Activities enables span lifecycle, span event, span link, and log events.
	Activities bool
	// CommonSchema enables Common Schema 4.0 span and log events.
	CommonSchema bool

	// JSON writes attributes as a single JSON "Payload" field instead of one field each.
	JSON bool
	// ByteBools writes bools as single bytes instead of 32-bit platform bools.
	ByteBools bool

	// ResourceAttributes appends resource attributes to Common Schema PartC.
	ResourceAttributes bool
	// PartAExtensions adds the ext_cloud and ext_app Common Schema PartA structs,
	// built from resource attributes.
	PartAExtensions bool

	// SharedEncoder uses one mutex-guarded encoder for all calls into the driver,
	// instead of a pool of encoders.
	// Concurrent callers are serialized for the whole encode and write of each event.
	SharedEncoder bool
}

// DefaultConfig writes lifecycle and log events with individual attribute fields.
func DefaultConfig() Config {
	return Config{Activities: true}
}

// Validate returns an error wrapping [ErrConfigurationInvalid] if no events can be written.
func (c Config) Validate() error {
	if !c.Activities && !c.CommonSchema {
		return fmt.Errorf("%w: at least one of activity or Common Schema events must be enabled", ErrConfigurationInvalid)
	}
	return nil
}

type Option func(*settings) error

type settings struct {
	config        Config
	closePlatform bool
}

// WithConfig replaces the driver configuration.
func WithConfig(c Config) Option {
	return func(s *settings) error {
		s.config = c
		return nil
	}
}

// WithClosePlatform closes the platform (releases the driver's reference) when the
// driver is shutdown.
func WithClosePlatform() Option {
	return func(s *settings) error {
		s.closePlatform = true
		return nil
	}
}

func newSettings(opts []Option) (settings, error) {
	s := settings{config: DefaultConfig()}
	for _, o := range opts {
		if err := o(&s); err != nil {
			return s, err
		}
	}
	return s, s.config.Validate()
}
