package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/pelletier/go-toml"
	cli "github.com/urfave/cli/v2"

	"github.com/Microsoft/go-otel-etw/internal/log"
	"github.com/Microsoft/go-otel-etw/pkg/otelevents"
)

const defaultProvider = "GoOtelEvents"

// config is the TOML configuration file.
type config struct {
	Provider   string `toml:"provider"`
	ProviderID string `toml:"provider_id"`
	Group      string `toml:"group"`

	Realtime           bool `toml:"realtime"`
	CommonSchema       bool `toml:"common_schema"`
	Activities         bool `toml:"activities"`
	JSON               bool `toml:"json"`
	ByteBools          bool `toml:"byte_bools"`
	PartAExtensions    bool `toml:"part_a_extensions"`
	ResourceAttributes bool `toml:"resource_attributes"`
	SharedEncoder      bool `toml:"shared_encoder"`

	Service  serviceConfig   `toml:"service"`
	Keywords *keywordsConfig `toml:"keywords"`
}

type serviceConfig struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Instance  string `toml:"instance"`
	Version   string `toml:"version"`
}

type keywordsConfig struct {
	Span  uint64 `toml:"span"`
	Event uint64 `toml:"event"`
	Link  uint64 `toml:"link"`
	Log   uint64 `toml:"log"`

	SpanLevel  uint8 `toml:"span_level"`
	EventLevel uint8 `toml:"event_level"`
	LinkLevel  uint8 `toml:"link_level"`
	LogLevel   uint8 `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Provider:   defaultProvider,
		Activities: true,
		Service: serviceConfig{
			Name: "otel-events",
		},
	}
}

// loadConfig reads the configuration file, if any, then applies the flags that were set.
func loadConfig(c *cli.Context) (config, error) {
	conf := defaultConfig()
	if p := c.Path(configFlagName); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return conf, err
		}
		if err := toml.Unmarshal(b, &conf); err != nil {
			return conf, fmt.Errorf("parse config file %s: %w", p, err)
		}
		log.G(c.Context).WithField("config", log.Format(c.Context, conf)).Debug("loaded config file")
	}

	for n, s := range map[string]*string{
		providerFlagName:   &conf.Provider,
		providerIDFlagName: &conf.ProviderID,
		groupFlagName:      &conf.Group,
	} {
		if c.IsSet(n) {
			*s = c.String(n)
		}
	}
	for n, b := range map[string]*bool{
		realtimeFlagName:     &conf.Realtime,
		commonSchemaFlagName: &conf.CommonSchema,
		activitiesFlagName:   &conf.Activities,
		jsonFlagName:         &conf.JSON,
		byteBoolsFlagName:    &conf.ByteBools,
	} {
		if c.IsSet(n) {
			*b = c.Bool(n)
		}
	}
	return conf, nil
}

func (conf *config) options(debug bool) ([]otelevents.Option, error) {
	opts := []otelevents.Option{
		otelevents.WithActivities(conf.Activities),
		otelevents.WithCommonSchema(conf.CommonSchema),
	}
	if conf.ProviderID != "" {
		id, err := guid.FromString(conf.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("invalid provider ID %q: %w", conf.ProviderID, err)
		}
		opts = append(opts, otelevents.WithProviderID(id))
	}
	if conf.Group != "" {
		if runtime.GOOS == "windows" {
			g, err := guid.FromString(conf.Group)
			if err != nil {
				return nil, fmt.Errorf("invalid provider group %q: %w", conf.Group, err)
			}
			opts = append(opts, otelevents.WithProviderGroup(g))
		} else {
			opts = append(opts, otelevents.WithTracepointGroup(conf.Group))
		}
	}
	if conf.Keywords != nil {
		opts = append(opts, otelevents.WithKeywords(conf.keywords()))
	}

	for _, x := range []struct {
		set bool
		o   otelevents.Option
	}{
		{conf.Realtime, otelevents.WithRealtime()},
		{conf.JSON, otelevents.WithJSONPayload()},
		{conf.ByteBools, otelevents.WithByteBools()},
		{conf.PartAExtensions, otelevents.WithPartAExtensions()},
		{conf.ResourceAttributes, otelevents.WithResourceAttributes()},
		{conf.SharedEncoder, otelevents.WithSharedEncoder()},
		{debug, otelevents.WithDebugWriter(log.L)},
	} {
		if x.set {
			opts = append(opts, x.o)
		}
	}
	return opts, nil
}

// keywords returns the configured keywords and levels, or the defaults.
func (conf *config) keywords() otelevents.Keywords {
	k := conf.Keywords
	if k == nil {
		return otelevents.DefaultKeywords()
	}
	return otelevents.Keywords{
		Span:     k.Span,
		Event:    k.Event,
		Link:     k.Link,
		Log:      k.Log,
		SpanLvl:  otelevents.Level(k.SpanLevel),
		EventLvl: otelevents.Level(k.EventLevel),
		LinkLvl:  otelevents.Level(k.LinkLevel),
		LogLvl:   otelevents.Level(k.LogLevel),
	}
}
