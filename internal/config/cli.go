package config

import (
	"time"

	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Host          string
	IdleTimeout   string
	DisableNotify bool
}

// WithCLIConfig returns an Option that loads configuration from CLI flags.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Host:          ctx.String("host"),
			IdleTimeout:   ctx.String("idle-timeout"),
			DisableNotify: ctx.Bool("disable-notification"),
		}

		return applyCLIOptions(c, opts)
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions) error {
	if opts.Host != "" {
		c.API.Host = opts.Host
	}

	if opts.IdleTimeout != "" {
		d, err := parseDuration(opts.IdleTimeout)
		if err != nil {
			return errInvalidCLIDuration.Fmt("idle-timeout", err)
		}

		c.Tracking.IdleTimeout = d
	}

	if opts.DisableNotify {
		c.Tracking.Notify = false
	}

	return nil
}

// parseDuration parses a duration string. A bare number is read as minutes.
func parseDuration(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	return time.ParseDuration(s + "m")
}
