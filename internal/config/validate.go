package config

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

var (
	minTimeout = 1 * time.Second
	maxTimeout = 2 * time.Minute

	minTickInterval = 100 * time.Millisecond
	maxTickInterval = 1 * time.Minute

	minIdleTimeout = 30 * time.Second
	maxIdleTimeout = 24 * time.Hour

	logLevels = []string{"debug", "info", "warn", "error"}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateTracking(); err != nil {
		return err
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return errInvalidLogLevel.Fmt(c.Log.Level)
	}

	return nil
}

func (c *Config) validateAPI() error {
	if err := validateURL("api.dev_url", c.API.DevURL); err != nil {
		return err
	}

	if err := validateURL("api.prod_url", c.API.ProdURL); err != nil {
		return err
	}

	if !strings.HasPrefix(c.API.UploadPath, "/") {
		return errInvalidPath.Fmt(c.API.UploadPath)
	}

	return validateRange("api.timeout", c.API.Timeout, minTimeout, maxTimeout)
}

func (c *Config) validateTracking() error {
	err := validateRange(
		"tracking.tick_interval",
		c.Tracking.TickInterval,
		minTickInterval,
		maxTickInterval,
	)
	if err != nil {
		return err
	}

	return validateRange(
		"tracking.idle_timeout",
		c.Tracking.IdleTimeout,
		minIdleTimeout,
		maxIdleTimeout,
	)
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		return errInvalidURL.Fmt(name, raw)
	}

	return nil
}

func validateRange(name string, d, lower, upper time.Duration) error {
	if d < lower || d > upper {
		return errInvalidDuration.Fmt(name, lower, upper, d)
	}

	return nil
}
