package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// viperKeys defines the mapping between config keys and their Viper counterparts.
const (
	keyAPIDevURL          = "api.dev_url"
	keyAPIProdURL         = "api.prod_url"
	keyAPIHost            = "api.host"
	keyAPIUploadPath      = "api.upload_path"
	keyAPITimeout         = "api.timeout"
	keyTrackingTick       = "tracking.tick_interval"
	keyTrackingIdle       = "tracking.idle_timeout"
	keyTrackingNotify     = "tracking.notify"
	keyLogLevel           = "log.level"
	keyLogMaxSizeMB       = "log.max_size_mb"
	keyLogMaxBackups      = "log.max_backups"
	keyLogMaxAgeDays      = "log.max_age_days"
	keyLogCompress        = "log.compress"
	keyHooksOnStop        = "hooks.on_stop"
	defaultProdURL        = "https://backend-268040451245.us-central1.run.app"
	defaultDevURL         = "http://localhost:8080"
	defaultUploadEndpoint = "/upload-tracking"
)

// WithViperConfig returns an Option that loads configuration from Viper. The
// file is created with the defaults when it does not exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v)

		c.System.ConfigPath = configPath

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper configures Viper with defaults.
func setupViper(v *viper.Viper) {
	v.SetDefault(keyAPIDevURL, defaultDevURL)
	v.SetDefault(keyAPIProdURL, defaultProdURL)
	v.SetDefault(keyAPIHost, "")
	v.SetDefault(keyAPIUploadPath, defaultUploadEndpoint)
	v.SetDefault(keyAPITimeout, "10s")
	v.SetDefault(keyTrackingTick, "1s")
	v.SetDefault(keyTrackingIdle, "5m")
	v.SetDefault(keyTrackingNotify, true)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSizeMB, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAgeDays, 28)
	v.SetDefault(keyLogCompress, false)
	v.SetDefault(keyHooksOnStop, "")
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	err := v.Unmarshal(c)
	if err != nil {
		return errDecodeConfig.Wrap(err)
	}

	return nil
}
