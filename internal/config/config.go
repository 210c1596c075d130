package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

type (
	// Config holds all configuration settings
	Config struct {
		System   SystemConfig   `mapstructure:"-"`
		API      APIConfig      `mapstructure:"api"`
		Hooks    HooksConfig    `mapstructure:"hooks"`
		Log      LogConfig      `mapstructure:"log"`
		Tracking TrackingConfig `mapstructure:"tracking"`
	}

	// APIConfig holds the collector settings
	APIConfig struct {
		DevURL     string        `mapstructure:"dev_url"`
		ProdURL    string        `mapstructure:"prod_url"`
		Host       string        `mapstructure:"host"`
		UploadPath string        `mapstructure:"upload_path"`
		Timeout    time.Duration `mapstructure:"timeout"`
	}

	// TrackingConfig holds session tracking settings
	TrackingConfig struct {
		TickInterval time.Duration `mapstructure:"tick_interval"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
		Notify       bool          `mapstructure:"notify"`
	}

	// LogConfig holds the log file settings
	LogConfig struct {
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
		Compress   bool   `mapstructure:"compress"`
	}

	// HooksConfig holds commands executed on tracking events
	HooksConfig struct {
		OnStop string `mapstructure:"on_stop"`
	}

	// SystemConfig holds system-related settings
	SystemConfig struct {
		ConfigPath string
		DBPath     string
		LogPath    string
	}

	// Option is a function that modifies Config
	Option func(*Config) error
)

const Version = "v0.3.0"

// localHost selects the development collector.
const localHost = "localhost"

var (
	configDir      = "annotrack"
	configFileName = "config.yml"
	dbFileName     = "annotrack.db"
	logFileName    = "annotrack.log"
	dbFilePath     string
	configFilePath string
	logFilePath    string
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func Dir() string {
	return configDir
}

func DBFilePath() string {
	return dbFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

// InitializePaths resolves the config, database and log locations. Setting
// ANNOTRACK_ENV keeps the files of separate environments apart.
func InitializePaths() error {
	env := strings.TrimSpace(os.Getenv("ANNOTRACK_ENV"))
	if env != "" {
		configFileName = fmt.Sprintf("config_%s.yml", env)
		dbFileName = fmt.Sprintf("annotrack_%s.db", env)
		logFileName = fmt.Sprintf("annotrack_%s.log", env)
	}

	relPath := filepath.Join(configDir, configFileName)

	var err error

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return errInitPaths.Wrap(err)
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		return errInitPaths.Wrap(err)
	}

	err = os.MkdirAll(dataDir, 0o750)
	if err != nil {
		return errInitPaths.Wrap(err)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)

	return nil
}

// New creates a new Config, applies options and validates the result
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		System: SystemConfig{
			ConfigPath: configFilePath,
			DBPath:     dbFilePath,
			LogPath:    logFilePath,
		},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// BaseURL returns the collector address for the configured host.
func (c *Config) BaseURL() string {
	if strings.EqualFold(c.API.Host, localHost) {
		return c.API.DevURL
	}

	return c.API.ProdURL
}
