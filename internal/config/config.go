// Package config loads quickscout settings from an optional YAML file,
// QUICKSCOUT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quickscout/quickscout-go/internal/scout"
)

// EnvPrefix is prepended to every environment override, so
// backend.base_url is read from QUICKSCOUT_BACKEND_BASE_URL.
const EnvPrefix = "QUICKSCOUT"

// Config is the full application configuration.
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
	Server   ServerConfig   `mapstructure:"server"`
	Field    FieldConfig    `mapstructure:"field"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BackendConfig points at the scouting web application.
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RecorderConfig holds the recorder's delays.
type RecorderConfig struct {
	AutonDwell    time.Duration `mapstructure:"auton_dwell"`
	FlashInterval time.Duration `mapstructure:"flash_interval"`
	NavigateDelay time.Duration `mapstructure:"navigate_delay"`
}

// Timing converts the recorder settings for scout.WithTiming.
func (r RecorderConfig) Timing() scout.Timing {
	return scout.Timing{
		AutonDwell:    r.AutonDwell,
		FlashInterval: r.FlashInterval,
		NavigateDelay: r.NavigateDelay,
	}
}

// DraftsConfig selects where unsubmitted logs are kept.
type DraftsConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures the WebSocket surface.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// FieldConfig describes how the field is oriented as seen from the
// scouting stands.
type FieldConfig struct {
	RedOnLeft bool `mapstructure:"red_on_left"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	timing := scout.DefaultTiming()

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.max_retries", 3)

	v.SetDefault("recorder.auton_dwell", timing.AutonDwell)
	v.SetDefault("recorder.flash_interval", timing.FlashInterval)
	v.SetDefault("recorder.navigate_delay", timing.NavigateDelay)

	v.SetDefault("drafts.driver", "sqlite")
	v.SetDefault("drafts.dsn", defaultDraftsPath())

	v.SetDefault("server.address", ":8080")

	v.SetDefault("field.red_on_left", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func defaultDraftsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quickscout-drafts.db"
	}
	return filepath.Join(dir, "quickscout", "drafts.db")
}

// Load reads the configuration. An explicit path must exist; with an empty
// path quickscout.yaml is looked up in the working directory and the user
// config directory, and its absence is not an error.
func Load(path string) (*Config, error) {
	return Decode(New(), path)
}

// Decode reads the config file into v, then validates and returns the
// merged configuration.
func Decode(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("quickscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "quickscout"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url %q must be an http(s) URL", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must not be negative")
	}
	if c.Recorder.AutonDwell < 0 || c.Recorder.FlashInterval <= 0 || c.Recorder.NavigateDelay < 0 {
		return fmt.Errorf("recorder delays must be positive")
	}
	switch c.Drafts.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Drafts.DSN == "" {
			return fmt.Errorf("drafts.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("drafts.driver %q: want sqlite, postgres or memory", c.Drafts.Driver)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: want debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: want json or console", c.Logging.Format)
	}
	return nil
}
