// Package config loads application configuration from an optional YAML file,
// applies environment variable overrides, fills defaults, and validates the
// result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
		// Password enables the access gate when non-empty. Requests must
		// then carry it as a bearer token.
		Password string `yaml:"password"`
	} `yaml:"server"`
	Data struct {
		EventsDir string `yaml:"events_dir" validate:"required"`
		OHLCPath  string `yaml:"ohlc_path" validate:"required"`
	} `yaml:"data"`
	Chart struct {
		PaddingMinutes int  `yaml:"padding_minutes" validate:"gt=0"`
		ExtendBackward bool `yaml:"extend_backward"`
	} `yaml:"chart"`
	Log struct {
		Level     string `yaml:"level" validate:"oneof=debug info warn error"`
		File      string `yaml:"file"`
		MaxSizeMB int    `yaml:"max_size_mb" validate:"gte=0"`
	} `yaml:"log"`
}

// Padding returns the window padding as a duration.
func (c *Config) Padding() time.Duration {
	return time.Duration(c.Chart.PaddingMinutes) * time.Minute
}

// Load reads config from a YAML file, then applies environment variable
// overrides, fills defaults, and validates. A missing file is not an error;
// the defaults alone form a usable configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("VIEWER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("VIEWER_PASSWORD"); v != "" {
		cfg.Server.Password = v
	}
	if v := os.Getenv("VIEWER_EVENTS_DIR"); v != "" {
		cfg.Data.EventsDir = v
	}
	if v := os.Getenv("VIEWER_OHLC_PATH"); v != "" {
		cfg.Data.OHLCPath = v
	}
	if v := os.Getenv("VIEWER_PADDING_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			cfg.Chart.PaddingMinutes = minutes
		}
	}
	if v := os.Getenv("VIEWER_EXTEND_BACKWARD"); v != "" {
		if extend, err := strconv.ParseBool(v); err == nil {
			cfg.Chart.ExtendBackward = extend
		}
	}
	if v := os.Getenv("VIEWER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("VIEWER_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Data.EventsDir == "" {
		cfg.Data.EventsDir = "output"
	}
	if cfg.Data.OHLCPath == "" {
		cfg.Data.OHLCPath = "data/ohlc_5m.csv"
	}
	if cfg.Chart.PaddingMinutes == 0 {
		cfg.Chart.PaddingMinutes = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
