// Package config loads the finml configuration.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// then FINML_* environment variables. The result is validated before use.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. FINML_LOG_LEVEL.
const EnvPrefix = "FINML"

// Config is the complete application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Market   MarketConfig   `yaml:"market" envconfig:"MARKET"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Charts   ChartsConfig   `yaml:"charts" envconfig:"CHARTS"`
}

// LogConfig controls the zerolog provider.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// MarketConfig selects and configures the market-data provider.
type MarketConfig struct {
	Provider  string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=yahoo alpaca"`
	BaseURL   string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	APIKey    string        `yaml:"api_key" envconfig:"API_KEY"`
	APISecret string        `yaml:"api_secret" envconfig:"API_SECRET"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// PipelineConfig holds the stage parameters.
type PipelineConfig struct {
	Seed             uint64  `yaml:"seed" envconfig:"SEED"`
	TestSize         float64 `yaml:"test_size" envconfig:"TEST_SIZE" validate:"gte=0.1,lte=0.5"`
	OutlierThreshold float64 `yaml:"outlier_threshold" envconfig:"OUTLIER_THRESHOLD" validate:"gt=0"`
	ShortWindow      int     `yaml:"short_window" envconfig:"SHORT_WINDOW" validate:"gte=1"`
	LongWindow       int     `yaml:"long_window" envconfig:"LONG_WINDOW" validate:"gte=1"`
	VolatilityWindow int     `yaml:"volatility_window" envconfig:"VOLATILITY_WINDOW" validate:"gte=2"`
	PreviewRows      int     `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" validate:"gte=1"`
}

// ChartsConfig is the figure size in inches.
type ChartsConfig struct {
	Width  float64 `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	Height float64 `yaml:"height" envconfig:"HEIGHT" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Market: MarketConfig{
			Provider: "yahoo",
			Timeout:  30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Seed:             42,
			TestSize:         0.3,
			OutlierThreshold: 0.5,
			ShortWindow:      7,
			LongWindow:       30,
			VolatilityWindow: 30,
			PreviewRows:      10,
		},
		Charts: ChartsConfig{
			Width:  8,
			Height: 5,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %q", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %q", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "load config from env")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	if c.Pipeline.LongWindow < c.Pipeline.ShortWindow {
		return errors.Newf("config validation failed: long_window %d is shorter than short_window %d",
			c.Pipeline.LongWindow, c.Pipeline.ShortWindow)
	}
	return nil
}
