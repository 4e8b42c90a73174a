package app

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. All fields have working
// defaults; a YAML file can override any of them.
type Config struct {
	// Addr is the listen address for the HTTP transport (e.g. ":8080").
	Addr string `yaml:"addr"`

	// ReadTimeout bounds reading the full request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds the graceful drain of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps the request body size accepted by the transport
	// adapter. Zero means no limit.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Log configures the application logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures the zap logger built by NewLogger.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	Level string `yaml:"level"`

	// Development switches to zap's development config (console encoder,
	// stacktraces on warnings).
	Development bool `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    4 << 20,
		Log:             LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML configuration file, applying defaults for any
// field the file leaves unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("app: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("app: parse config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds a zap logger from the log configuration.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	lvl := c.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("app: parse log level %q: %w", c.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	if c.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
