// Package config loads taskgenie configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all taskgenie configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown, e.g. "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite task store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GeminiConfig configures the generative backend.
type GeminiConfig struct {
	APIKey        string `yaml:"api_key"`
	PrimaryModel  string `yaml:"primary_model"`
	FallbackModel string `yaml:"fallback_model"`

	// RetryDelay is the default wait before the fallback model call
	// when a quota error carries no server-suggested delay, e.g. "5s".
	RetryDelay string `yaml:"retry_delay"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "data/taskgenie.db",
		},
		Gemini: GeminiConfig{
			PrimaryModel:  "gemini-1.5-pro",
			FallbackModel: "gemini-1.5-flash",
			RetryDelay:    "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, merged over defaults and
// with environment overrides applied last. An empty path or a missing
// file yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if addr := os.Getenv("TASKGENIE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("TASKGENIE_DB"); path != "" {
		c.Database.Path = path
	}
}

// Validate checks that required configuration is present. Backend
// credentials are a startup concern, not a request-time one.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api_key is required (set gemini.api_key or GEMINI_API_KEY)")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// GetShutdownTimeout parses the shutdown timeout, defaulting to 10s.
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetRetryDelay parses the fallback retry delay, defaulting to 5s.
func (c *GeminiConfig) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
