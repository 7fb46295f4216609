// Package config loads and validates application configuration from a YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Client        ClientConfig        `yaml:"client"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ClientConfig describes HTTP client settings for talking to a backend.
type ClientConfig struct {
	// RequestTimeout is the flat per-request deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ResourceTimeout bounds the whole exchange including slow bodies.
	ResourceTimeout time.Duration `yaml:"resource_timeout"`
	// PageLimit is the default page size for record listings.
	PageLimit int `yaml:"page_limit"`
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// StoreConfig describes where the company list is persisted.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ObservabilityConfig describes logging and tracing settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// TracingConfig describes trace export settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Client: ClientConfig{
			RequestTimeout:  30 * time.Second,
			ResourceTimeout: 60 * time.Second,
			PageLimit:       20,
			MaxBodyBytes:    10 << 20,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "stdout",
				SamplingRate: 1.0,
			},
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "remotectl.db"
	}
	return home + "/.remotectl/companies.db"
}

// Load reads a YAML config file, applies environment variable overrides, and
// validates required fields. A missing file is not an error: defaults plus
// env overrides apply, so the CLI works without any config at all.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all fields are in range.
func (c *Config) Validate() error {
	var errs []string

	if c.Client.RequestTimeout <= 0 {
		errs = append(errs, "client.request_timeout must be positive")
	}
	if c.Client.ResourceTimeout < c.Client.RequestTimeout {
		errs = append(errs, "client.resource_timeout must be at least client.request_timeout")
	}
	if c.Client.PageLimit < 1 {
		errs = append(errs, "client.page_limit must be at least 1")
	}
	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads REMOTECTL_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REMOTECTL_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REMOTECTL_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("REMOTECTL_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Client.RequestTimeout = d
		}
	}
	if v := os.Getenv("REMOTECTL_PAGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Client.PageLimit = n
		}
	}
	if v := os.Getenv("REMOTECTL_TRACING_ENABLED"); v != "" {
		cfg.Observability.Tracing.Enabled = v == "true" || v == "1"
	}
}
