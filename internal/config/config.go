// Package config loads planforge configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"planforge/internal/quota"
)

// Config holds all planforge configuration.
type Config struct {
	// Subscription tier driving the quota policy.
	Tier string `yaml:"tier"`

	Oracle    OracleConfig    `yaml:"oracle"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OracleConfig configures the generation service client.
type OracleConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// TelemetryConfig configures the feedback recorder.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	FlushInterval string `yaml:"flush_interval"`
	BufferLimit   int    `yaml:"buffer_limit"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tier: string(quota.TierStandard),
		Oracle: OracleConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "120s",
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			FlushInterval: "30s",
			BufferLimit:   1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// PLANFORGE_API_KEY wins over GEMINI_API_KEY when both are set.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if key := os.Getenv("PLANFORGE_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if model := os.Getenv("PLANFORGE_MODEL"); model != "" {
		c.Oracle.Model = model
	}
	if url := os.Getenv("PLANFORGE_ORACLE_URL"); url != "" {
		c.Oracle.BaseURL = url
	}
	if tier := os.Getenv("PLANFORGE_TIER"); tier != "" {
		c.Tier = tier
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if !quota.Tier(c.Tier).Valid() {
		return fmt.Errorf("unknown tier %q (valid: standard, premium)", c.Tier)
	}
	if c.Telemetry.BufferLimit < 0 {
		return fmt.Errorf("telemetry buffer_limit must be >= 0")
	}
	return nil
}

// QuotaTier returns the configured tier.
func (c *Config) QuotaTier() quota.Tier {
	return quota.Tier(c.Tier)
}

// OracleTimeout returns the oracle timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// TelemetryFlushInterval returns the flush cadence as a duration.
func (c *Config) TelemetryFlushInterval() time.Duration {
	d, err := time.ParseDuration(c.Telemetry.FlushInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
