// Package config loads proxy configuration from an optional YAML file with
// environment variable overrides (RMCP_ prefix).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// BackendConfig points the proxy at the analytics backend.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"API_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// Timeout returns the configured backend timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// HTTPConfig contains the proxy's own listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// RBACConfig selects the permission policy source. An empty PolicyFile
// means the compiled-in reference policy.
type RBACConfig struct {
	PolicyFile string `yaml:"policy_file" envconfig:"POLICY_FILE"`
}

// LimitsConfig holds rate limiting knobs.
type LimitsConfig struct {
	QueriesPerMinute int `yaml:"queries_per_minute" envconfig:"QUERIES_PER_MINUTE"`
}

// PromptsConfig optionally replaces the compiled-in prompt templates.
type PromptsConfig struct {
	DashboardTemplate string `yaml:"dashboard_template" envconfig:"DASHBOARD_TEMPLATE"`
	SchemaTemplate    string `yaml:"schema_template" envconfig:"SCHEMA_TEMPLATE"`
}

// Config is the root configuration structure.
type Config struct {
	// LogLevel controls slog verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	// LogFormat selects "text" or "json" output.
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`

	HTTP    HTTPConfig    `yaml:"http" envconfig:"HTTP"`
	Backend BackendConfig `yaml:"backend" envconfig:"BACKEND"`
	RBAC    RBACConfig    `yaml:"rbac" envconfig:"RBAC"`
	Limits  LimitsConfig  `yaml:"limits" envconfig:"LIMITS"`
	Prompts PromptsConfig `yaml:"prompts" envconfig:"PROMPTS"`
}

// Load reads configuration from path, or from ./config.yaml when path is
// empty and the file exists. Priority: env vars > config file > defaults.
func Load(path string) (*Config, error) {
	// .env files are optional conveniences for local development.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("RMCP", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.Limits.QueriesPerMinute <= 0 {
		cfg.Limits.QueriesPerMinute = 60
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (RMCP_BACKEND_BASE_URL or backend.base_url)")
	}
	return nil
}
