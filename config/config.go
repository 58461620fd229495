// Package config holds scraping engine configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob the engine consumes. It is constructed once per
// run and treated as read-only afterwards.
type Config struct {
	RateLimitInterval  time.Duration `yaml:"rate_limit_interval"`
	MaxRequestsPerHour int           `yaml:"max_requests_per_hour"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryBackoffFactor float64       `yaml:"retry_backoff_factor"`
	RetryBaseDelay     time.Duration `yaml:"retry_base_delay"`
	RetryBackoffMax    time.Duration `yaml:"retry_backoff_max"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	RobotsTimeout      time.Duration `yaml:"robots_timeout"`
	RobotsCacheTTL     time.Duration `yaml:"robots_cache_ttl"`
	RotateUserAgents   bool          `yaml:"rotate_user_agents"`
	RespectRobotsTxt   bool          `yaml:"respect_robots_txt"`
	UserAgents         []string      `yaml:"user_agents,omitempty"`
	RobotsAgent        string        `yaml:"robots_agent"`
	HostParallelism    int           `yaml:"host_parallelism"`
	OutputDir          string        `yaml:"output_dir"`
	OutputFormat       string        `yaml:"output_format"` // csv, json, or dual
	MetricsAddr        string        `yaml:"metrics_addr,omitempty"`
	Verbose            bool          `yaml:"verbose"`
}

// DefaultConfig returns conservative, polite defaults.
func DefaultConfig() *Config {
	return &Config{
		RateLimitInterval:  2 * time.Second,
		MaxRequestsPerHour: 600,
		MaxRetries:         3,
		RetryBackoffFactor: 2.0,
		RetryBaseDelay:     1 * time.Second,
		RetryBackoffMax:    30 * time.Second,
		RequestTimeout:     30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		RobotsTimeout:      5 * time.Second,
		RobotsCacheTTL:     24 * time.Hour,
		RotateUserAgents:   true,
		RespectRobotsTxt:   true,
		RobotsAgent:        "go-scrape-products",
		HostParallelism:    1,
		OutputDir:          "output",
		OutputFormat:       "json",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.RateLimitInterval < 0 {
		return fmt.Errorf("rate limit interval cannot be negative")
	}
	if c.MaxRequestsPerHour <= 0 {
		return fmt.Errorf("max requests per hour must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoffFactor < 1.0 {
		return fmt.Errorf("retry backoff factor must be at least 1.0")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("retry base delay cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBaseDelay > c.RetryBackoffMax {
		return fmt.Errorf("retry base delay (%s) cannot exceed retry backoff max (%s)", c.RetryBaseDelay, c.RetryBackoffMax)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.RobotsTimeout <= 0 {
		return fmt.Errorf("robots timeout must be positive")
	}
	if c.RobotsCacheTTL <= 0 {
		return fmt.Errorf("robots cache TTL must be positive")
	}
	if c.RobotsAgent == "" {
		return fmt.Errorf("robots agent cannot be empty")
	}
	if c.HostParallelism <= 0 {
		return fmt.Errorf("host parallelism must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// WriteFile serialises the config as YAML, backing the generate-config command.
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// EnvString reads a string override from the environment.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer override from the environment.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
