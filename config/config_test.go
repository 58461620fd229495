package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative rate limit interval",
			mutate: func(cfg *Config) {
				cfg.RateLimitInterval = -1 * time.Second
			},
			wantErr: "rate limit interval",
		},
		{
			name: "zero hourly budget",
			mutate: func(cfg *Config) {
				cfg.MaxRequestsPerHour = 0
			},
			wantErr: "max requests per hour",
		},
		{
			name: "negative max retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = -1
			},
			wantErr: "max retries",
		},
		{
			name: "backoff factor below one",
			mutate: func(cfg *Config) {
				cfg.RetryBackoffFactor = 0.5
			},
			wantErr: "backoff factor",
		},
		{
			name: "base delay above max",
			mutate: func(cfg *Config) {
				cfg.RetryBaseDelay = time.Minute
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry base delay",
		},
		{
			name: "zero request timeout",
			mutate: func(cfg *Config) {
				cfg.RequestTimeout = 0
			},
			wantErr: "request timeout",
		},
		{
			name: "empty robots agent",
			mutate: func(cfg *Config) {
				cfg.RobotsAgent = ""
			},
			wantErr: "robots agent",
		},
		{
			name: "bad output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")

	cfg := DefaultConfig()
	cfg.RateLimitInterval = 5 * time.Second
	cfg.MaxRetries = 1
	cfg.OutputFormat = "dual"
	if err := cfg.WriteFile(path); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.RateLimitInterval != 5*time.Second {
		t.Fatalf("rate limit interval = %v, want 5s", loaded.RateLimitInterval)
	}
	if loaded.MaxRetries != 1 {
		t.Fatalf("max retries = %d, want 1", loaded.MaxRetries)
	}
	if loaded.OutputFormat != "dual" {
		t.Fatalf("output format = %q, want dual", loaded.OutputFormat)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")

	cfg := DefaultConfig()
	cfg.RetryBackoffFactor = 0.2
	if err := cfg.WriteFile(path); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "backoff factor") {
		t.Fatalf("expected backoff factor validation error, got %v", err)
	}
}
