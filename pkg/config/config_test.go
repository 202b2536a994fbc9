package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
directory:
  dsn: "https://api.example.com"
  api_key: "key-123"
  account_id: "acct-9"
discovery:
  keyword: "Software Engineer"
  description: "fintech startup"
outreach:
  message_template: "Hi {name}"
  connection_template: "Hi {name}, let's connect."
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Directory.APIKey != "key-123" || cfg.Directory.AccountID != "acct-9" {
		t.Errorf("unexpected directory config: %+v", cfg.Directory)
	}
	if cfg.Discovery.Keyword != "Software Engineer" {
		t.Errorf("unexpected keyword: %q", cfg.Discovery.Keyword)
	}

	// Defaults fill in what the file leaves unset.
	if cfg.Discovery.MaxResults != 25 || cfg.Discovery.PaceMin != "500ms" {
		t.Errorf("defaults not applied: %+v", cfg.Discovery)
	}
	if cfg.Outreach.Workers != 1 {
		t.Errorf("expected default worker count 1, got %d", cfg.Outreach.Workers)
	}
	if cfg.Storage.Backend != "csv" {
		t.Errorf("expected default csv backend, got %q", cfg.Storage.Backend)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REACHOUT_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Directory.APIKey != "env-key" {
		t.Errorf("expected environment to override the file key, got %q", cfg.Directory.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Default()
		cfg.Directory.DSN = "https://api.example.com"
		cfg.Directory.APIKey = "k"
		cfg.Directory.AccountID = "a"
		cfg.Discovery.Keyword = "CTO"
		cfg.Outreach.MessageTemplate = "Hi {name}"
		cfg.Outreach.ConnectionTemplate = "Hello"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing dsn", func(c *Config) { c.Directory.DSN = "" }, "directory.dsn"},
		{"missing keyword", func(c *Config) { c.Discovery.Keyword = "" }, "discovery.keyword"},
		{"negative max results", func(c *Config) { c.Discovery.MaxResults = -1 }, "max_results"},
		{"bad jitter", func(c *Config) { c.Outreach.Jitter = 1.5 }, "jitter"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "unknown storage backend"},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.dsn"},
		{"bad pace duration", func(c *Config) { c.Discovery.PaceMin = "fast" }, "pace_min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("750ms", time.Second); got != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", got)
	}
	if got := Duration("", 2*time.Second); got != 2*time.Second {
		t.Errorf("expected fallback, got %v", got)
	}
	if got := Duration("garbage", time.Second); got != time.Second {
		t.Errorf("expected fallback for invalid value, got %v", got)
	}
}
