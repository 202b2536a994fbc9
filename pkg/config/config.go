// Package config loads campaign configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// apiKeyEnv overrides the directory API key from the environment so the
// secret can stay out of config files.
const apiKeyEnv = "REACHOUT_API_KEY"

// Config is the top-level campaign configuration.
type Config struct {
	Directory DirectoryConfig `yaml:"directory"`
	Search    SearchConfig    `yaml:"search"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Outreach  OutreachConfig  `yaml:"outreach"`
	Storage   StorageConfig   `yaml:"storage"`
}

// DirectoryConfig holds the messaging provider connection settings.
type DirectoryConfig struct {
	DSN               string  `yaml:"dsn"`
	APIKey            string  `yaml:"api_key"`
	AccountID         string  `yaml:"account_id"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Timeout           string  `yaml:"timeout"`
}

// SearchConfig holds search engine scraping settings.
type SearchConfig struct {
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	ProxyFile   string `yaml:"proxy_file"`
	Fingerprint string `yaml:"fingerprint"`
}

// DiscoveryConfig controls profile discovery.
type DiscoveryConfig struct {
	Keyword       string `yaml:"keyword"`
	Description   string `yaml:"description"`
	MaxResults    int    `yaml:"max_results"`
	PerQueryLimit int    `yaml:"per_query_limit"`
	PaceMin       string `yaml:"pace_min"`
	PaceMax       string `yaml:"pace_max"`
}

// OutreachConfig controls message delivery.
type OutreachConfig struct {
	MessageTemplate    string  `yaml:"message_template"`
	ConnectionTemplate string  `yaml:"connection_template"`
	Personalize        bool    `yaml:"personalize"`
	Workers            int     `yaml:"workers"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	Jitter             float64 `yaml:"jitter"`
}

// StorageConfig selects and configures the result store.
type StorageConfig struct {
	// Backend is one of "csv", "json", "sqlite" or "postgres".
	Backend string `yaml:"backend"`
	// Path is the output file for file-based backends.
	Path string `yaml:"path"`
	// DSN is the connection string for the postgres backend.
	DSN string `yaml:"dsn"`
}

// Default returns a configuration with sensible campaign defaults applied.
func Default() Config {
	return Config{
		Directory: DirectoryConfig{
			RequestsPerSecond: 1,
			Timeout:           "30s",
		},
		Search: SearchConfig{
			Timeout: "20s",
		},
		Discovery: DiscoveryConfig{
			MaxResults:    25,
			PerQueryLimit: 10,
			PaceMin:       "500ms",
			PaceMax:       "1500ms",
		},
		Outreach: OutreachConfig{
			Personalize:       true,
			Workers:           1,
			RequestsPerSecond: 2,
			Jitter:            0.2,
		},
		Storage: StorageConfig{
			Backend: "csv",
			Path:    "outreach_results.csv",
		},
	}
}

// Load reads a YAML config file, applies defaults for unset fields and the
// environment override for the API key, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.Directory.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Directory.DSN == "" {
		return errors.New("directory.dsn is required")
	}
	if c.Directory.APIKey == "" {
		return fmt.Errorf("directory.api_key is required (or set %s)", apiKeyEnv)
	}
	if c.Directory.AccountID == "" {
		return errors.New("directory.account_id is required")
	}
	if c.Discovery.Keyword == "" {
		return errors.New("discovery.keyword is required")
	}
	if c.Discovery.MaxResults < 0 {
		return errors.New("discovery.max_results must not be negative")
	}
	if c.Outreach.MessageTemplate == "" {
		return errors.New("outreach.message_template is required")
	}
	if c.Outreach.ConnectionTemplate == "" {
		return errors.New("outreach.connection_template is required")
	}
	if c.Outreach.Jitter < 0 || c.Outreach.Jitter > 1 {
		return errors.New("outreach.jitter must be between 0.0 and 1.0")
	}

	switch c.Storage.Backend {
	case "csv", "json", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"directory.timeout", c.Directory.Timeout},
		{"search.timeout", c.Search.Timeout},
		{"discovery.pace_min", c.Discovery.PaceMin},
		{"discovery.pace_max", c.Discovery.PaceMax},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
	}

	return nil
}

// Duration parses a duration field that Validate has already vetted,
// returning the fallback for empty values.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
