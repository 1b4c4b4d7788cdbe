// Package config loads and validates the ocmirror.yaml configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults, matching the tool's long-standing behavior: patient timeouts
// and generous retry budgets, because the remotes this mirrors are slow
// and flaky by nature.
const (
	DefaultDownloadRoot    = "./downloads"
	DefaultMaxRetries      = 10
	DefaultDownloadTimeout = time.Hour
	DefaultListingTimeout  = 60 * time.Second
	DefaultRetryWait       = 30 * time.Second
	DefaultMaxFullCycles   = 10
	DefaultCycleWait       = 60 * time.Second
)

// Load reads, expands and validates a config file.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// Read parses a config file without applying defaults or validating.
// Callers that layer flag overrides on top use Read, then ApplyDefaults
// and Validate once the overrides are in place.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields and expands environment
// references in the credentials.
func (c *Config) ApplyDefaults() {
	c.RemoteURL = os.ExpandEnv(c.RemoteURL)
	c.SharePassword = os.ExpandEnv(c.SharePassword)
	if c.SharePassword == "" {
		c.SharePassword = os.Getenv("OCMIRROR_PASSWORD")
	}

	if c.DownloadRoot == "" {
		c.DownloadRoot = DefaultDownloadRoot
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = Duration(DefaultDownloadTimeout)
	}
	if c.ListingTimeout == 0 {
		c.ListingTimeout = Duration(DefaultListingTimeout)
	}
	if c.RetryWait == 0 {
		c.RetryWait = Duration(DefaultRetryWait)
	}
	if c.MaxFullCycles == 0 {
		c.MaxFullCycles = DefaultMaxFullCycles
	}
	if c.CycleWait == 0 {
		c.CycleWait = Duration(DefaultCycleWait)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.RemoteURL == "" {
		errs = append(errs, "'remote_url' is required — set it to the public share link")
	} else if !strings.HasPrefix(cfg.RemoteURL, "http://") && !strings.HasPrefix(cfg.RemoteURL, "https://") {
		errs = append(errs, fmt.Sprintf("'remote_url' %q must start with http:// or https://", cfg.RemoteURL))
	}

	if cfg.SharePassword == "" {
		errs = append(errs, "'share_password' is required — set it in the config or via OCMIRROR_PASSWORD")
	}

	if cfg.MaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("'max_retries' must be at least 1, got %d", cfg.MaxRetries))
	}
	if cfg.MaxFullCycles < 1 {
		errs = append(errs, fmt.Sprintf("'max_full_cycles' must be at least 1, got %d", cfg.MaxFullCycles))
	}

	for _, d := range []struct {
		name string
		val  Duration
	}{
		{"download_timeout", cfg.DownloadTimeout},
		{"listing_timeout", cfg.ListingTimeout},
		{"retry_wait", cfg.RetryWait},
		{"cycle_wait", cfg.CycleWait},
	} {
		if d.val < 0 {
			errs = append(errs, fmt.Sprintf("'%s' must not be negative", d.name))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level %q — must be one of: debug, info, warn, error", cfg.LogLevel))
	}

	return errs
}
