// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - Functions that load or watch accept context.Context first.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/huddle/internal/domain/checkin"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	AirtableAPIURL string `koanf:"airtable_api_url"`
	AirtableBaseID string `koanf:"airtable_base_id"`
	AirtableToken  string `koanf:"airtable_token"`
	AirtableTable  string `koanf:"airtable_table"`

	// FetchTimeoutMS bounds a single list call against the record source.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// Timezone is the IANA zone used to decide which calendar day is today.
	Timezone string `koanf:"timezone"`

	// MissingPolicy is distinct or literal.
	MissingPolicy string `koanf:"missing_policy"`

	// RefreshQueueSize bounds pending refresh requests.
	RefreshQueueSize int `koanf:"refresh_queue_size"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		AirtableAPIURL:   "https://api.airtable.com",
		AirtableTable:    "Team Data",
		FetchTimeoutMS:   10_000,
		Timezone:         "UTC",
		MissingPolicy:    string(checkin.PolicyDistinct),
		RefreshQueueSize: 1,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Location resolves Timezone. An empty zone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Policy parses MissingPolicy.
func (c *Config) Policy() (checkin.MissingPolicy, error) {
	p, err := checkin.ParsePolicy(c.MissingPolicy)
	if err != nil {
		return "", fmt.Errorf("%w: missing_policy: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.FetchTimeoutMS <= 0 {
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.RefreshQueueSize <= 0 {
		return fmt.Errorf("%w: refresh_queue_size must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AirtableToken != "" {
		c.AirtableToken = "***"
	}
	return c
}
