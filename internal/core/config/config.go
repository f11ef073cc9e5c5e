// Package config provides configuration management for the fiscal validator.
package config

import "fmt"

// Config holds the validator's runtime configuration.
type Config struct {
	// CacheLimit bounds the engine's result cache; 0 means unbounded.
	CacheLimit int

	// RulesPath points at a catalogue document to load instead of the
	// embedded defaults. Empty means use the defaults.
	RulesPath string

	// DBURL selects the rule store backend (sqlite:// or postgres://).
	// Empty disables persistence.
	DBURL string

	// CSVDelimiter is the ingestion field delimiter.
	CSVDelimiter string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		CacheLimit:   0,
		RulesPath:    "",
		DBURL:        "",
		CSVDelimiter: ";",
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if c.CacheLimit < 0 {
		return fmt.Errorf("cache_limit must be zero or positive, got %d", c.CacheLimit)
	}
	if len([]rune(c.CSVDelimiter)) != 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", c.CSVDelimiter)
	}
	return nil
}

// Delimiter returns the CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	return []rune(c.CSVDelimiter)[0]
}
