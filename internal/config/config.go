// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags. Search and candidate contexts are deliberately absent: they are
// per-invocation parameters, never ambient configuration.
type Config struct {
	// Paths
	LedgerPath    string `json:"ledger_path,omitempty"`    // Path to the dedup ledger database file
	CollectionDir string `json:"collection_dir,omitempty"` // Destination collection for checkpoint packages
	ProfilePath   string `json:"profile_path,omitempty"`   // Path to the candidate profile text file

	// Limits
	MaxPages int `json:"max_pages,omitempty"` // Page ceiling per acquisition run

	// Behavior
	APIKey     string `json:"api_key,omitempty"`     // Gemini API key
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for script-rendered sites
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information
}

// DefaultLedgerPath is the ledger location when none is configured.
const DefaultLedgerPath = "jobscout.db"

// DefaultCollectionDir is the package collection when none is configured.
const DefaultCollectionDir = "applications"

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.MaxPages < 0 {
		return fmt.Errorf("config error: 'max_pages' must be non-negative")
	}

	if c.ProfilePath != "" {
		if _, err := os.Stat(c.ProfilePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.ProfilePath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.LedgerPath == "" {
		result.LedgerPath = defaults.LedgerPath
	}
	if result.LedgerPath == "" {
		result.LedgerPath = DefaultLedgerPath
	}
	if result.CollectionDir == "" {
		result.CollectionDir = defaults.CollectionDir
	}
	if result.CollectionDir == "" {
		result.CollectionDir = DefaultCollectionDir
	}
	if result.ProfilePath == "" {
		result.ProfilePath = defaults.ProfilePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	// Int fields: use default if zero
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
