// Package main provides the entry point for the jobscout CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Incremental job posting acquisition and application packaging",
	Long:  "jobscout scrapes job board listings incrementally, deduplicates postings against a local ledger, and assembles per-application checkpoint packages with generated match summaries and cover letters.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigFile loads and validates the optional config file. Commands
// apply their flag overrides on top, then merge built-in defaults.
func loadConfigFile(path string) (config.Config, error) {
	var cfg config.Config
	if path == "" {
		return cfg, nil
	}
	loaded, err := config.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return cfg, err
	}
	return *loaded, nil
}
