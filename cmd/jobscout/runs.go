package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/ledger"
	"github.com/jonathan/jobscout/internal/observability"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent acquisition run history",
	Long:  "Lists recent per-page acquisition rows from the ledger, newest first, with new and duplicate counts per page.",
	RunE:  runRuns,
}

var (
	runsConfigPath string
	runsLedgerPath string
	runsSearch     string
	runsLimit      int
)

func init() {
	runsCmd.Flags().StringVar(&runsConfigPath, "config", "", "Path to config.json file")
	runsCmd.Flags().StringVar(&runsLedgerPath, "db", "", "Path to the ledger database file")
	runsCmd.Flags().StringVarP(&runsSearch, "search", "s", "", "Only show rows for this search context")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of rows to show")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfigFile(runsConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.LedgerPath = runsLedgerPath
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.ListRuns(ctx, ledger.RunFilters{
		SearchContext: runsSearch,
		Limit:         runsLimit,
	})
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintRunHistory(rows)
	return nil
}
