package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/acquisition"
	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/ledger"
	"github.com/jonathan/jobscout/internal/listing"
	"github.com/jonathan/jobscout/internal/observability"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Fetch listing pages and record new postings in the ledger",
	Long: `Fetches listing pages for a search context one at a time, records unseen
postings in the deduplication ledger, and stops as soon as a whole page of
already-known postings is reached. Re-running against an unchanged listing
touches only the first page.`,
	RunE: runAcquire,
}

var (
	acquireConfigPath string
	acquireSearch     string
	acquireCandidate  string
	acquireBase       string
	acquireMaxPages   int
	acquireLedgerPath string
	acquireUseBrowser bool
	acquireVerbose    bool
)

func init() {
	acquireCmd.Flags().StringVar(&acquireConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	acquireCmd.Flags().StringVarP(&acquireSearch, "search", "s", "", "Search context: listing URL, optionally with a {page} placeholder (required)")
	acquireCmd.Flags().StringVarP(&acquireCandidate, "candidate", "c", "", "Candidate context label the postings are evaluated for (required)")
	acquireCmd.Flags().StringVar(&acquireBase, "base", "", "Base URL for resolving relative posting links (defaults to the search URL)")
	acquireCmd.Flags().IntVar(&acquireMaxPages, "max-pages", 0, "Page ceiling for this run")
	acquireCmd.Flags().StringVar(&acquireLedgerPath, "db", "", "Path to the ledger database file")
	acquireCmd.Flags().BoolVar(&acquireUseBrowser, "use-browser", false, "Use headless browser for script-rendered listings (requires Chrome)")
	acquireCmd.Flags().BoolVarP(&acquireVerbose, "verbose", "v", false, "Print detailed debug information")

	if err := acquireCmd.MarkFlagRequired("search"); err != nil {
		panic(fmt.Sprintf("failed to mark search flag as required: %v", err))
	}
	if err := acquireCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfigFile(acquireConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.LedgerPath = acquireLedgerPath
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = acquireMaxPages
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = acquireUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = acquireVerbose
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client := listing.NewClient(
		listing.WithBrowserFallback(cfg.UseBrowser),
		listing.WithVerbose(cfg.Verbose),
	)
	engine := acquisition.NewEngine(client, store)

	base := acquireBase
	if base == "" {
		base = acquireSearch
	}

	last, err := engine.Run(ctx, acquisition.Params{
		SearchContext:    acquireSearch,
		CandidateContext: acquireCandidate,
		BaseReference:    base,
		MaxPages:         cfg.MaxPages,
		Verbose:          cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("acquisition failed: %w", err)
	}

	rows, err := store.ListRuns(ctx, ledger.RunFilters{RunID: last.RunID})
	if err != nil {
		return err
	}
	// ListRuns is newest first; the summary reads oldest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	observability.NewPrinter(os.Stdout).PrintRunSummary(rows)
	return nil
}
