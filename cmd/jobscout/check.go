package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/ledger"
)

var checkCmd = &cobra.Command{
	Use:   "check <posting-url>",
	Short: "Check whether a posting is already in the ledger",
	Long:  "Normalizes the posting reference and reports whether the (posting, search, candidate) triple has been seen before. Exits non-zero with status 3 when it is a duplicate, so scripts can branch on the result.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var (
	checkConfigPath string
	checkSearch     string
	checkCandidate  string
	checkLedgerPath string
)

func init() {
	checkCmd.Flags().StringVar(&checkConfigPath, "config", "", "Path to config.json file")
	checkCmd.Flags().StringVarP(&checkSearch, "search", "s", "", "Search context the posting was found under (required)")
	checkCmd.Flags().StringVarP(&checkCandidate, "candidate", "c", "", "Candidate context (required)")
	checkCmd.Flags().StringVar(&checkLedgerPath, "db", "", "Path to the ledger database file")

	if err := checkCmd.MarkFlagRequired("search"); err != nil {
		panic(fmt.Sprintf("failed to mark search flag as required: %v", err))
	}
	if err := checkCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfigFile(checkConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.LedgerPath = checkLedgerPath
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	id, err := identity.Normalize(args[0], "", nil)
	if err != nil {
		return fmt.Errorf("cannot identify posting: %w", err)
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}

	exists, err := store.Exists(ctx, id, checkSearch, checkCandidate)
	closeErr := store.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	if exists {
		fmt.Fprintf(os.Stdout, "duplicate: %s\n", id.CanonicalKey)
		os.Exit(3)
	}

	fmt.Fprintf(os.Stdout, "new: %s\n", id.CanonicalKey)
	return nil
}
