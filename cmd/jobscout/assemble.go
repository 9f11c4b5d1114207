package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/checkpoint"
	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/listing"
	"github.com/jonathan/jobscout/internal/llm"
	"github.com/jonathan/jobscout/internal/observability"
	"github.com/jonathan/jobscout/internal/types"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <posting-url>",
	Short: "Assemble a checkpoint package for one posting",
	Long: `Scrapes the posting page, evaluates the candidate fit, drafts the cover
letter and email body, and commits everything as one atomically-created
package directory in the collection. A package missing required pieces is
still created and flagged incomplete. Without an API key the generation
steps are skipped and the package records only the scraped detail.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

var (
	assembleConfigPath string
	assembleCollection string
	assembleProfile    string
	assembleAPIKey     string
	assembleContact    string
	assembleTitle      string
	assembleUseBrowser bool
	assembleVerbose    bool
)

func init() {
	assembleCmd.Flags().StringVar(&assembleConfigPath, "config", "", "Path to config.json file")
	assembleCmd.Flags().StringVarP(&assembleCollection, "collection", "o", "", "Destination collection directory")
	assembleCmd.Flags().StringVarP(&assembleProfile, "profile", "p", "", "Path to the candidate profile text file")
	assembleCmd.Flags().StringVar(&assembleAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	assembleCmd.Flags().StringVar(&assembleContact, "contact", "", "Destination contact reference (overrides the scraped one)")
	assembleCmd.Flags().StringVar(&assembleTitle, "title", "", "Posting title (overrides the scraped one)")
	assembleCmd.Flags().BoolVar(&assembleUseBrowser, "use-browser", false, "Use headless browser for script-rendered postings (requires Chrome)")
	assembleCmd.Flags().BoolVarP(&assembleVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfigFile(assembleConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("collection") {
		cfg.CollectionDir = assembleCollection
	}
	if cmd.Flags().Changed("profile") {
		cfg.ProfilePath = assembleProfile
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = assembleAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = assembleUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = assembleVerbose
	}
	cfg = cfg.MergeWithDefaults(config.Config{})
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	id, err := identity.Normalize(args[0], "", nil)
	if err != nil {
		return fmt.Errorf("cannot identify posting: %w", err)
	}

	client := listing.NewClient(
		listing.WithBrowserFallback(cfg.UseBrowser),
		listing.WithVerbose(cfg.Verbose),
	)
	detail, err := client.FetchDetail(ctx, id.FullReference)
	if err != nil {
		return fmt.Errorf("failed to scrape posting: %w", err)
	}

	in := checkpoint.Input{
		Identity:   id,
		Detail:     detail,
		ContactRef: assembleContact,
	}
	if in.ContactRef == "" {
		in.ContactRef = detail.ContactRef()
	}
	in.Title = assembleTitle
	if in.Title == "" {
		in.Title, _ = detail["title"].(string)
	}

	printer := observability.NewPrinter(os.Stdout)

	if cfg.APIKey != "" {
		profile, err := loadProfile(cfg.ProfilePath)
		if err != nil {
			return err
		}
		in.Match, in.Letters, err = generate(ctx, cfg.APIKey, detail, profile)
		if err != nil {
			return err
		}
		printer.PrintMatchSummary(in.Match)
	} else if cfg.Verbose {
		fmt.Fprintln(os.Stdout, "No API key configured; skipping match and letter generation")
	}

	assembler, err := checkpoint.NewAssembler(cfg.CollectionDir)
	if err != nil {
		return err
	}

	pkg, err := assembler.Assemble(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to assemble package: %w", err)
	}

	printer.PrintPackage(pkg)
	fmt.Fprintf(os.Stdout, "Package directory: %s\n", pkg.Dir)
	return nil
}

func loadProfile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--profile is required when generation is enabled (via flag or config)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read profile: %w", err)
	}
	profile := strings.TrimSpace(string(data))
	if profile == "" {
		return "", fmt.Errorf("profile file %s is empty", path)
	}
	return profile, nil
}

func generate(ctx context.Context, apiKey string, detail types.SourceDetail, profile string) (types.MatchSummary, types.LetterArtifacts, error) {
	client, err := llm.NewClient(ctx, nil, apiKey)
	if err != nil {
		return types.MatchSummary{}, nil, err
	}
	defer func() { _ = client.Close() }()

	gen := llm.NewGenerator(client)

	match, err := gen.EvaluateMatch(ctx, detail, profile)
	if err != nil {
		return types.MatchSummary{}, nil, err
	}

	letters, err := gen.DraftLetters(ctx, detail, profile)
	if err != nil {
		return types.MatchSummary{}, nil, err
	}

	return match, letters, nil
}
