package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/checkpoint"
	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/observability"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List checkpoint packages in the collection",
	Long:  "Lists every checkpoint package with its sequence label, lifecycle state, and posting. Incomplete packages are marked so none slip through unnoticed.",
	RunE:  runPackages,
}

var (
	packagesConfigPath string
	packagesCollection string
	packagesState      string
)

func init() {
	packagesCmd.Flags().StringVar(&packagesConfigPath, "config", "", "Path to config.json file")
	packagesCmd.Flags().StringVarP(&packagesCollection, "collection", "o", "", "Collection directory to list")
	packagesCmd.Flags().StringVar(&packagesState, "state", "", "Only show packages in this lifecycle state")

	rootCmd.AddCommand(packagesCmd)
}

func runPackages(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFile(packagesConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("collection") {
		cfg.CollectionDir = packagesCollection
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	assembler, err := checkpoint.NewAssembler(cfg.CollectionDir)
	if err != nil {
		return err
	}

	pkgs, err := assembler.List()
	if err != nil {
		return err
	}

	if packagesState != "" {
		state, err := checkpoint.ParseState(packagesState)
		if err != nil {
			return err
		}
		filtered := pkgs[:0]
		for _, pkg := range pkgs {
			if pkg.LifecycleState == state {
				filtered = append(filtered, pkg)
			}
		}
		pkgs = filtered
	}

	observability.NewPrinter(os.Stdout).PrintPackages(pkgs)
	return nil
}
