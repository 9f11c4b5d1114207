package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobscout/internal/checkpoint"
	"github.com/jonathan/jobscout/internal/config"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <package-id> <state>",
	Short: "Move a draft package to a terminal lifecycle state",
	Long:  "Transitions a draft checkpoint package to sent, failed, or withdrawn. Terminal states admit no further transitions; re-assembling the same posting is allowed once its package has left draft.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransition,
}

var (
	transitionConfigPath string
	transitionCollection string
)

func init() {
	transitionCmd.Flags().StringVar(&transitionConfigPath, "config", "", "Path to config.json file")
	transitionCmd.Flags().StringVarP(&transitionCollection, "collection", "o", "", "Collection directory holding the package")

	rootCmd.AddCommand(transitionCmd)
}

func runTransition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFile(transitionConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("collection") {
		cfg.CollectionDir = transitionCollection
	}
	cfg = cfg.MergeWithDefaults(config.Config{})

	packageID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid package id %q: %w", args[0], err)
	}

	state, err := checkpoint.ParseState(args[1])
	if err != nil {
		return err
	}

	assembler, err := checkpoint.NewAssembler(cfg.CollectionDir)
	if err != nil {
		return err
	}

	if err := assembler.Transition(packageID, state); err != nil {
		return fmt.Errorf("transition failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Package %s is now %s\n", packageID, state)
	return nil
}
