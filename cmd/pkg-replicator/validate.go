package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-replicator/internal/config"
)

func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate CONFIG_FILE",
		Short: "validate a configuration file",
		Long: `Validate loads the given configuration file, checks it against the
configuration schema and reports the result without running anything.`,
		Args: cobra.ExactArgs(1),
		RunE: executeValidate,
	}
	return validateCmd
}

func executeValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
	return nil
}
