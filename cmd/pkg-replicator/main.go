package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// Global command flags
var (
	configPath string // --config
	logLevel   string // --log-level
	verbose    bool   // --verbose, shorthand for --log-level debug
)

func main() {
	// A .env next to the binary may carry PKG_REPLICATOR_* overrides;
	// a missing file is the normal case.
	_ = godotenv.Load()

	root := createRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// createRootCommand builds the pkg-replicator command tree.
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkg-replicator",
		Short: "mirrors local packages onto a portable destination store",
		Long: `pkg-replicator keeps a portable destination store in sync with the
packages available on this host (pre-seeded plus currently installed),
bounded by a per-package retention count and never leaving a payload
without its signed metadata bundle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logger.Setup(resolveRequestedLogLevel(cmd))
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Shorthand for --log-level debug")

	rootCmd.AddCommand(createSyncCommand())
	rootCmd.AddCommand(createScanCommand())
	rootCmd.AddCommand(createPruneCommand())
	rootCmd.AddCommand(createValidateCommand())
	return rootCmd
}

// resolveRequestedLogLevel prefers an explicit --log-level; --verbose
// falls back to debug. Empty means the configured or default level.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil {
		if on, err := cmd.Flags().GetBool("verbose"); err == nil && on {
			return "debug"
		}
	}
	return ""
}
