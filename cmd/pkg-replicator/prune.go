package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-replicator/internal/retention"
)

// Prune command flags
var (
	pruneDest   string
	pruneRetain int
)

func createPruneCommand() *cobra.Command {
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "run only the pairing and retention sweeps",
		Long: `Prune repairs the destination store without transferring anything:
unpaired payloads and bundles are removed, then revisions beyond the
retention count are deleted as pairs, newest kept first.`,
		Args: cobra.NoArgs,
		RunE: executePrune,
	}

	pruneCmd.Flags().StringVar(&pruneDest, "dest", "",
		"Destination store root (overrides the config file)")
	pruneCmd.Flags().IntVar(&pruneRetain, "retain", 0,
		"Revisions to retain per package name (overrides the config file)")
	return pruneCmd
}

func executePrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(pruneDest)
	if err != nil {
		return err
	}
	if err := applyRetainOverride(cmd.Flags(), cfg); err != nil {
		return err
	}

	orphans, err := retention.PairingSweep(cfg.Destination)
	if err != nil {
		return err
	}
	pruned, err := retention.RetentionSweep(cfg.Destination, cfg.Retain)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "removed %d unpaired file(s), pruned %d file(s)\n",
		len(orphans), len(pruned))
	return nil
}
