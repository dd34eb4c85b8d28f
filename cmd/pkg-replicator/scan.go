package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-replicator/internal/store"
)

var scanDest string

func createScanCommand() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "list the packages present in the destination store",
		Long: `Scan prints the destination inventory: every package name with its
paired revisions, plus any unpaired files the next pairing sweep would
remove. The destination is not modified.`,
		Args: cobra.NoArgs,
		RunE: executeScan,
	}

	scanCmd.Flags().StringVar(&scanDest, "dest", "",
		"Destination store root (overrides the config file)")
	return scanCmd
}

func executeScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(scanDest)
	if err != nil {
		return err
	}

	inv, err := store.Scan(cfg.Destination)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range inv.Names() {
		revs := inv.Revisions(name)
		strs := make([]string, len(revs))
		for i, r := range revs {
			strs[i] = fmt.Sprintf("%d", r)
		}
		fmt.Fprintf(out, "%s\trevisions: %s\n", name, strings.Join(strs, ", "))
	}
	for _, orphan := range inv.Orphans {
		fmt.Fprintf(out, "orphan\t%s\n", orphan.Path)
	}
	if len(inv.Pairs) == 0 && len(inv.Orphans) == 0 {
		fmt.Fprintln(out, "destination store is empty")
	}
	return nil
}
