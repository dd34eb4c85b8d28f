package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/pkg-replicator/internal/replicator"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// Sync command flags
var (
	syncDest       string
	syncRetain     int
	syncDryRun     bool
	syncNoProgress bool
)

func createSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "replicate local packages onto the destination store",
		Long: `Sync reconciles the local package inventory (seeded plus installed),
selects the revisions missing from the destination, synthesizes metadata
bundles for installed packages and copies each payload+bundle pair in,
then prunes old revisions and repairs any unpaired files.`,
		Args: cobra.NoArgs,
		RunE: executeSync,
	}

	syncCmd.Flags().StringVar(&syncDest, "dest", "",
		"Destination store root (overrides the config file)")
	syncCmd.Flags().IntVar(&syncRetain, "retain", 0,
		"Revisions to retain per package name (overrides the config file)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false,
		"Report what would be copied and pruned without writing anything")
	syncCmd.Flags().BoolVar(&syncNoProgress, "no-progress", false,
		"Log transfers instead of rendering a progress bar")
	return syncCmd
}

func executeSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(syncDest)
	if err != nil {
		return err
	}
	if err := applyRetainOverride(cmd.Flags(), cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := replicator.New(cfg, syncDryRun)

	// The progress consumer doubles as the run supervisor: it drains
	// the engine's progress channel while the run executes in this
	// goroutine.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeProgress(runner, syncNoProgress || syncDryRun)
	}()

	rep, err := runner.Run(ctx)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("run %s %s: %w", rep.RunID, rep.Phase, err)
	}
	return nil
}

// consumeProgress renders transfer progress until the runner closes its
// event channel. Progress tuples carry (percent, current item).
func consumeProgress(runner *replicator.Runner, plain bool) {
	log := logger.Logger()

	if plain {
		for p := range runner.Events() {
			log.Infof("Progress %3d%% %s", p.Percent, p.Item)
		}
		return
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionFullWidth(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("copying"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	for p := range runner.Events() {
		bar.Describe(fmt.Sprintf("copying %s", p.Item))
		_ = bar.Set(p.Percent)
	}
	_ = bar.Finish()
	fmt.Println()
}
