// Package replicator drives one replication run end to end: reconcile
// the local inventory, scan the destination, select the copy set,
// synthesize metadata bundles, transfer pairs and finish with the
// consistency and retention sweeps.
//
// One logical run at a time per destination; exclusive access is a
// caller responsibility and is not enforced with a lock.
package replicator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/open-edge-platform/pkg-replicator/internal/config"
	"github.com/open-edge-platform/pkg-replicator/internal/inventory"
	"github.com/open-edge-platform/pkg-replicator/internal/metadata"
	"github.com/open-edge-platform/pkg-replicator/internal/retention"
	"github.com/open-edge-platform/pkg-replicator/internal/selection"
	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/transfer"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// Phase is the observable stage of a run.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseReconciling
	PhaseSelecting
	PhaseSynthesizing
	PhaseTransferring
	PhaseCleanup
	PhaseReconciledClean
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReconciling:
		return "reconciling"
	case PhaseSelecting:
		return "selecting"
	case PhaseSynthesizing:
		return "synthesizing"
	case PhaseTransferring:
		return "transferring"
	case PhaseCleanup:
		return "cleanup"
	case PhaseReconciledClean:
		return "reconciled-clean"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Report summarizes one run for the log and the destination run report.
type Report struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Phase       Phase
	Selected    int
	Copied      int
	Skipped     int
	BytesCopied int64
	Orphans     int
	Pruned      int
	Err         error
}

// Runner executes replication runs. The zero value is not usable; build
// one with New and override the collaborator fields in tests as needed.
type Runner struct {
	Seeds     inventory.Lister
	Installed inventory.Lister
	Querier   metadata.Querier

	// Space overrides the destination free-space query (tests).
	Space func(string) (int64, error)

	cfg    *config.Config
	dryRun bool
	phase  atomic.Int32
	events chan transfer.Progress
}

// New wires a Runner from configuration with the production
// collaborators: the seed directory lister, the command-backed
// installed lister and metadata querier.
func New(cfg *config.Config, dryRun bool) *Runner {
	return &Runner{
		Seeds:     &inventory.SeedLister{Dir: cfg.SeedDir},
		Installed: &inventory.InstalledLister{Command: cfg.InstalledCommand, CacheDir: cfg.CacheDir},
		Querier:   &metadata.CommandQuerier{Command: cfg.MetadataCommand},
		cfg:       cfg,
		dryRun:    dryRun,
		events:    make(chan transfer.Progress, 64),
	}
}

// Phase returns the current stage; safe to call from a supervisor
// goroutine while Run executes.
func (r *Runner) Phase() Phase { return Phase(r.phase.Load()) }

// Events returns the progress channel. It is closed when Run returns.
func (r *Runner) Events() <-chan transfer.Progress { return r.events }

func (r *Runner) setPhase(p Phase) { r.phase.Store(int32(p)) }

// Run performs one replication run. On any fatal error or cancellation
// it still executes the consistency sweeps before returning, so the
// destination never ends a run with an unpaired file.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	log := logger.Logger()
	defer close(r.events)

	rep := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}
	log.Infof("Starting replication run %s against %s", rep.RunID, r.cfg.Destination)

	err := r.run(ctx, rep)

	if err != nil {
		// Cleanup path: Aborted still performs the sweeps before exit.
		// A dry run never touched the destination, so it has nothing
		// to sweep.
		r.setPhase(PhaseCleanup)
		if !r.dryRun {
			r.sweep(rep)
		}
		r.setPhase(PhaseAborted)
	}

	rep.Finished = time.Now().UTC()
	rep.Phase = r.Phase()
	rep.Err = err

	if !r.dryRun {
		if werr := appendReport(r.cfg.Destination, rep); werr != nil {
			log.Warnf("Could not write run report: %v", werr)
		}
	}

	if err != nil {
		return rep, err
	}
	log.Infof("Run %s finished: %d copied, %d skipped, %s written, %d pruned",
		rep.RunID, rep.Copied, rep.Skipped,
		humanize.Bytes(uint64(rep.BytesCopied)), rep.Pruned)
	return rep, nil
}

func (r *Runner) run(ctx context.Context, rep *Report) error {
	log := logger.Logger()

	r.setPhase(PhaseReconciling)
	builder := &inventory.Builder{Seeds: r.Seeds, Installed: r.Installed}
	local, err := builder.Build()
	if err != nil {
		return err
	}
	dest, err := store.Scan(r.cfg.Destination)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.setPhase(PhaseSelecting)
	tasks := selection.Select(local, dest)
	rep.Selected = len(tasks)
	if len(tasks) == 0 {
		log.Infof("Destination is current, nothing to copy")
	}

	if r.dryRun {
		for _, t := range tasks {
			log.Infof("Would copy %s_%d (%s, %s)", t.Name, t.Revision,
				humanize.Bytes(uint64(t.Size)), t.Origin)
		}
		r.setPhase(PhaseReconciledClean)
		return nil
	}

	r.setPhase(PhaseSynthesizing)
	bundles, tasks, err := r.synthesize(ctx, tasks)
	if err != nil {
		return err
	}
	rep.Skipped += rep.Selected - len(tasks)

	r.setPhase(PhaseTransferring)
	engine := &transfer.Engine{
		DestRoot: r.cfg.Destination,
		SeedDir:  r.cfg.SeedDir,
		CacheDir: r.cfg.CacheDir,
		Bundles:  bundles,
		Space:    r.Space,
		Events:   r.events,
	}
	stats, err := engine.Run(ctx, tasks)
	rep.Copied = stats.Copied
	rep.Skipped += stats.Skipped
	rep.BytesCopied = stats.BytesCopied
	if err != nil {
		return err
	}

	r.setPhase(PhaseCleanup)
	r.sweep(rep)
	r.setPhase(PhaseReconciledClean)
	return nil
}

// synthesize builds metadata bundles for every installed task and
// returns the tasks that still have everything they need. A package
// with an incomplete bundle is logged and dropped from the transfer;
// it is not retried and not fatal. Cancellation is fatal and checked
// between queries.
func (r *Runner) synthesize(ctx context.Context, tasks []selection.Task) (map[string]string, []selection.Task, error) {
	log := logger.Logger()
	synth := &metadata.Synthesizer{
		Querier:          r.Querier,
		DefaultPublisher: r.cfg.DefaultPublisher,
	}

	bundles := make(map[string]string)
	kept := make([]selection.Task, 0, len(tasks))
	for _, t := range tasks {
		switch t.Origin {
		case inventory.OriginSeeded:
			kept = append(kept, t)
			continue
		case inventory.OriginInstalled:
		default:
			return nil, nil, &transfer.UnknownOriginError{Name: t.Name, Origin: t.Origin}
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		bundle, err := synth.Bundle(ctx, t.Name, t.Revision)
		if err != nil {
			var incomplete *metadata.IncompleteError
			if errors.As(err, &incomplete) {
				log.Warnf("Skipping %s_%d: %v", t.Name, t.Revision, err)
				continue
			}
			return nil, nil, err
		}
		bundles[store.PairName(t.Name, t.Revision)] = bundle
		kept = append(kept, t)
	}
	return bundles, kept, nil
}

// sweep runs the pairing and retention passes. Sweep failures are
// logged, not returned: they must not mask the error that brought the
// run here, and both passes are idempotent on the next run.
func (r *Runner) sweep(rep *Report) {
	log := logger.Logger()

	orphans, err := retention.PairingSweep(r.cfg.Destination)
	if err != nil {
		log.Errorf("Pairing sweep failed: %v", err)
	}
	rep.Orphans += len(orphans)

	pruned, err := retention.RetentionSweep(r.cfg.Destination, r.cfg.Retain)
	if err != nil {
		log.Errorf("Retention sweep failed: %v", err)
	}
	rep.Pruned += len(pruned)
}
