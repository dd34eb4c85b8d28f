// Package retention keeps the destination store consistent and bounded:
// a pairing sweep removes unpaired payloads and bundles, and a retention
// sweep caps the revisions kept per package name. Both sweeps are
// idempotent; they run after every transfer and again on abnormal
// termination, so the store never ends a run with an orphan regardless
// of outcome.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// PairingSweep deletes every payload lacking a same-name-revision
// bundle in the same directory, and every bundle lacking its payload.
// Leftover temporary files from interrupted copies are removed as well.
// It returns the paths removed, relative to root.
func PairingSweep(root string) ([]string, error) {
	log := logger.Logger()

	inv, err := store.Scan(root)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, orphan := range inv.Orphans {
		log.Infof("Removing unpaired file %s", orphan.Path)
		if err := os.Remove(orphan.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing orphan %s: %w", orphan.Path, err)
		}
		rel, _ := filepath.Rel(root, orphan.Path)
		removed = append(removed, rel)
	}

	stale, err := removePartials(root)
	if err != nil {
		return removed, err
	}
	removed = append(removed, stale...)

	return removed, nil
}

// RetentionSweep groups the destination by package name, keeps the
// `retain` highest revisions and deletes the rest as pairs, across
// every architecture directory holding them. retain must be >= 1.
func RetentionSweep(root string, retain int) ([]string, error) {
	log := logger.Logger()

	if retain < 1 {
		return nil, fmt.Errorf("retention count must be >= 1, got %d", retain)
	}

	inv, err := store.Scan(root)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, name := range inv.Names() {
		revs := inv.Revisions(name)
		if len(revs) <= retain {
			continue
		}
		for _, rev := range revs[retain:] {
			log.Infof("Pruning %s revision %d (retaining %d newest)", name, rev, retain)
			for _, pair := range inv.PairsFor(name, rev) {
				for _, path := range []string{pair.PayloadPath, pair.MetaPath} {
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						return removed, fmt.Errorf("pruning %s: %w", path, err)
					}
					rel, _ := filepath.Rel(root, path)
					removed = append(removed, rel)
				}
			}
		}
	}
	return removed, nil
}

// removePartials clears "*.partial" temporaries left by an interrupted
// copy, in the root and one subdirectory level below it.
func removePartials(root string) ([]string, error) {
	var removed []string

	sweepDir := func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".partial") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing stale temporary %s: %w", path, err)
			}
			rel, _ := filepath.Rel(root, path)
			removed = append(removed, rel)
		}
		return nil
	}

	if err := sweepDir(root); err != nil {
		return removed, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return removed, nil
		}
		return removed, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := sweepDir(filepath.Join(root, e.Name())); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
