// Package transfer copies selected package pairs into the destination
// store, gated by a fresh free-space check before every task and placed
// per the payload's architecture manifest.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/open-edge-platform/pkg-replicator/internal/inventory"
	"github.com/open-edge-platform/pkg-replicator/internal/selection"
	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// InsufficientSpaceError aborts the whole run: no partial copies of the
// remaining tasks are attempted once the destination cannot hold the
// next payload.
type InsufficientSpaceError struct {
	Name     string
	Revision int
	Need     int64
	Free     int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient space for %s_%d: need %s, %s free",
		e.Name, e.Revision, humanize.Bytes(uint64(e.Need)), humanize.Bytes(uint64(e.Free)))
}

// UnknownOriginError is an internal invariant violation: a task reached
// the transfer engine with an origin the engine cannot source.
type UnknownOriginError struct {
	Name   string
	Origin inventory.Origin
}

func (e *UnknownOriginError) Error() string {
	return fmt.Sprintf("unknown origin %v for package %s", e.Origin, e.Name)
}

// Progress is one (percent, current-item) tuple emitted after both
// halves of a pair are fully written.
type Progress struct {
	Percent int
	Item    string
}

// Stats is the accounting for one transfer run. Bytes are counted
// directly as each file completes.
type Stats struct {
	Copied      int
	Skipped     int
	BytesCopied int64
}

// Engine copies task pairs into the destination root. Source files are
// copied, never moved; pre-existing destination content is never removed
// here, only by the retention and consistency sweeps.
type Engine struct {
	DestRoot string
	SeedDir  string
	CacheDir string

	// Bundles holds synthesized metadata for installed tasks, keyed by
	// store.PairName. Installed tasks without a bundle were incomplete
	// at synthesis time and are skipped.
	Bundles map[string]string

	// Space queries destination free space; defaults to store.FreeSpace.
	// It is called before every task, never cached.
	Space func(string) (int64, error)

	// Events receives progress tuples. Sends never block; a slow
	// consumer misses intermediate updates, not the run itself.
	Events chan<- Progress
}

// Run executes the tasks in order. Cancellation is checked between
// tasks; an in-flight pair is either completed or fully discarded.
func (e *Engine) Run(ctx context.Context, tasks []selection.Task) (Stats, error) {
	log := logger.Logger()
	space := e.Space
	if space == nil {
		space = store.FreeSpace
	}

	var stats Stats
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		free, err := space(e.DestRoot)
		if err != nil {
			return stats, fmt.Errorf("querying destination free space: %w", err)
		}
		if free <= task.Size {
			return stats, &InsufficientSpaceError{
				Name:     task.Name,
				Revision: task.Revision,
				Need:     task.Size,
				Free:     free,
			}
		}

		copied, n, err := e.copyTask(task)
		if err != nil {
			return stats, err
		}
		stats.BytesCopied += n
		if !copied {
			stats.Skipped++
			continue
		}
		stats.Copied++

		e.emit(Progress{
			Percent: (i + 1) * 100 / len(tasks),
			Item:    store.PairName(task.Name, task.Revision),
		})
		log.Infof("Copied %s_%d (%s)", task.Name, task.Revision,
			humanize.Bytes(uint64(task.Size)))
	}
	return stats, nil
}

// copyTask writes the payload+bundle pair for one task into every
// directory its architecture manifest calls for. It returns false when
// the task was skipped because its synthesized bundle is missing.
func (e *Engine) copyTask(task selection.Task) (bool, int64, error) {
	log := logger.Logger()
	base := store.PairName(task.Name, task.Revision)

	var srcDir string
	switch task.Origin {
	case inventory.OriginSeeded:
		srcDir = e.SeedDir
	case inventory.OriginInstalled:
		srcDir = e.CacheDir
	default:
		return false, 0, &UnknownOriginError{Name: task.Name, Origin: task.Origin}
	}
	payloadSrc := filepath.Join(srcDir, base+store.PayloadExt)

	var bundle string
	if task.Origin == inventory.OriginInstalled {
		b, ok := e.Bundles[base]
		if !ok {
			log.Warnf("No metadata bundle for %s, skipping transfer", base)
			return false, 0, nil
		}
		bundle = b
	}

	archs, err := readArchManifest(filepath.Join(srcDir, base+manifestExt))
	if err != nil {
		return false, 0, err
	}

	dirs := []string{e.DestRoot}
	if len(archs) > 0 {
		dirs = dirs[:0]
		for _, a := range archs {
			dirs = append(dirs, filepath.Join(e.DestRoot, a))
		}
	}

	var written int64
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, written, fmt.Errorf("creating destination directory %s: %w", dir, err)
		}

		payloadDst := filepath.Join(dir, base+store.PayloadExt)
		metaDst := filepath.Join(dir, base+store.MetaExt)

		n, err := copyFile(payloadSrc, payloadDst)
		if err != nil {
			return false, written, fmt.Errorf("copying payload %s: %w", base, err)
		}

		var m int64
		if task.Origin == inventory.OriginSeeded {
			m, err = copyFile(filepath.Join(srcDir, base+store.MetaExt), metaDst)
		} else {
			m, err = writeFile(metaDst, []byte(bundle))
		}
		if err != nil {
			// Keep the pair atomic: a bundle failure takes the freshly
			// written payload down with it.
			os.Remove(payloadDst)
			return false, written, fmt.Errorf("writing bundle %s: %w", base, err)
		}
		written += n + m
	}
	return true, written, nil
}

func (e *Engine) emit(p Progress) {
	if e.Events == nil {
		return
	}
	select {
	case e.Events <- p:
	default:
	}
}

// copyFile copies src to dst through a temporary name in the same
// directory, so a crash never leaves a half-written file under the
// final name.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return n, nil
}

func writeFile(dst string, data []byte) (int64, error) {
	tmp := dst + ".partial"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return int64(len(data)), nil
}
