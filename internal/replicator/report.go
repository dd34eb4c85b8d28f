package replicator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// reportFile is the append-only run log kept at the destination root,
// newest entries at the bottom.
const reportFile = ".replicator-log"

// appendReport appends a human-readable section describing one run to
// the destination's run log. A destination that cannot take the report
// (read-only remount, removed media) only loses the report, never the
// run result, so callers treat failures here as log-worthy, not fatal.
func appendReport(destRoot string, rep *Report) error {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return err
	}

	path := filepath.Join(destRoot, reportFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "=== run %s %s ===\n", rep.RunID, rep.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "phase: %s\n", rep.Phase)
	fmt.Fprintf(&b, "selected: %d\n", rep.Selected)
	fmt.Fprintf(&b, "copied: %d\n", rep.Copied)
	fmt.Fprintf(&b, "skipped: %d\n", rep.Skipped)
	fmt.Fprintf(&b, "bytes: %s\n", humanize.Bytes(uint64(rep.BytesCopied)))
	fmt.Fprintf(&b, "orphans-removed: %d\n", rep.Orphans)
	fmt.Fprintf(&b, "pairs-pruned: %d\n", rep.Pruned)
	fmt.Fprintf(&b, "duration: %s\n", rep.Finished.Sub(rep.Started).Round(time.Millisecond))
	if rep.Err != nil {
		fmt.Fprintf(&b, "result: FAILED: %v\n\n", rep.Err)
	} else {
		fmt.Fprintf(&b, "result: SUCCESS\n\n")
	}

	_, werr := f.WriteString(b.String())
	return werr
}
