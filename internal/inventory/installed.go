package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/shell"
)

// InstalledLister queries the live package-management service for the
// packages currently active on the host. The configured command must
// print one line per package: name, revision and payload size in bytes,
// tab separated. Revisions that are not plain integers (experimental or
// channel tags) are logged and excluded; they are not an error.
//
// Payloads for installed packages are read from the service's local
// cache directory using the destination pair naming scheme. When the
// size column is missing, the cached payload is stat'ed instead.
type InstalledLister struct {
	Command  []string
	CacheDir string
}

func (l *InstalledLister) List() ([]LocalEntry, error) {
	log := logger.Logger()

	if len(l.Command) == 0 {
		log.Debugf("No installed-package command configured, skipping live inventory")
		return nil, nil
	}

	out, err := shell.Output(context.Background(), l.Command...)
	if err != nil {
		return nil, fmt.Errorf("querying installed packages: %w", err)
	}
	return l.parse(out)
}

func (l *InstalledLister) parse(out string) ([]LocalEntry, error) {
	log := logger.Logger()

	var entries []LocalEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			log.Warnf("Malformed installed-package line %q, skipping", line)
			continue
		}

		name := fields[0]
		rev, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Infof("Excluding %s: revision %q is not numeric", name, fields[1])
			continue
		}

		var size int64
		if len(fields) >= 3 {
			size, err = strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				log.Warnf("Malformed size %q for %s, skipping", fields[2], name)
				continue
			}
		} else {
			info, err := os.Stat(filepath.Join(l.CacheDir, store.PairName(name, rev)+store.PayloadExt))
			if err != nil {
				log.Warnf("No cached payload for installed package %s_%d, skipping", name, rev)
				continue
			}
			size = info.Size()
		}

		entries = append(entries, LocalEntry{
			Name:     name,
			Revision: rev,
			Size:     size,
			Origin:   OriginInstalled,
		})
	}
	return entries, nil
}
