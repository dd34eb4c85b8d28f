package inventory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// SeedLister enumerates the pre-seeded packages found in a fixed
// directory. Seeded packages follow the same pair naming scheme as the
// destination store and always carry their bundle, so only fully paired
// entries are reported.
type SeedLister struct {
	Dir string
}

func (s *SeedLister) List() ([]LocalEntry, error) {
	log := logger.Logger()

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Seed directory %s does not exist, no seeded packages", s.Dir)
			return nil, nil
		}
		return nil, fmt.Errorf("reading seed directory %s: %w", s.Dir, err)
	}

	// A seed directory may carry several revisions of one package;
	// only the newest seeded revision is a replication candidate.
	best := make(map[string]LocalEntry)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, rev, ext, ok := store.ParsePairFile(e.Name())
		if !ok || ext != store.PayloadExt {
			continue
		}

		metaPath := filepath.Join(s.Dir, store.PairName(name, rev)+store.MetaExt)
		if _, err := os.Stat(metaPath); err != nil {
			log.Warnf("Seeded package %s_%d has no metadata bundle, skipping", name, rev)
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat seeded payload %s: %w", e.Name(), err)
		}
		if prev, ok := best[name]; ok && prev.Revision >= rev {
			continue
		}
		best[name] = LocalEntry{
			Name:     name,
			Revision: rev,
			Size:     info.Size(),
			Origin:   OriginSeeded,
		}
	}

	out := make([]LocalEntry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	return out, nil
}
