// Package selection diffs the reconciled local inventory against the
// destination store and produces the set of packages to copy.
package selection

import (
	"sort"

	"github.com/open-edge-platform/pkg-replicator/internal/inventory"
	"github.com/open-edge-platform/pkg-replicator/internal/store"
	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

// Task is one package revision selected for transfer.
type Task struct {
	Name     string
	Revision int
	Size     int64
	Origin   inventory.Origin
}

// Select returns the copy set: a local entry is included iff its name
// is absent from the destination, or its revision strictly exceeds the
// destination's top revision for that name. Equal revisions are never
// re-copied, so a run against a caught-up store selects nothing.
// Tasks come back ordered by name.
func Select(local map[string]inventory.LocalEntry, dest *store.Inventory) []Task {
	log := logger.Logger()

	var tasks []Task
	for _, e := range inventory.Sorted(local) {
		top, present := dest.Top(e.Name)
		if present && e.Revision <= top {
			log.Debugf("Destination already holds %s at revision %d (local %d), skipping",
				e.Name, top, e.Revision)
			continue
		}
		tasks = append(tasks, Task{
			Name:     e.Name,
			Revision: e.Revision,
			Size:     e.Size,
			Origin:   e.Origin,
		})
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks
}
