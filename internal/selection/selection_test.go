package selection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/open-edge-platform/pkg-replicator/internal/inventory"
	"github.com/open-edge-platform/pkg-replicator/internal/store"
)

func scanned(t *testing.T, pairs map[string][]int) *store.Inventory {
	t.Helper()
	root := t.TempDir()
	for name, revs := range pairs {
		for _, rev := range revs {
			base := filepath.Join(root, store.PairName(name, rev))
			if err := os.WriteFile(base+store.PayloadExt, []byte("p"), 0644); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(base+store.MetaExt, []byte("m"), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	inv, err := store.Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return inv
}

func TestSelectTransfersIffNewerOrAbsent(t *testing.T) {
	dest := scanned(t, map[string][]int{"app": {10, 8}})

	cases := []struct {
		name     string
		revision int
		want     bool
	}{
		{"app", 12, true},  // strictly newer than top
		{"app", 10, false}, // equal to top: never re-copied
		{"app", 9, false},  // older than top
		{"tool", 3, true},  // absent from destination
	}
	for _, c := range cases {
		local := map[string]inventory.LocalEntry{
			c.name: {Name: c.name, Revision: c.revision},
		}
		tasks := Select(local, dest)
		if got := len(tasks) == 1; got != c.want {
			t.Errorf("Select(%s_%d) transferred=%v, want %v", c.name, c.revision, got, c.want)
		}
	}
}

func TestSelectAgainstCaughtUpStoreIsNoop(t *testing.T) {
	dest := scanned(t, map[string][]int{"app": {12}, "tool": {3}})
	local := map[string]inventory.LocalEntry{
		"app":  {Name: "app", Revision: 12},
		"tool": {Name: "tool", Revision: 3},
	}
	if tasks := Select(local, dest); len(tasks) != 0 {
		t.Fatalf("expected empty copy set, got %+v", tasks)
	}
}

func TestSelectCarriesSizeAndOrigin(t *testing.T) {
	dest := scanned(t, nil)
	local := map[string]inventory.LocalEntry{
		"app": {Name: "app", Revision: 12, Size: 500, Origin: inventory.OriginInstalled},
		"aaa": {Name: "aaa", Revision: 1, Size: 10, Origin: inventory.OriginSeeded},
	}
	tasks := Select(local, dest)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %+v", tasks)
	}
	// ordered by name
	if tasks[0].Name != "aaa" || tasks[1].Name != "app" {
		t.Errorf("order = %s, %s", tasks[0].Name, tasks[1].Name)
	}
	if tasks[1].Size != 500 || tasks[1].Origin != inventory.OriginInstalled {
		t.Errorf("task = %+v", tasks[1])
	}
}
