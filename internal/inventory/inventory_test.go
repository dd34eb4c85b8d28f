package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type staticLister struct {
	entries []LocalEntry
	err     error
}

func (s *staticLister) List() ([]LocalEntry, error) { return s.entries, s.err }

func TestBuildInstalledOverridesSeeded(t *testing.T) {
	b := &Builder{
		Seeds: &staticLister{entries: []LocalEntry{
			{Name: "app", Revision: 10, Size: 100},
			{Name: "tool", Revision: 3, Size: 50},
		}},
		Installed: &staticLister{entries: []LocalEntry{
			{Name: "app", Revision: 12, Size: 500},
		}},
	}

	got, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}

	app := got["app"]
	if app.Revision != 12 || app.Origin != OriginInstalled || app.Size != 500 {
		t.Errorf("app = %+v, want installed revision 12", app)
	}
	tool := got["tool"]
	if tool.Revision != 3 || tool.Origin != OriginSeeded {
		t.Errorf("tool = %+v, want seeded revision 3", tool)
	}
}

func TestBuildEqualRevisionStillPrefersInstalled(t *testing.T) {
	b := &Builder{
		Seeds:     &staticLister{entries: []LocalEntry{{Name: "app", Revision: 10}}},
		Installed: &staticLister{entries: []LocalEntry{{Name: "app", Revision: 10}}},
	}
	got, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got["app"].Origin != OriginInstalled {
		t.Errorf("origin = %v, want installed", got["app"].Origin)
	}
}

func TestBuildListerErrorPropagates(t *testing.T) {
	b := &Builder{Seeds: &staticLister{err: fmt.Errorf("boom")}}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error from failing lister")
	}
}

func TestBuildNilListers(t *testing.T) {
	b := &Builder{}
	got, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty inventory, got %v", got)
	}
}

func TestSeedListerSkipsUnpairedAndKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("app_9.payload", "old")
	write("app_9.meta", "m")
	write("app_10.payload", "payload-10")
	write("app_10.meta", "m")
	write("half_1.payload", "no bundle")
	write("notes.txt", "ignored")

	entries, err := (&SeedLister{Dir: dir}).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want only app_10", entries)
	}
	e := entries[0]
	if e.Name != "app" || e.Revision != 10 || e.Origin != OriginSeeded {
		t.Errorf("entry = %+v", e)
	}
	if e.Size != int64(len("payload-10")) {
		t.Errorf("size = %d, want %d", e.Size, len("payload-10"))
	}
}

func TestSeedListerMissingDir(t *testing.T) {
	entries, err := (&SeedLister{Dir: filepath.Join(t.TempDir(), "absent")}).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestInstalledParseExcludesNonNumericRevisions(t *testing.T) {
	l := &InstalledLister{}
	out := "app\t12\t500\n" +
		"experiment\tx1-edge\t42\n" + // non-numeric revision marker: excluded, not an error
		"tool\t3\t100\n" +
		"\n" +
		"broken-line\n"

	entries, err := l.parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want app and tool", entries)
	}
	if entries[0].Name != "app" || entries[0].Revision != 12 || entries[0].Size != 500 {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].Origin != OriginInstalled {
		t.Errorf("origin = %v, want installed", entries[0].Origin)
	}
}

func TestInstalledParseStatsCacheWhenSizeMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app_12.payload"), []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	l := &InstalledLister{CacheDir: dir}
	entries, err := l.parse("app\t12\nmissing\t1\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want only app", entries)
	}
	if entries[0].Size != 5 {
		t.Errorf("size = %d, want 5 from cached payload", entries[0].Size)
	}
}

func TestInstalledListerWithoutCommand(t *testing.T) {
	entries, err := (&InstalledLister{}).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestSortedOrdersByName(t *testing.T) {
	m := map[string]LocalEntry{
		"zeta": {Name: "zeta"},
		"abc":  {Name: "abc"},
	}
	got := Sorted(m)
	if got[0].Name != "abc" || got[1].Name != "zeta" {
		t.Errorf("sorted = %+v", got)
	}
}
