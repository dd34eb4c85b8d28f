// Package store defines the on-disk layout of a replication destination
// and scans it into an inventory the selection and retention engines
// work from.
//
// A package is present in the destination only as a pair of co-located
// files, "<name>_<revision>.payload" and "<name>_<revision>.meta",
// either directly under the destination root or one level down inside
// an architecture-named subdirectory. A payload or bundle missing its
// partner is an orphan: it never counts as present and is removed by
// the next pairing sweep.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/open-edge-platform/pkg-replicator/internal/utils/logger"
)

const (
	// PayloadExt marks the installable package file.
	PayloadExt = ".payload"
	// MetaExt marks the signed metadata bundle sidecar.
	MetaExt = ".meta"
)

// PairName returns the base filename (no extension) for a package
// revision, e.g. "app_12".
func PairName(name string, revision int) string {
	return fmt.Sprintf("%s_%d", name, revision)
}

// ParsePairFile splits a destination filename into package name,
// revision and extension. The revision is the final underscore-separated
// field, so package names may themselves contain underscores. ok is
// false for files that do not follow the pair naming scheme.
func ParsePairFile(base string) (name string, revision int, ext string, ok bool) {
	ext = filepath.Ext(base)
	if ext != PayloadExt && ext != MetaExt {
		return "", 0, "", false
	}
	stem := strings.TrimSuffix(base, ext)
	i := strings.LastIndex(stem, "_")
	if i <= 0 || i == len(stem)-1 {
		return "", 0, "", false
	}
	revision, err := strconv.Atoi(stem[i+1:])
	if err != nil || revision < 0 {
		return "", 0, "", false
	}
	return stem[:i], revision, ext, true
}

// File is one pair-scheme file found in the destination.
type File struct {
	Path     string // absolute path
	Dir      string // subdirectory relative to the root, "" for the root itself
	Name     string
	Revision int
	Ext      string
}

// Pair is a fully paired payload+bundle for one (dir, name, revision).
type Pair struct {
	Dir         string
	Name        string
	Revision    int
	PayloadPath string
	MetaPath    string
}

// Inventory is the scanned state of a destination store.
type Inventory struct {
	Pairs   []Pair
	Orphans []File

	// revisions maps name -> revisions present as pairs, sorted descending.
	revisions map[string][]int
}

// Revisions returns the paired revisions for name, newest first.
func (inv *Inventory) Revisions(name string) []int {
	return inv.revisions[name]
}

// Names returns every package name with at least one pair, sorted.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.revisions))
	for n := range inv.revisions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Top returns the highest paired revision for name.
func (inv *Inventory) Top(name string) (int, bool) {
	revs := inv.revisions[name]
	if len(revs) == 0 {
		return 0, false
	}
	return revs[0], true
}

// Has reports whether the exact (name, revision) pair is present.
func (inv *Inventory) Has(name string, revision int) bool {
	for _, r := range inv.revisions[name] {
		if r == revision {
			return true
		}
	}
	return false
}

// PairsFor returns every pair holding the given (name, revision),
// one per architecture directory it was placed in.
func (inv *Inventory) PairsFor(name string, revision int) []Pair {
	var out []Pair
	for _, p := range inv.Pairs {
		if p.Name == name && p.Revision == revision {
			out = append(out, p)
		}
	}
	return out
}

// Scan walks the destination root and one subdirectory level below it
// (architecture directories) and builds the inventory. Pairing is per
// directory: a payload under amd64/ pairs only with a bundle under
// amd64/. Files that do not follow the pair naming scheme are ignored.
func Scan(root string) (*Inventory, error) {
	inv := &Inventory{revisions: make(map[string][]int)}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, fmt.Errorf("reading destination %s: %w", root, err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			sub, err := os.ReadDir(filepath.Join(root, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading destination %s: %w", filepath.Join(root, e.Name()), err)
			}
			for _, se := range sub {
				if se.IsDir() {
					continue
				}
				if f, ok := pairFile(root, e.Name(), se.Name()); ok {
					files = append(files, f)
				}
			}
			continue
		}
		if f, ok := pairFile(root, "", e.Name()); ok {
			files = append(files, f)
		}
	}

	type key struct {
		dir  string
		name string
		rev  int
	}
	byKey := make(map[key][2]*File)
	for i := range files {
		f := &files[i]
		k := key{f.Dir, f.Name, f.Revision}
		got := byKey[k]
		if f.Ext == PayloadExt {
			got[0] = f
		} else {
			got[1] = f
		}
		byKey[k] = got
	}

	seen := make(map[string]map[int]bool)
	for k, halves := range byKey {
		payload, meta := halves[0], halves[1]
		if payload == nil || meta == nil {
			half := payload
			if half == nil {
				half = meta
			}
			logger.Logger().Debugf("Unpaired file in destination: %s", half.Path)
			inv.Orphans = append(inv.Orphans, *half)
			continue
		}
		inv.Pairs = append(inv.Pairs, Pair{
			Dir:         k.dir,
			Name:        k.name,
			Revision:    k.rev,
			PayloadPath: payload.Path,
			MetaPath:    meta.Path,
		})
		if seen[k.name] == nil {
			seen[k.name] = make(map[int]bool)
		}
		seen[k.name][k.rev] = true
	}

	for name, revs := range seen {
		for r := range revs {
			inv.revisions[name] = append(inv.revisions[name], r)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(inv.revisions[name])))
	}

	sort.Slice(inv.Pairs, func(i, j int) bool {
		a, b := inv.Pairs[i], inv.Pairs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Revision != b.Revision {
			return a.Revision > b.Revision
		}
		return a.Dir < b.Dir
	})
	sort.Slice(inv.Orphans, func(i, j int) bool {
		return inv.Orphans[i].Path < inv.Orphans[j].Path
	})

	return inv, nil
}

func pairFile(root, dir, base string) (File, bool) {
	name, rev, ext, ok := ParsePairFile(base)
	if !ok {
		return File{}, false
	}
	return File{
		Path:     filepath.Join(root, dir, base),
		Dir:      dir,
		Name:     name,
		Revision: rev,
		Ext:      ext,
	}, true
}
