// Package inventory reconciles the packages available on the local host
// into one canonical entry per name, merging the pre-seeded set with the
// live installed set.
package inventory

import (
	"fmt"
	"sort"
)

// Origin says where a local package entry came from.
type Origin int

const (
	// OriginSeeded means the package was placed at provisioning time in
	// the fixed seed location and already carries its metadata bundle.
	OriginSeeded Origin = iota
	// OriginInstalled means the package is currently active on the host,
	// reported by the live package-management service. Installed always
	// overrides Seeded for the same name.
	OriginInstalled
)

func (o Origin) String() string {
	switch o {
	case OriginSeeded:
		return "seeded"
	case OriginInstalled:
		return "installed"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// LocalEntry is one reconciled package available for replication.
type LocalEntry struct {
	Name     string
	Revision int
	Size     int64
	Origin   Origin
}

// Lister enumerates locally available packages from one origin.
type Lister interface {
	List() ([]LocalEntry, error)
}

// Builder merges seeded and installed entries into the canonical
// inventory. Installed entries overwrite seeded ones for the same name;
// installed revisions are trusted to be at least the seeded revision
// and are not re-verified.
type Builder struct {
	Seeds     Lister
	Installed Lister
}

// Build returns exactly one LocalEntry per package name.
func (b *Builder) Build() (map[string]LocalEntry, error) {
	merged := make(map[string]LocalEntry)

	if b.Seeds != nil {
		seeded, err := b.Seeds.List()
		if err != nil {
			return nil, fmt.Errorf("listing seeded packages: %w", err)
		}
		for _, e := range seeded {
			e.Origin = OriginSeeded
			merged[e.Name] = e
		}
	}

	if b.Installed != nil {
		installed, err := b.Installed.List()
		if err != nil {
			return nil, fmt.Errorf("listing installed packages: %w", err)
		}
		for _, e := range installed {
			e.Origin = OriginInstalled
			merged[e.Name] = e
		}
	}

	return merged, nil
}

// Sorted returns the entries of a reconciled inventory ordered by name.
func Sorted(entries map[string]LocalEntry) []LocalEntry {
	out := make([]LocalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
