package transfer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const manifestExt = ".manifest"

// archManifest is the optional per-package sidecar declaring which
// architecture subdirectories the pair belongs in. A package without a
// manifest, or with an empty architecture list, goes into the
// destination root.
type archManifest struct {
	Architectures []string `yaml:"architectures"`
}

func readArchManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading architecture manifest %s: %w", path, err)
	}

	var m archManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing architecture manifest %s: %w", path, err)
	}
	return m.Architectures, nil
}
