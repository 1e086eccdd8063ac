package hooks

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefsFile is the filename the loader expects inside a hooks directory.
const DefsFile = "hooks.yaml"

// defsDocument is the on-disk shape of a hooks.yaml file.
type defsDocument struct {
	Hooks []HookDefinition `yaml:"hooks"`
}

// LoadDefinitions reads hook definitions from dir/hooks.yaml. Content
// files referenced by the definitions live in the same directory and are
// read later by the Resolver, not here. A missing hooks.yaml is not an
// error: it returns an empty slice so a server can start with only
// dynamically registered hooks.
func LoadDefinitions(dir string) ([]HookDefinition, error) {
	path := filepath.Join(dir, DefsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc defsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc.Hooks, nil
}
