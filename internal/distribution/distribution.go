// Package distribution loads the distributions config and resolves the build
// tags for a named distribution, honoring single-parent inheritance via the
// "base" field.
package distribution

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

// Distribution is one named, inheritable bundle of build tags describing one
// buildable flavor of the collector layer.
type Distribution struct {
	// Base names another distribution whose tags this one inherits.
	Base string `yaml:"base,omitempty"`

	// BuildTags are the tags declared directly on this distribution.
	BuildTags []string `yaml:"buildtags,omitempty"`

	// ConfigFile is an optional override collector-config filename, relative
	// to the collector-configs directory.
	ConfigFile string `yaml:"config-file,omitempty"`

	// Description is a human-readable summary.
	Description string `yaml:"description,omitempty"`
}

// Table maps distribution names to their definitions. It is loaded once and
// must not be mutated afterwards; resolution treats it as read-only.
type Table map[string]Distribution

// Names returns the sorted distribution names, for CLI choice lists.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and validates the distributions file. A missing file, empty
// content, a non-mapping root, or mistyped fields are all fatal: the
// distributions config is required, unlike the dependency mapping.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.Wrapf(oerrors.ErrConfigNotFound, "distributions file not found at %s", path)
		}
		return nil, fmt.Errorf("reading distributions file %s: %w", path, err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, oerrors.Wrapf(oerrors.ErrConfigMalformed, "parsing %s: %v", path, err)
	}
	if len(table) == 0 {
		return nil, oerrors.Wrapf(oerrors.ErrConfigMalformed, "%s is empty or invalid", path)
	}

	return table, nil
}

// ResolveBuildTags resolves the final build tags for a distribution: the
// sorted, deduplicated union of its own tags and the tags of its base chain.
// Identical inputs always yield identical output regardless of map iteration
// order.
func ResolveBuildTags(name string, table Table) ([]string, error) {
	return resolve(name, table, nil)
}

func resolve(name string, table Table, visited map[string]struct{}) ([]string, error) {
	if _, seen := visited[name]; seen {
		return nil, oerrors.Wrapf(oerrors.ErrCircularDependency,
			"circular dependency detected involving distribution %q", name)
	}

	dist, ok := table[name]
	if !ok {
		return nil, oerrors.Wrapf(oerrors.ErrNotFound,
			"distribution %q not found in configuration", name)
	}

	tags := make(map[string]struct{}, len(dist.BuildTags))

	if dist.Base != "" {
		// Recurse with a copy of the visited set, not shared state, so
		// sibling resolutions against the same table never see each other's
		// traversal.
		next := make(map[string]struct{}, len(visited)+1)
		for k := range visited {
			next[k] = struct{}{}
		}
		next[name] = struct{}{}

		baseTags, err := resolve(dist.Base, table, next)
		if err != nil {
			return nil, fmt.Errorf("resolving base %q for distribution %q: %w", dist.Base, name, err)
		}
		for _, t := range baseTags {
			tags[t] = struct{}{}
		}
	}

	for _, t := range dist.BuildTags {
		tags[t] = struct{}{}
	}

	final := make([]string, 0, len(tags))
	for t := range tags {
		final = append(final, t)
	}
	sort.Strings(final)
	return final, nil
}
