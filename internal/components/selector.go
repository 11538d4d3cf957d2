package components

import (
	"sort"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/output"
)

// Component categories that map onto directories in the components tree.
var categoryDirs = map[string]string{
	"connector": "connector",
	"exporter":  "exporter",
	"processor": "processor",
	"receiver":  "receiver",
	"extension": "extension",
}

// wildcard is the tag segment meaning "everything at this level".
const wildcard = "all"

// Tag is a parsed dot-namespaced component tag: <domain>.<category>.<name>.
type Tag struct {
	Domain   string
	Category string
	Name     string
}

// ParseTag splits a component tag into its segments. Tags with fewer than
// three segments are rejected; extra segments fold into the name.
func ParseTag(tag string) (Tag, bool) {
	parts := strings.SplitN(tag, ".", 3)
	if len(parts) < 3 {
		return Tag{}, false
	}
	return Tag{Domain: parts[0], Category: parts[1], Name: parts[2]}, true
}

// CategoryDir returns the directory name for a component tag's category, or
// false when the category is unknown.
func (t Tag) CategoryDir() (string, bool) {
	dir, ok := categoryDirs[t.Category]
	return dir, ok
}

// IsWildcard reports whether the tag names every component in its category.
func (t Tag) IsWildcard() bool {
	return t.Name == wildcard
}

// ResolveByTags determines which components are active under the given build
// tags. A component is included when any of these holds:
//
//   - its tag appears directly in the active set;
//   - the active set contains the global wildcard <domain>.all;
//   - the active set contains <domain>.<category>.all for its category.
//
// Output order follows the mapping's key order. Inputs are not mutated.
func ResolveByTags(activeTags []string, mapping *Mapping) []string {
	if len(activeTags) == 0 || mapping == nil || mapping.Len() == 0 {
		return nil
	}

	active := make(map[string]struct{}, len(activeTags))
	for _, t := range activeTags {
		active[t] = struct{}{}
	}

	var included []string
	for _, key := range mapping.Keys() {
		tag, ok := ParseTag(key)
		if !ok {
			output.Warn("invalid component tag format, skipping", "tag", key)
			continue
		}

		switch {
		case contains(active, key):
			output.Debug("including component", "tag", key, "reason", "direct match")
		case contains(active, tag.Domain+"."+wildcard):
			output.Debug("including component", "tag", key, "reason", "global wildcard")
		case !tag.IsWildcard() && contains(active, tag.Domain+"."+tag.Category+"."+wildcard):
			output.Debug("including component", "tag", key, "reason", "category wildcard")
		default:
			continue
		}

		included = append(included, key)
	}

	return included
}

// Modules returns the deduplicated, sorted union of module dependencies
// declared by the included components. This is the complete and exact set of
// modules to inject for the active tag set: file overlay and dependency
// injection both derive from the same inclusion result.
func Modules(included []string, mapping *Mapping) []string {
	set := make(map[string]struct{})
	for _, tag := range included {
		for _, mod := range mapping.Dependencies(tag) {
			if mod == "" {
				continue
			}
			set[mod] = struct{}{}
		}
	}

	modules := make([]string, 0, len(set))
	for mod := range set {
		modules = append(modules, mod)
	}
	sort.Strings(modules)
	return modules
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
