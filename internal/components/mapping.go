// Package components selects which custom collector components are active for
// a set of build tags, and which module dependencies they pull in.
package components

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ocelotbuild/ocelot/internal/output"
)

// Mapping is the declarative table of extra module requirements per component.
// Key order follows the source document so selection output is stable across
// runs of the same config.
type Mapping struct {
	keys []string
	deps map[string][]string
}

// NewMapping builds a Mapping from ordered component tags and their module
// dependencies. Used by tests and programmatic callers; file loading goes
// through LoadMapping.
func NewMapping(keys []string, deps map[string][]string) *Mapping {
	m := &Mapping{deps: make(map[string][]string, len(keys))}
	for _, k := range keys {
		m.keys = append(m.keys, k)
		m.deps[k] = deps[k]
	}
	return m
}

// Keys returns the component tags in document order.
func (m *Mapping) Keys() []string {
	return m.keys
}

// Dependencies returns the module dependencies declared for a component tag.
func (m *Mapping) Dependencies(tag string) []string {
	return m.deps[tag]
}

// Len returns the number of known components.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// LoadMapping reads the component dependency file. Unlike the distributions
// config, a missing or malformed file is tolerated: the build proceeds with
// no extra dependencies and a warning is logged. Values may be a single
// module path or a list of module paths.
func LoadMapping(path string) *Mapping {
	empty := &Mapping{deps: map[string][]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			output.Warn("component dependency file not found, cannot add dependencies", "path", path)
		} else {
			output.Warn("reading component dependency file failed", "path", path, "error", err)
		}
		return empty
	}

	var doc struct {
		Dependencies yaml.Node `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		output.Warn("parsing component dependency file failed", "path", path, "error", err)
		return empty
	}
	if doc.Dependencies.Kind != yaml.MappingNode {
		output.Warn("invalid component dependency file format, expected a 'dependencies' mapping", "path", path)
		return empty
	}

	m := &Mapping{deps: make(map[string][]string)}
	content := doc.Dependencies.Content
	for i := 0; i+1 < len(content); i += 2 {
		keyNode, valNode := content[i], content[i+1]
		tag := keyNode.Value

		modules, err := decodeModules(valNode)
		if err != nil {
			output.Warn("invalid dependency value, expected string or list of strings", "component", tag, "error", err)
			continue
		}

		m.keys = append(m.keys, tag)
		m.deps[tag] = modules
	}

	output.Debug("loaded dependency mappings", "path", path, "components", m.Len())
	return m
}

func decodeModules(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return nil, err
		}
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}
