package distribution

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

func writeDistributions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "distributions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeDistributions(t, `
default:
  buildtags: ["lambdacomponents.custom"]
  description: "Default distribution"
minimal:
  base: default
  buildtags: ["lambdacomponents.receiver.otlp"]
  config-file: minimal.yaml
`)
		table, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, table, 2)
		assert.Equal(t, "default", table["minimal"].Base)
		assert.Equal(t, "minimal.yaml", table["minimal"].ConfigFile)
		assert.Equal(t, []string{"lambdacomponents.custom"}, table["default"].BuildTags)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, oerrors.ErrConfigNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeDistributions(t, "")
		_, err := Load(path)
		assert.ErrorIs(t, err, oerrors.ErrConfigMalformed)
	})

	t.Run("non-mapping root", func(t *testing.T) {
		path := writeDistributions(t, "- just\n- a\n- list\n")
		_, err := Load(path)
		assert.ErrorIs(t, err, oerrors.ErrConfigMalformed)
	})

	t.Run("mistyped base", func(t *testing.T) {
		path := writeDistributions(t, `
broken:
  base: [not, a, string]
`)
		_, err := Load(path)
		assert.ErrorIs(t, err, oerrors.ErrConfigMalformed)
	})

	t.Run("mistyped buildtags", func(t *testing.T) {
		path := writeDistributions(t, `
broken:
  buildtags: single-string
`)
		_, err := Load(path)
		assert.ErrorIs(t, err, oerrors.ErrConfigMalformed)
	})
}

func TestNames(t *testing.T) {
	table := Table{
		"minimal": {},
		"default": {},
		"full":    {},
	}
	assert.Equal(t, []string{"default", "full", "minimal"}, table.Names())
}

func TestResolveBuildTags(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		dist  string
		want  []string
	}{
		{
			name:  "no base",
			table: Table{"a": {BuildTags: []string{"t2", "t1"}}},
			dist:  "a",
			want:  []string{"t1", "t2"},
		},
		{
			name: "single inheritance",
			table: Table{
				"base":  {BuildTags: []string{"common"}},
				"child": {Base: "base", BuildTags: []string{"extra"}},
			},
			dist: "child",
			want: []string{"common", "extra"},
		},
		{
			name: "chain of three",
			table: Table{
				"a": {BuildTags: []string{"ta"}},
				"b": {Base: "a", BuildTags: []string{"tb"}},
				"c": {Base: "b", BuildTags: []string{"tc"}},
			},
			dist: "c",
			want: []string{"ta", "tb", "tc"},
		},
		{
			name: "duplicates collapse",
			table: Table{
				"base":  {BuildTags: []string{"shared", "base-only"}},
				"child": {Base: "base", BuildTags: []string{"shared", "child-only"}},
			},
			dist: "child",
			want: []string{"base-only", "child-only", "shared"},
		},
		{
			name:  "empty distribution",
			table: Table{"empty": {}},
			dist:  "empty",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBuildTags(tt.dist, tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBuildTagsErrors(t *testing.T) {
	t.Run("distribution not found", func(t *testing.T) {
		_, err := ResolveBuildTags("ghost", Table{"real": {}})
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("missing base surfaces as not found", func(t *testing.T) {
		table := Table{"child": {Base: "ghost"}}
		_, err := ResolveBuildTags("child", table)
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
	})

	t.Run("two-node cycle", func(t *testing.T) {
		table := Table{
			"a": {Base: "b"},
			"b": {Base: "a"},
		}
		_, err := ResolveBuildTags("a", table)
		assert.ErrorIs(t, err, oerrors.ErrCircularDependency)
	})

	t.Run("self cycle", func(t *testing.T) {
		table := Table{"a": {Base: "a"}}
		_, err := ResolveBuildTags("a", table)
		assert.ErrorIs(t, err, oerrors.ErrCircularDependency)
	})

	t.Run("long cycle names a participant", func(t *testing.T) {
		table := Table{
			"a": {Base: "b"},
			"b": {Base: "c"},
			"c": {Base: "a"},
		}
		_, err := ResolveBuildTags("a", table)
		assert.ErrorIs(t, err, oerrors.ErrCircularDependency)
	})
}

// Sibling resolutions against the same table must not see each other's
// traversal state.
func TestResolveBuildTagsIsolatedTraversal(t *testing.T) {
	table := Table{
		"shared": {BuildTags: []string{"base"}},
		"left":   {Base: "shared", BuildTags: []string{"l"}},
		"right":  {Base: "shared", BuildTags: []string{"r"}},
	}

	left, err := ResolveBuildTags("left", table)
	require.NoError(t, err)
	right, err := ResolveBuildTags("right", table)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "l"}, left)
	assert.Equal(t, []string{"base", "r"}, right)

	// Re-resolving yields identical results.
	again, err := ResolveBuildTags("left", table)
	require.NoError(t, err)
	assert.Equal(t, left, again)
}
