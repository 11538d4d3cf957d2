package components

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want Tag
		ok   bool
	}{
		{"lambdacomponents.exporter.clickhouse", Tag{"lambdacomponents", "exporter", "clickhouse"}, true},
		{"lambdacomponents.receiver.all", Tag{"lambdacomponents", "receiver", "all"}, true},
		{"lambdacomponents.processor.some.dotted.name", Tag{"lambdacomponents", "processor", "some.dotted.name"}, true},
		{"lambdacomponents.all", Tag{}, false},
		{"lambdacomponents", Tag{}, false},
		{"", Tag{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := ParseTag(tt.tag)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTagHelpers(t *testing.T) {
	tag, ok := ParseTag("lambdacomponents.exporter.all")
	require.True(t, ok)
	assert.True(t, tag.IsWildcard())

	dir, ok := tag.CategoryDir()
	require.True(t, ok)
	assert.Equal(t, "exporter", dir)

	bad, ok := ParseTag("lambdacomponents.notacategory.x")
	require.True(t, ok)
	_, ok = bad.CategoryDir()
	assert.False(t, ok)
}

func testMapping() *Mapping {
	return NewMapping(
		[]string{
			"lambdacomponents.exporter.clickhouse",
			"lambdacomponents.receiver.otlp",
			"lambdacomponents.processor.batch",
		},
		map[string][]string{
			"lambdacomponents.exporter.clickhouse": {"github.com/open-telemetry/opentelemetry-collector-contrib/exporter/clickhouseexporter"},
			"lambdacomponents.receiver.otlp":       nil,
			"lambdacomponents.processor.batch":     {"go.opentelemetry.io/collector/processor/batchprocessor"},
		},
	)
}

func TestResolveByTags(t *testing.T) {
	mapping := testMapping()

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{
			name: "direct match",
			tags: []string{"lambdacomponents.exporter.clickhouse"},
			want: []string{"lambdacomponents.exporter.clickhouse"},
		},
		{
			name: "global wildcard includes everything",
			tags: []string{"lambdacomponents.all"},
			want: []string{
				"lambdacomponents.exporter.clickhouse",
				"lambdacomponents.receiver.otlp",
				"lambdacomponents.processor.batch",
			},
		},
		{
			name: "category wildcard includes only that category",
			tags: []string{"lambdacomponents.exporter.all"},
			want: []string{"lambdacomponents.exporter.clickhouse"},
		},
		{
			name: "rules are not exclusive",
			tags: []string{"lambdacomponents.exporter.all", "lambdacomponents.receiver.otlp"},
			want: []string{
				"lambdacomponents.exporter.clickhouse",
				"lambdacomponents.receiver.otlp",
			},
		},
		{
			name: "no active tags",
			tags: nil,
			want: nil,
		},
		{
			name: "unrelated tags",
			tags: []string{"othercomponents.all"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveByTags(tt.tags, mapping)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Output order must follow mapping key order, not active tag order.
func TestResolveByTagsOrder(t *testing.T) {
	mapping := testMapping()

	got := ResolveByTags([]string{
		"lambdacomponents.processor.batch",
		"lambdacomponents.exporter.clickhouse",
	}, mapping)

	assert.Equal(t, []string{
		"lambdacomponents.exporter.clickhouse",
		"lambdacomponents.processor.batch",
	}, got)
}

func TestResolveByTagsDoesNotMutateInputs(t *testing.T) {
	mapping := testMapping()
	tags := []string{"lambdacomponents.all"}

	before := append([]string(nil), mapping.Keys()...)
	_ = ResolveByTags(tags, mapping)

	assert.Equal(t, before, mapping.Keys())
	assert.Equal(t, []string{"lambdacomponents.all"}, tags)
}

func TestModules(t *testing.T) {
	mapping := NewMapping(
		[]string{"a.exporter.x", "a.exporter.y", "a.receiver.z"},
		map[string][]string{
			"a.exporter.x": {"mod/b", "mod/a"},
			"a.exporter.y": {"mod/a", ""},
			"a.receiver.z": nil,
		},
	)

	got := Modules([]string{"a.exporter.x", "a.exporter.y", "a.receiver.z"}, mapping)
	assert.Equal(t, []string{"mod/a", "mod/b"}, got)

	assert.Empty(t, Modules(nil, mapping))
}

func TestLoadMapping(t *testing.T) {
	t.Run("preserves document order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deps.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
dependencies:
  z.exporter.last: mod/z
  a.exporter.first:
    - mod/a1
    - mod/a2
  m.receiver.middle: mod/m
`), 0o644))

		m := LoadMapping(path)
		assert.Equal(t, []string{"z.exporter.last", "a.exporter.first", "m.receiver.middle"}, m.Keys())
		assert.Equal(t, []string{"mod/z"}, m.Dependencies("z.exporter.last"))
		assert.Equal(t, []string{"mod/a1", "mod/a2"}, m.Dependencies("a.exporter.first"))
	})

	t.Run("missing file degrades to empty", func(t *testing.T) {
		m := LoadMapping(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Zero(t, m.Len())
	})

	t.Run("malformed file degrades to empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deps.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dependencies: [a, list]"), 0o644))
		m := LoadMapping(path)
		assert.Zero(t, m.Len())
	})

	t.Run("invalid value skips only that entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deps.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
dependencies:
  good.exporter.one: mod/good
  bad.exporter.two:
    nested: map
`), 0o644))

		m := LoadMapping(path)
		assert.Equal(t, []string{"good.exporter.one"}, m.Keys())
	})
}
