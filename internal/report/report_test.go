package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocelotbuild/ocelot/internal/layerstore"
)

// fakeFetcher implements Fetcher for tests.
type fakeFetcher struct {
	byDistribution map[string][]layerstore.Record
	all            []layerstore.Record
	queryErr       error
	queried        []string
	scanned        int
}

func (f *fakeFetcher) QueryByDistribution(_ context.Context, distribution string) ([]layerstore.Record, error) {
	f.queried = append(f.queried, distribution)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.byDistribution[distribution], nil
}

func (f *fakeFetcher) ScanAll(_ context.Context) ([]layerstore.Record, error) {
	f.scanned++
	return f.all, nil
}

func rec(arn, dist, arch, region, ts string) layerstore.Record {
	return layerstore.Record{
		PK:               arn,
		SK:               dist,
		LayerARN:         arn,
		Region:           region,
		Distribution:     dist,
		Architecture:     arch,
		LayerVersionStr:  "0_119_0",
		PublishTimestamp: ts,
	}
}

var knownDists = []string{"default", "minimal", "clickhouse", "full"}

func TestFetch(t *testing.T) {
	t.Run("distribution pattern uses the index", func(t *testing.T) {
		f := &fakeFetcher{byDistribution: map[string][]layerstore.Record{
			"minimal": {rec("arn:1", "minimal", "amd64", "us-east-1", "")},
		}}

		records, err := Fetch(context.Background(), f, "*minimal*", knownDists)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, []string{"minimal"}, f.queried)
		assert.Zero(t, f.scanned)
	})

	t.Run("index failure falls back to scan", func(t *testing.T) {
		f := &fakeFetcher{
			queryErr: errors.New("index offline"),
			all:      []layerstore.Record{rec("arn:minimal:1", "minimal", "amd64", "us-east-1", "")},
		}

		records, err := Fetch(context.Background(), f, "*minimal*", knownDists)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 1, f.scanned)
	})

	t.Run("complex pattern scans and filters by arn", func(t *testing.T) {
		f := &fakeFetcher{all: []layerstore.Record{
			rec("arn:aws:lambda:us-east-1:1:layer:ocel-amd64-minimal:1", "minimal", "amd64", "us-east-1", ""),
			rec("arn:aws:lambda:us-east-1:1:layer:ocel-arm64-minimal:1", "minimal", "arm64", "us-east-1", ""),
		}}

		records, err := Fetch(context.Background(), f, "*amd64*", knownDists)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Contains(t, records[0].LayerARN, "amd64")
		assert.Empty(t, f.queried)
	})

	t.Run("empty pattern returns everything", func(t *testing.T) {
		f := &fakeFetcher{all: []layerstore.Record{
			rec("arn:1", "default", "amd64", "us-east-1", ""),
			rec("arn:2", "minimal", "arm64", "eu-west-1", ""),
		}}

		records, err := Fetch(context.Background(), f, "", knownDists)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("unknown distribution pattern scans", func(t *testing.T) {
		f := &fakeFetcher{}
		_, err := Fetch(context.Background(), f, "*mystery*", knownDists)
		require.NoError(t, err)
		assert.Empty(t, f.queried)
		assert.Equal(t, 1, f.scanned)
	})
}

func TestDistributionPattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		ok      bool
	}{
		{"*minimal*", "minimal", true},
		{"*clickhouse*", "clickhouse", true},
		{"*mystery*", "", false},
		{"*min*mal*", "", false},
		{"minimal", "", false},
		{"*minimal", "", false},
		{"**", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, ok := distributionPattern(tt.pattern, knownDists)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupRecords(t *testing.T) {
	records := []layerstore.Record{
		rec("arn:4", "minimal", "arm64", "us-east-1", "2026-01-01T00:00:00Z"),
		rec("arn:1", "default", "amd64", "us-west-2", "2026-01-01T00:00:00Z"),
		rec("arn:2", "default", "amd64", "eu-west-1", "2026-01-01T00:00:00Z"),
		rec("arn:3", "default", "s390x", "us-east-1", "2026-01-01T00:00:00Z"),
		rec("arn:5", "experimental", "amd64", "us-east-1", "2026-01-01T00:00:00Z"),
	}

	groups := GroupRecords(records, knownDists)
	require.Len(t, groups, 4)

	// Known distributions in configured order, unknown ones after.
	assert.Equal(t, "default", groups[0].Distribution)
	assert.Equal(t, "amd64", groups[0].Architecture)
	assert.Equal(t, "default", groups[1].Distribution)
	assert.Equal(t, "unknown", groups[1].Architecture)
	assert.Equal(t, "minimal", groups[2].Distribution)
	assert.Equal(t, "arm64", groups[2].Architecture)
	assert.Equal(t, "experimental", groups[3].Distribution)

	// Records within a group sort by region.
	assert.Equal(t, "eu-west-1", groups[0].Records[0].Region)
	assert.Equal(t, "us-west-2", groups[0].Records[1].Region)
}

func TestRender(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	t.Run("with groups", func(t *testing.T) {
		groups := GroupRecords([]layerstore.Record{
			rec("arn:aws:lambda:us-east-1:1:layer:ocel:1", "default", "amd64", "us-east-1", "2026-08-01T10:30:00Z"),
		}, knownDists)

		md := Render(groups, "", "custom-collector-extension-layers", now)
		assert.Contains(t, md, "# OpenTelemetry Lambda Layers Report")
		assert.Contains(t, md, "Source: DynamoDB table 'custom-collector-extension-layers'")
		assert.Contains(t, md, "### default Distribution")
		assert.Contains(t, md, "#### amd64 Architecture")
		assert.Contains(t, md, "| us-east-1 | `arn:aws:lambda:us-east-1:1:layer:ocel:1` | 0_119_0 | 2026-08-01T10:30:00Z |")
		assert.Contains(t, md, "## Usage Instructions")
	})

	t.Run("pattern noted instead of source", func(t *testing.T) {
		md := Render(nil, "*minimal*", "table", now)
		assert.Contains(t, md, "Filtered by pattern: `*minimal*`")
		assert.NotContains(t, md, "Source: DynamoDB table")
		assert.Contains(t, md, "No layer metadata found")
	})
}
