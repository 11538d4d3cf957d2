// Package report renders published-layer metadata as a markdown report.
package report

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ocelotbuild/ocelot/internal/layerstore"
	"github.com/ocelotbuild/ocelot/internal/output"
)

var knownArchitectures = []string{"amd64", "arm64", "unknown"}

// Fetcher is the metadata access the report needs.
type Fetcher interface {
	QueryByDistribution(ctx context.Context, distribution string) ([]layerstore.Record, error)
	ScanAll(ctx context.Context) ([]layerstore.Record, error)
}

// Fetch retrieves layer records, optionally filtered by a glob pattern on the
// layer ARN. A pattern of the form *<distribution>* with a known distribution
// name uses the GSI instead of a full scan.
func Fetch(ctx context.Context, store Fetcher, pattern string, distributions []string) ([]layerstore.Record, error) {
	if dist, ok := distributionPattern(pattern, distributions); ok {
		output.Debug("querying by distribution", "distribution", dist)
		records, err := store.QueryByDistribution(ctx, dist)
		if err == nil {
			return records, nil
		}
		output.Warn("distribution query failed, falling back to scan", "error", err)
	}

	records, err := store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		return records, nil
	}

	filtered := records[:0]
	for _, rec := range records {
		matched, err := path.Match(pattern, rec.LayerARN)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// distributionPattern reports whether pattern is exactly *<name>* for a known
// distribution.
func distributionPattern(pattern string, distributions []string) (string, bool) {
	if len(pattern) < 3 || !strings.HasPrefix(pattern, "*") || !strings.HasSuffix(pattern, "*") {
		return "", false
	}
	inner := pattern[1 : len(pattern)-1]
	if strings.Contains(inner, "*") {
		return "", false
	}
	for _, d := range distributions {
		if inner == d {
			return inner, true
		}
	}
	return "", false
}

// Group arranges records by distribution and architecture.
type Group struct {
	Distribution string
	Architecture string
	Records      []layerstore.Record
}

// GroupRecords buckets records by distribution:architecture. Distributions
// follow the given order (unknowns appended alphabetically); architectures
// follow amd64, arm64, unknown.
func GroupRecords(records []layerstore.Record, distOrder []string) []Group {
	buckets := make(map[string]map[string][]layerstore.Record)
	for _, rec := range records {
		dist := rec.Distribution
		if dist == "" {
			dist = "unknown"
		}
		arch := rec.Architecture
		if !knownArch(arch) {
			arch = "unknown"
		}
		if buckets[dist] == nil {
			buckets[dist] = make(map[string][]layerstore.Record)
		}
		buckets[dist][arch] = append(buckets[dist][arch], rec)
	}

	dists := orderedDistributions(buckets, distOrder)

	var groups []Group
	for _, dist := range dists {
		for _, arch := range knownArchitectures {
			recs := buckets[dist][arch]
			if len(recs) == 0 {
				continue
			}
			sort.Slice(recs, func(i, j int) bool {
				if recs[i].Region != recs[j].Region {
					return recs[i].Region < recs[j].Region
				}
				return recs[i].PublishTimestamp < recs[j].PublishTimestamp
			})
			groups = append(groups, Group{Distribution: dist, Architecture: arch, Records: recs})
		}
	}
	return groups
}

func knownArch(arch string) bool {
	for _, a := range knownArchitectures {
		if arch == a {
			return true
		}
	}
	return false
}

func orderedDistributions(buckets map[string]map[string][]layerstore.Record, distOrder []string) []string {
	seen := make(map[string]bool, len(buckets))
	var dists []string
	for _, d := range distOrder {
		if _, ok := buckets[d]; ok {
			dists = append(dists, d)
			seen[d] = true
		}
	}
	var extra []string
	for d := range buckets {
		if !seen[d] {
			extra = append(extra, d)
		}
	}
	sort.Strings(extra)
	return append(dists, extra...)
}

// Render produces the markdown report.
func Render(groups []Group, pattern, tableName string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# OpenTelemetry Lambda Layers Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format("2006-01-02 15:04:05"))

	if pattern != "" {
		fmt.Fprintf(&b, "Filtered by pattern: `%s`\n\n", pattern)
	} else {
		fmt.Fprintf(&b, "Source: DynamoDB table '%s'\n\n", tableName)
	}

	b.WriteString("This report lists all OpenTelemetry Lambda layers available across AWS regions, based on metadata stored in DynamoDB.\n\n")
	b.WriteString("## Available Layers by Distribution\n\n")

	if len(groups) == 0 {
		b.WriteString("No layer metadata found matching the specified criteria.\n\n")
	}

	lastDist := ""
	for _, g := range groups {
		if g.Distribution != lastDist {
			fmt.Fprintf(&b, "### %s Distribution\n\n", g.Distribution)
			lastDist = g.Distribution
		}
		fmt.Fprintf(&b, "#### %s Architecture\n\n", g.Architecture)
		b.WriteString("| Region | Layer ARN | Version | Published |\n")
		b.WriteString("|--------|-----------|---------|-----------|\n")
		for _, rec := range g.Records {
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
				orDefault(rec.Region, "?"),
				orDefault(rec.LayerARN, "N/A"),
				orDefault(rec.LayerVersionStr, "?"),
				formatTimestamp(rec.PublishTimestamp))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Usage Instructions\n\n")
	b.WriteString("To use a layer in your Lambda function, add the ARN to your function's configuration:\n\n")
	b.WriteString("```bash\n")
	b.WriteString("aws lambda update-function-configuration --function-name YOUR_FUNCTION --layers ARN_FROM_TABLE\n")
	b.WriteString("```\n\n")
	b.WriteString("For more information, see the [documentation](https://github.com/open-telemetry/opentelemetry-lambda).\n")

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatTimestamp(ts string) string {
	if ts == "" {
		return "Unknown"
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.Format("2006-01-02T15:04:05Z07:00")
	}
	return ts
}
