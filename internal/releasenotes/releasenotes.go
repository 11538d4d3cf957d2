// Package releasenotes renders GitHub release notes for one published
// distribution and collector version from the layer metadata store.
package releasenotes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/layerstore"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// Querier fetches layer metadata for a distribution.
type Querier interface {
	QueryByDistribution(ctx context.Context, distribution string) ([]layerstore.Record, error)
}

// RegionInfo maps region codes to display names and continent groups.
type RegionInfo interface {
	Names(ctx context.Context, enabled []string) (map[string]string, error)
	Continent(ctx context.Context, code string) (string, error)
}

// Input selects which layers the notes cover.
type Input struct {
	Distribution     string
	CollectorVersion string
	BuildTags        []string
}

// Generate queries the metadata store and renders markdown release notes
// grouped by continent, region, and architecture. A failed region metadata
// lookup degrades to region codes; a failed store query is an error.
func Generate(ctx context.Context, store Querier, regions RegionInfo, in Input) (string, error) {
	records, err := store.QueryByDistribution(ctx, in.Distribution)
	if err != nil {
		return "", fmt.Errorf("querying layer metadata for %q: %w", in.Distribution, err)
	}

	var matched []layerstore.Record
	for _, rec := range records {
		if rec.CollectorVersionInput == in.CollectorVersion {
			matched = append(matched, rec)
		}
	}
	output.Info("matched layer metadata", "records", len(matched), "collectorVersion", in.CollectorVersion)

	names, err := regions.Names(ctx, nil)
	if err != nil {
		output.Warn("region metadata unavailable, using region codes", "error", err)
		names = map[string]string{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Release Details for %s - Collector %s\n\n", in.Distribution, in.CollectorVersion)

	b.WriteString("### Build Tags Used:\n\n")
	if len(in.BuildTags) == 0 {
		b.WriteString("- Default (no specific tags)\n")
	} else {
		for _, tag := range in.BuildTags {
			fmt.Fprintf(&b, "- `%s`\n", tag)
		}
	}
	b.WriteString("\n")

	b.WriteString("### Layer ARNs by Region:\n\n")
	if len(matched) == 0 {
		b.WriteString("No matching layers found in the metadata store for this specific version and distribution.\n")
		return b.String(), nil
	}

	b.WriteString(renderRegionTables(ctx, matched, regions, names))
	return b.String(), nil
}

// regionGroup is the per-region bucket of records, split by architecture.
type regionGroup map[string][]layerstore.Record

func renderRegionTables(ctx context.Context, records []layerstore.Record, regions RegionInfo, names map[string]string) string {
	continents := make(map[string]map[string]regionGroup)
	for _, rec := range records {
		region := rec.Region
		if region == "" {
			region = "unknown"
		}
		continent := continentOf(ctx, regions, region)

		if continents[continent] == nil {
			continents[continent] = make(map[string]regionGroup)
		}
		if continents[continent][region] == nil {
			continents[continent][region] = regionGroup{}
		}
		arch := rec.Architecture
		if arch != "amd64" && arch != "arm64" {
			continue
		}
		continents[continent][region][arch] = append(continents[continent][region][arch], rec)
	}

	var b strings.Builder
	for _, continent := range sortedKeys(continents) {
		b.WriteString("<table>\n")
		fmt.Fprintf(&b, "<tr><td colspan=\"3\"><strong>%s</strong></td></tr>\n", continent)

		for _, region := range sortedKeys(continents[continent]) {
			display := region
			if name, ok := names[region]; ok {
				display = name
			}
			fmt.Fprintf(&b, "<tr><td colspan=\"3\">✅ <strong>%s</strong></td></tr>\n", display)

			group := continents[continent][region]
			writeArchRows(&b, region, "amd64", "blue", group["amd64"])
			writeArchRows(&b, region, "arm64", "orange", group["arm64"])
		}

		b.WriteString("</table>\n\n")
	}
	return b.String()
}

func writeArchRows(b *strings.Builder, region, arch, color string, records []layerstore.Record) {
	badgeRegion := strings.ReplaceAll(region, "-", "--")
	for _, rec := range records {
		arn := rec.LayerARN
		if arn == "" {
			arn = "N/A"
		}
		b.WriteString("<tr>\n")
		fmt.Fprintf(b, "<td><img src=\"https://img.shields.io/badge/%s-eee?style=for-the-badge\" alt=\"%s\"></td>\n", badgeRegion, region)
		fmt.Fprintf(b, "<td><img src=\"https://img.shields.io/badge/arch-%s-%s?style=for-the-badge\" alt=\"%s\"></td>\n", arch, color, arch)
		fmt.Fprintf(b, "<td>%s</td>\n", arn)
		b.WriteString("</tr>\n")
	}
}

func continentOf(ctx context.Context, regions RegionInfo, code string) string {
	continent, err := regions.Continent(ctx, code)
	if err != nil || continent == "" {
		return "Other"
	}
	return continent
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
