package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ocelotbuild/ocelot/internal/distribution"
	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/githubactions"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// NewReleaseInfoCmd creates the release-info command.
func NewReleaseInfoCmd() *cobra.Command {
	var (
		distFlag             string
		collectorVersionFlag string
		releaseGroupFlag     string
		distributionsFlag    string
	)

	cmd := &cobra.Command{
		Use:   "release-info",
		Short: "Compute release tag, title, and build tags",
		Long: `Compute the release tag, release title, and resolved build tags for a
distribution, and expose them as workflow outputs.

The release tag has the form <distribution>-v<version>-<group> and the title
<distribution> | <version> | <group>.

Example:
  ocelot release-info -d minimal --collector-version v0.119.0 --release-group prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReleaseInfo(distFlag, collectorVersionFlag, releaseGroupFlag, distributionsFlag)
		},
	}

	cmd.Flags().StringVarP(&distFlag, "distribution", "d", "", "Distribution name (required)")
	cmd.Flags().StringVar(&collectorVersionFlag, "collector-version", "", "Collector version, e.g. v0.119.0 (required)")
	cmd.Flags().StringVar(&releaseGroupFlag, "release-group", "", "Release group (dev or prod)")
	cmd.Flags().StringVar(&distributionsFlag, "distributions-file", "", "Path to the distributions YAML")

	_ = cmd.MarkFlagRequired("distribution")
	_ = cmd.MarkFlagRequired("collector-version")

	return cmd
}

func runReleaseInfo(dist, collectorVersion, releaseGroup, distributionsFile string) error {
	cfg := GetConfig()
	if releaseGroup == "" {
		releaseGroup = cfg.ReleaseGroup
	}
	if distributionsFile == "" {
		distributionsFile = cfg.DistributionsFile
	}

	// Release info feeds a release pipeline; any distribution config problem
	// must fail fast here rather than surface mid-release.
	table, err := distribution.Load(distributionsFile)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}
	tags, err := distribution.ResolveBuildTags(dist, table)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}
	buildTags := strings.Join(tags, ",")

	version := strings.TrimPrefix(collectorVersion, "v")
	releaseTag := fmt.Sprintf("%s-v%s-%s", dist, version, releaseGroup)
	releaseTitle := fmt.Sprintf("%s | %s | %s", dist, version, releaseGroup)

	output.Header("Release info")
	output.PropertyList([][2]string{
		{"Distribution", dist},
		{"Collector version", collectorVersion},
		{"Release group", releaseGroup},
		{"Build tags", buildTags},
		{"Release tag", releaseTag},
		{"Release title", releaseTitle},
	})

	outputs := map[string]interface{}{
		"tag":               releaseTag,
		"title":             releaseTitle,
		"build_tags":        buildTags,
		"collector_version": collectorVersion,
		"distribution":      dist,
		"release_group":     releaseGroup,
	}
	for _, name := range []string{"tag", "title", "build_tags", "collector_version", "distribution", "release_group"} {
		if err := githubactions.SetOutput(name, outputs[name]); err != nil {
			return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
		}
	}
	return nil
}
