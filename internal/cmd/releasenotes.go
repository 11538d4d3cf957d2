package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/output"
	"github.com/ocelotbuild/ocelot/internal/regions"
	"github.com/ocelotbuild/ocelot/internal/releasenotes"
)

// NewReleaseNotesCmd creates the release-notes command.
func NewReleaseNotesCmd() *cobra.Command {
	var (
		distributionFlag     string
		collectorVersionFlag string
		buildTagsFlag        string
		outputFlag           string
	)

	cmd := &cobra.Command{
		Use:   "release-notes",
		Short: "Generate GitHub release notes for a published distribution",
		Long: `Generate markdown release notes for one distribution and collector version,
listing layer ARNs grouped by continent, region, and architecture from the
metadata stored in DynamoDB.

Examples:
  ocelot release-notes -d clickhouse --collector-version v0.119.0
  ocelot release-notes -d default --collector-version v0.119.0 --output notes.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReleaseNotes(cmd.Context(), distributionFlag, collectorVersionFlag, buildTagsFlag, outputFlag)
		},
	}

	cmd.Flags().StringVarP(&distributionFlag, "distribution", "d", "", "Distribution name (required)")
	cmd.Flags().StringVar(&collectorVersionFlag, "collector-version", "", "Collector version to filter layers, e.g. v0.119.0 (required)")
	cmd.Flags().StringVar(&buildTagsFlag, "build-tags", "", "Comma-separated build tags used for this release")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "-", "Output file path ('-' for stdout)")
	_ = cmd.MarkFlagRequired("distribution")
	_ = cmd.MarkFlagRequired("collector-version")

	return cmd
}

func runReleaseNotes(ctx context.Context, dist, collectorVersion, buildTags, outputPath string) error {
	cfg := GetConfig()

	store, err := metadataStore(ctx, cfg.DynamoDBRegion, cfg.DynamoDBTable)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}

	notes, err := releasenotes.Generate(ctx, store, regions.NewClient(), releasenotes.Input{
		Distribution:     dist,
		CollectorVersion: collectorVersion,
		BuildTags:        splitTags(buildTags),
	})
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}

	if outputPath == "-" {
		output.Print(notes)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(notes), 0o644); err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}
	output.Successf("Release notes written to %s", outputPath)
	return nil
}
