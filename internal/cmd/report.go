package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocelotbuild/ocelot/internal/distribution"
	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/output"
	"github.com/ocelotbuild/ocelot/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	var (
		patternFlag string
		outputFlag  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a markdown report of published layers",
		Long: `Generate a markdown report of published collector layers across regions,
based on metadata stored in DynamoDB.

A pattern of the form '*<distribution>*' uses the distribution index; other
patterns filter by layer ARN after a full scan.

Examples:
  # Full report to LAYERS.md
  ocelot report

  # Only clickhouse layers, to stdout
  ocelot report --pattern '*clickhouse*' --output -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), patternFlag, outputFlag)
		},
	}

	cmd.Flags().StringVar(&patternFlag, "pattern", "", "Glob pattern to filter layers by ARN (e.g. '*clickhouse*amd64*')")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "LAYERS.md", "Output file path ('-' for stdout)")

	return cmd
}

func runReport(ctx context.Context, pattern, outputPath string) error {
	cfg := GetConfig()

	store, err := metadataStore(ctx, cfg.DynamoDBRegion, cfg.DynamoDBTable)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}

	// The known distribution names drive both the GSI fast path and the
	// report's section order. A missing distributions file just means no fast
	// path and alphabetical ordering.
	var distNames []string
	if table, err := distribution.Load(cfg.DistributionsFile); err == nil {
		distNames = table.Names()
	} else {
		output.Debug("distributions file unavailable for report ordering", "error", err)
	}

	output.Header("Layer report")

	recs, err := report.Fetch(ctx, store, pattern, distNames)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}
	output.Info("fetched layer metadata", "records", len(recs))

	groups := report.GroupRecords(recs, distNames)
	markdown := report.Render(groups, pattern, cfg.DynamoDBTable, time.Now())

	if outputPath == "-" {
		output.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(markdown), 0o644); err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}
	output.Successf("Report written to %s", outputPath)
	return nil
}
