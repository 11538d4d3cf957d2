package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/githubactions"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// NewMatricesCmd creates the matrices command.
func NewMatricesCmd() *cobra.Command {
	var (
		archFlag   string
		regionFlag string
	)

	cmd := &cobra.Command{
		Use:   "matrices",
		Short: "Generate workflow build and release matrices",
		Long: `Generate the build and release job matrices consumed by the publishing
workflow, and expose them as workflow outputs.

The build matrix holds the requested architectures; the release matrix is the
cross product of architectures and target regions.

Example:
  ocelot matrices --architecture all --aws-region all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrices(archFlag, regionFlag)
		},
	}

	cmd.Flags().StringVarP(&archFlag, "architecture", "a", "all", "Architecture(s) to build: all, amd64, or arm64")
	cmd.Flags().StringVar(&regionFlag, "aws-region", "all", "AWS region(s) to publish to ('all' for the configured list)")

	return cmd
}

func runMatrices(arch, region string) error {
	cfg := GetConfig()

	var architectures []string
	switch arch {
	case "all":
		architectures = []string{"amd64", "arm64"}
	case "amd64", "arm64":
		architectures = []string{arch}
	default:
		return &oerrors.ExitError{
			Code: oerrors.ExitGeneralError,
			Err:  fmt.Errorf("invalid architecture %q (valid: all, amd64, arm64)", arch),
		}
	}

	regions := []string{region}
	if region == "all" {
		regions = cfg.Regions
	}

	buildMatrix := map[string]interface{}{"architecture": architectures}
	releaseMatrix := map[string]interface{}{
		"architecture": architectures,
		"aws-region":   regions,
	}

	if data, err := json.Marshal(buildMatrix); err == nil {
		output.Info("build matrix", "json", string(data))
	}
	if data, err := json.Marshal(releaseMatrix); err == nil {
		output.Info("release matrix", "json", string(data))
	}

	if err := githubactions.SetOutput("build_jobs", buildMatrix); err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}
	if err := githubactions.SetOutput("release_jobs", releaseMatrix); err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}

	output.Successf("Matrix preparation complete")
	return nil
}
