package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocelotbuild/ocelot/internal/builder"
	"github.com/ocelotbuild/ocelot/internal/components"
	"github.com/ocelotbuild/ocelot/internal/config"
	"github.com/ocelotbuild/ocelot/internal/distribution"
	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/output"
	"github.com/ocelotbuild/ocelot/internal/overlay"
	"github.com/ocelotbuild/ocelot/internal/upstream"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var (
		distFlag      string
		archFlag      string
		repoFlag      string
		refFlag       string
		outputDirFlag string
		keepTempFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a custom collector layer",
		Long: `Build a custom OpenTelemetry Collector Lambda layer.

Clones the upstream repository, resolves the distribution's build tags,
overlays the selected custom components, injects their module dependencies,
and packages the layer zip into the output directory.

Examples:
  # Build the default distribution for amd64
  ocelot build

  # Build the clickhouse distribution for arm64
  ocelot build -d clickhouse -a arm64

  # Build against a fork
  ocelot build --upstream-repo myorg/opentelemetry-lambda --upstream-ref my-branch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), buildOptions{
				distribution: distFlag,
				architecture: archFlag,
				upstreamRepo: repoFlag,
				upstreamRef:  refFlag,
				outputDir:    outputDirFlag,
				keepTemp:     keepTempFlag,
			})
		},
	}

	cmd.Flags().StringVarP(&distFlag, "distribution", "d", "default", "Distribution to build")
	cmd.Flags().StringVarP(&archFlag, "architecture", "a", "amd64", "Architecture to build for (amd64 or arm64)")
	cmd.Flags().StringVarP(&repoFlag, "upstream-repo", "r", "", "Upstream repository (owner/name)")
	cmd.Flags().StringVarP(&refFlag, "upstream-ref", "b", "", "Upstream git ref (branch, tag, SHA)")
	cmd.Flags().StringVar(&outputDirFlag, "output-dir", "build", "Directory for the built layer zip")
	cmd.Flags().BoolVar(&keepTempFlag, "keep-temp", false, "Keep the temporary upstream clone")

	return cmd
}

type buildOptions struct {
	distribution string
	architecture string
	upstreamRepo string
	upstreamRef  string
	outputDir    string
	keepTemp     bool
}

// buildResult carries everything the publish step needs from a build.
type buildResult struct {
	ArtifactPath     string
	BuildTags        []string
	UpstreamVersion  string
	Distribution     string
	Architecture     string
	IncludedModules  []string
	OverlaidSections []string
}

func runBuild(ctx context.Context, opts buildOptions) error {
	start := time.Now()
	cfg := GetConfig()

	if opts.upstreamRepo == "" {
		opts.upstreamRepo = cfg.UpstreamRepo
	}
	if opts.upstreamRef == "" {
		opts.upstreamRef = cfg.UpstreamRef
	}
	if opts.architecture != "amd64" && opts.architecture != "arm64" {
		return &oerrors.ExitError{
			Code: oerrors.ExitGeneralError,
			Err:  fmt.Errorf("invalid architecture %q (valid: amd64, arm64)", opts.architecture),
		}
	}

	output.Header("Build layer (" + opts.architecture + ")")

	result, err := executeBuild(ctx, cfg, opts)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}

	info, err := os.Stat(result.ArtifactPath)
	if err != nil {
		return &oerrors.ExitError{
			Code: oerrors.ExitGeneralError,
			Err:  fmt.Errorf("built layer not found at %s: %w", result.ArtifactPath, err),
		}
	}

	output.Header("Build summary")
	output.PropertyList([][2]string{
		{"Distribution", result.Distribution},
		{"Architecture", result.Architecture},
		{"Collector version", result.UpstreamVersion},
		{"Build tags", strings.Join(result.BuildTags, ",")},
		{"Layer file", result.ArtifactPath},
		{"Layer size", formatFileSize(info.Size())},
		{"Elapsed", time.Since(start).Round(time.Second).String()},
	})
	output.Successf("Build complete: %s", result.ArtifactPath)
	return nil
}

// executeBuild runs the build pipeline and returns the artifact details.
// Shared by the build command and anything that builds before publishing.
func executeBuild(ctx context.Context, cfg *config.Config, opts buildOptions) (*buildResult, error) {
	// Distributions config is required; the build cannot proceed without it.
	table, err := distribution.Load(cfg.DistributionsFile)
	if err != nil {
		return nil, err
	}

	buildTags, err := distribution.ResolveBuildTags(opts.distribution, table)
	if err != nil {
		return nil, err
	}
	output.Info("resolved build tags", "distribution", opts.distribution, "tags", strings.Join(buildTags, ","))

	output.Subheader("Cloning upstream repository")
	var checkout *upstream.Checkout
	err = output.RunWithSpinner(ctx, func() error {
		var cloneErr error
		checkout, cloneErr = upstream.Clone(ctx, opts.upstreamRepo, opts.upstreamRef)
		return cloneErr
	}, output.WithTitle(fmt.Sprintf("Cloning %s@%s...", opts.upstreamRepo, opts.upstreamRef)))
	if err != nil {
		return nil, err
	}
	defer checkout.Cleanup(opts.keepTemp)

	upstreamVersion, err := checkout.DetermineVersion(ctx)
	if err != nil {
		return nil, err
	}
	output.Info("determined upstream collector version", "version", upstreamVersion)

	// The dependency mapping degrades to empty when missing or malformed.
	mapping := components.LoadMapping(cfg.DependenciesFile)
	included := components.ResolveByTags(buildTags, mapping)

	output.Subheader("Overlaying custom components")
	copied, err := overlay.Apply(cfg.ComponentsDir, checkout.Dir, included)
	if err != nil {
		return nil, err
	}

	if dist, ok := table[opts.distribution]; ok && dist.ConfigFile != "" {
		if err := overlay.CopyConfigFile(cfg.CollectorConfigsDir, dist.ConfigFile, checkout.Dir); err != nil {
			return nil, err
		}
	}

	modules := components.Modules(included, mapping)
	if err := builder.AddDependencies(ctx, checkout.CollectorDir(), modules, upstreamVersion); err != nil {
		return nil, err
	}

	output.Subheader("Packaging layer")
	err = output.RunWithSpinner(ctx, func() error {
		return builder.Package(ctx, checkout.CollectorDir(), opts.architecture, strings.Join(buildTags, ","))
	}, output.WithTitle("Running make package..."))
	if err != nil {
		return nil, err
	}

	artifact, err := builder.CollectArtifact(checkout.CollectorDir(), opts.architecture, opts.distribution, opts.outputDir)
	if err != nil {
		return nil, err
	}

	return &buildResult{
		ArtifactPath:     artifact,
		BuildTags:        buildTags,
		UpstreamVersion:  upstreamVersion,
		Distribution:     opts.distribution,
		Architecture:     opts.architecture,
		IncludedModules:  modules,
		OverlaidSections: copied,
	}, nil
}

func formatFileSize(size int64) string {
	const mb = 1024 * 1024
	if size >= mb {
		return fmt.Sprintf("%.2f MB", float64(size)/float64(mb))
	}
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
