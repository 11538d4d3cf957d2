package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/ocelotbuild/ocelot/internal/awsutil"
	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/githubactions"
	"github.com/ocelotbuild/ocelot/internal/layerstore"
	"github.com/ocelotbuild/ocelot/internal/output"
	"github.com/ocelotbuild/ocelot/internal/publisher"
)

// NewPublishCmd creates the publish command.
func NewPublishCmd() *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a built layer to AWS Lambda",
		Long: `Publish a built collector layer zip as an AWS Lambda layer version.

Constructs the layer name from the distribution, architecture, version, and
release group, then checks existing layer versions for an identical artifact
(by md5 hash in the description). An identical layer is reused instead of
re-published. New versions are optionally made public and recorded in the
metadata table.

Examples:
  # Publish to one region
  ocelot publish --artifact build/collector-amd64-default.zip --region us-east-1

  # Dry run
  ocelot publish --artifact build/collector-arm64-minimal.zip --region eu-west-1 \
    --distribution minimal --architecture arm64 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.artifact, "artifact", "", "Path to the layer zip artifact (required)")
	cmd.Flags().StringVar(&opts.region, "region", "", "AWS region to publish the layer (required)")
	cmd.Flags().StringVarP(&opts.layerName, "layer-name", "l", "", "Base layer name")
	cmd.Flags().StringVarP(&opts.distribution, "distribution", "d", "default", "Distribution name")
	cmd.Flags().StringVarP(&opts.architecture, "architecture", "a", "amd64", "Layer architecture (amd64 or arm64)")
	cmd.Flags().StringVar(&opts.runtimes, "runtimes", "", "Space-delimited list of compatible runtimes")
	cmd.Flags().StringVar(&opts.releaseGroup, "release-group", "", "Release group (dev or prod)")
	cmd.Flags().StringVar(&opts.layerVersion, "layer-version", "", "Specific version override for layer naming")
	cmd.Flags().StringVar(&opts.collectorVersion, "collector-version", "", "Version of the collector included")
	cmd.Flags().StringVar(&opts.buildTags, "build-tags", "", "Comma-separated build tags used for the layer")
	cmd.Flags().BoolVar(&opts.makePublic, "make-public", true, "Make the layer publicly accessible")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Perform a dry run without publishing")

	_ = cmd.MarkFlagRequired("artifact")
	_ = cmd.MarkFlagRequired("region")

	return cmd
}

type publishOptions struct {
	artifact         string
	region           string
	layerName        string
	distribution     string
	architecture     string
	runtimes         string
	releaseGroup     string
	layerVersion     string
	collectorVersion string
	buildTags        string
	makePublic       bool
	dryRun           bool
}

func runPublish(ctx context.Context, opts publishOptions) error {
	cfg := GetConfig()
	if opts.layerName == "" {
		opts.layerName = cfg.LayerName
	}
	if opts.releaseGroup == "" {
		opts.releaseGroup = cfg.ReleaseGroup
	}

	output.Header("Publish layer")
	if opts.dryRun {
		output.Warn("dry run mode enabled, nothing will be published")
	}

	layerName, archStr, versionStr := publisher.ConstructName(publisher.NameInput{
		BaseName:         opts.layerName,
		Architecture:     opts.architecture,
		Distribution:     opts.distribution,
		Version:          opts.layerVersion,
		CollectorVersion: opts.collectorVersion,
		ReleaseGroup:     opts.releaseGroup,
	})
	output.Info("constructed layer name", "name", layerName)

	md5Hash, err := publisher.FileMD5(opts.artifact)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}
	output.Info("computed artifact hash", "md5", md5Hash)

	awsCfg, err := awsutil.LoadConfig(ctx, opts.region)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}
	if _, err := awsutil.VerifyCredentials(ctx, sts.NewFromConfig(awsCfg)); err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}

	pub := publisher.New(lambda.NewFromConfig(awsCfg), opts.region)
	store, err := metadataStore(ctx, cfg.DynamoDBRegion, cfg.DynamoDBTable)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}

	output.Subheader("Checking existing layers")
	var reuse bool
	var existingARN string
	err = output.RunWithSpinner(ctx, func() error {
		var findErr error
		reuse, existingARN, findErr = pub.FindExisting(ctx, layerName, md5Hash)
		return findErr
	}, output.WithTitle("Checking existing layer versions..."))
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}

	if err := githubactions.SetOutput("skip_publish", fmt.Sprintf("%t", reuse)); err != nil {
		output.Warn("failed to set workflow output", "error", err)
	}

	runtimes := strings.Fields(opts.runtimes)
	buildTags := splitTags(opts.buildTags)
	status := output.StatusPublished
	layerARN := existingARN

	if reuse {
		status = output.StatusReused
		output.Subheader("Reusing existing layer")
		output.Info("identical layer already exists", "arn", existingARN, "md5", md5Hash)

		// A reused layer may predate the metadata table; repair the record if
		// it is missing.
		if err := repairMetadata(ctx, store, opts, existingARN, md5Hash, versionStr, layerName, runtimes); err != nil {
			output.Warn("metadata check failed", "error", err)
		}
	} else {
		output.Subheader("Publishing layer")
		err = output.RunWithSpinner(ctx, func() error {
			var pubErr error
			layerARN, pubErr = pub.Publish(ctx, publisher.PublishInput{
				LayerName:    layerName,
				ArtifactPath: opts.artifact,
				MD5Hash:      md5Hash,
				Architecture: archStr,
				Runtimes:     runtimes,
				BuildTags:    buildTags,
				DryRun:       opts.dryRun,
			})
			return pubErr
		}, output.WithTitle("Uploading to AWS Lambda..."))
		if err != nil {
			return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
		}
		output.Successf("Published %s", layerARN)

		if opts.makePublic {
			if err := pub.MakePublic(ctx, layerName, layerARN, opts.dryRun); err != nil {
				return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
			}
			output.Info("layer is publicly accessible", "arn", layerARN)
		} else {
			output.Info("keeping layer private", "hint", "use --make-public to change this")
		}

		rec := layerstore.Record{
			PK:                    layerARN,
			SK:                    opts.distribution,
			LayerARN:              layerARN,
			Region:                opts.region,
			BaseName:              layerName,
			Architecture:          opts.architecture,
			Distribution:          opts.distribution,
			LayerVersionStr:       versionStr,
			CollectorVersionInput: opts.collectorVersion,
			MD5Hash:               md5Hash,
			PublishTimestamp:      time.Now().UTC().Format(time.RFC3339),
			Public:                opts.makePublic,
			CompatibleRuntimes:    runtimes,
		}
		if opts.dryRun {
			output.Info("dry run: would write layer metadata", "pk", rec.PK, "sk", rec.SK)
		} else if err := store.Put(ctx, rec); err != nil {
			// The layer is live either way; a metadata failure is not fatal.
			output.Warn("layer published but metadata write failed", "error", err)
		}
	}

	if layerARN == "" {
		return &oerrors.ExitError{
			Code: oerrors.ExitGeneralError,
			Err:  fmt.Errorf("no layer ARN available for %s in %s", layerName, opts.region),
		}
	}

	if err := githubactions.SetOutput("layer_arn", layerARN); err != nil {
		output.Warn("failed to set workflow output", "error", err)
	}
	writePublishSummary(layerName, layerARN, md5Hash, status, opts)

	output.Header("Publish summary")
	output.Println(output.FormatStatusLine(layerARN, status))
	return nil
}

// metadataStore builds the layer metadata store against the configured
// DynamoDB region and table.
func metadataStore(ctx context.Context, region, table string) (*layerstore.Store, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return layerstore.New(dynamodb.NewFromConfig(awsCfg), layerstore.WithTable(table)), nil
}

// repairMetadata writes a metadata record for a reused layer that has none.
func repairMetadata(ctx context.Context, store *layerstore.Store, opts publishOptions, layerARN, md5Hash, versionStr, layerName string, runtimes []string) error {
	existing, err := store.Get(ctx, layerARN)
	if err != nil {
		return err
	}
	if existing != nil {
		output.Debug("metadata record exists, no repair needed", "arn", layerARN)
		return nil
	}

	output.Info("metadata record missing, repairing", "arn", layerARN)
	rec := layerstore.Record{
		PK:                    layerARN,
		SK:                    opts.distribution,
		LayerARN:              layerARN,
		Region:                opts.region,
		BaseName:              layerName,
		Architecture:          opts.architecture,
		Distribution:          opts.distribution,
		LayerVersionStr:       versionStr,
		CollectorVersionInput: opts.collectorVersion,
		MD5Hash:               md5Hash,
		PublishTimestamp:      time.Now().UTC().Format(time.RFC3339),
		Public:                opts.makePublic,
		CompatibleRuntimes:    runtimes,
	}
	if opts.dryRun {
		output.Info("dry run: would repair layer metadata", "pk", rec.PK, "sk", rec.SK)
		return nil
	}
	return store.Put(ctx, rec)
}

func writePublishSummary(layerName, layerARN, md5Hash, status string, opts publishOptions) {
	statusText := "Published new layer version"
	if status == output.StatusReused {
		statusText = "Reused existing layer (identical content)"
	}

	props := [][2]string{
		{"Layer Name", layerName},
		{"Region", opts.region},
		{"ARN", layerARN},
		{"Content MD5", md5Hash},
		{"Status", statusText},
		{"Artifact", filepath.Base(opts.artifact)},
	}
	if opts.distribution != "" && opts.distribution != "default" {
		props = append(props, [2]string{"Distribution", opts.distribution})
	}
	if opts.architecture != "" {
		props = append(props, [2]string{"Architecture", opts.architecture})
	}
	if opts.collectorVersion != "" {
		props = append(props, [2]string{"Collector Version", opts.collectorVersion})
	}

	if err := githubactions.AppendStepSummary(githubactions.SummaryTable("Layer Publishing Summary", props)); err != nil {
		output.Warn("failed to write step summary", "error", err)
	}
}

// splitTags splits a comma-separated tag string, dropping empty entries.
func splitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
