package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ocelotbuild/ocelot/internal/awsutil"
	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/output"
	"github.com/ocelotbuild/ocelot/internal/publisher"
)

// searchConcurrency bounds the per-region search fan-out.
const searchConcurrency = 4

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	var (
		patternFlag      string
		dryRunFlag       bool
		yesFlag          bool
		regionsFlag      string
		skipDynamoDBFlag bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete layers matching a pattern across regions",
		Long: `Delete AWS Lambda layers matching a glob pattern across configured regions.

Every version of each matching layer is deleted, along with its metadata
record unless --skip-dynamodb is given. Deletion cannot be undone; a
confirmation prompt is shown unless --yes or --dry-run is set.

Examples:
  # Preview what would be deleted
  ocelot delete --pattern 'ocel-*-dev' --dry-run

  # Delete dev layers in two regions without prompting
  ocelot delete --pattern 'ocel-*-dev' --regions us-east-1,eu-west-1 --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var regions []string
			if regionsFlag != "" {
				for _, r := range strings.Split(regionsFlag, ",") {
					if r = strings.TrimSpace(r); r != "" {
						regions = append(regions, r)
					}
				}
			}
			return runDelete(cmd.Context(), deleteOptions{
				pattern:      patternFlag,
				dryRun:       dryRunFlag,
				yes:          yesFlag,
				regions:      regions,
				skipDynamoDB: skipDynamoDBFlag,
			})
		},
	}

	cmd.Flags().StringVar(&patternFlag, "pattern", "", "Glob pattern to match layer names (required)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be deleted without deleting")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&regionsFlag, "regions", "", "Comma-separated regions to search (default: configured region list)")
	cmd.Flags().BoolVar(&skipDynamoDBFlag, "skip-dynamodb", false, "Skip deletion of metadata records")

	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

type deleteOptions struct {
	pattern      string
	dryRun       bool
	yes          bool
	regions      []string
	skipDynamoDB bool
}

func runDelete(ctx context.Context, opts deleteOptions) error {
	cfg := GetConfig()
	regions := opts.regions
	if len(regions) == 0 {
		regions = cfg.Regions
	}

	output.Header("Searching for layers")
	output.PropertyList([][2]string{
		{"Pattern", opts.pattern},
		{"Regions", fmt.Sprintf("%d", len(regions))},
		{"Mode", deleteMode(opts.dryRun)},
		{"Metadata cleanup", enabledText(!opts.skipDynamoDB)},
	})

	awsCfg, err := awsutil.LoadConfig(ctx, "")
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}
	account, err := awsutil.VerifyCredentials(ctx, sts.NewFromConfig(awsCfg))
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitAWSError, Err: err}
	}
	output.Info("AWS credentials verified", "account", account)

	found, err := searchRegions(ctx, regions, opts.pattern)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}
	if len(found) == 0 {
		output.Info("no layers match the pattern, nothing to do")
		return nil
	}

	printLayerSummary(found)

	if !opts.dryRun && !opts.yes {
		if !confirmDeletion(found, !opts.skipDynamoDB) {
			output.Warn("deletion cancelled")
			return nil
		}
	}

	deleted, failed, err := deleteLayers(ctx, found, opts)
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitCodeFor(err), Err: err}
	}

	output.Header("Results")
	if opts.dryRun {
		output.Info("dry run complete", "wouldDelete", deleted)
		return nil
	}
	if deleted > 0 {
		output.Successf("Deleted %d layer version(s)", deleted)
	}
	if failed > 0 {
		return &oerrors.ExitError{
			Code: oerrors.ExitAWSError,
			Err:  fmt.Errorf("failed to delete %d layer version(s)", failed),
		}
	}
	return nil
}

// searchRegions fans out the layer search across regions with a bounded
// errgroup. Results are merged and ordered by region then name.
func searchRegions(ctx context.Context, regions []string, pattern string) ([]publisher.FoundLayer, error) {
	var mu sync.Mutex
	var found []publisher.FoundLayer

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)

	for _, region := range regions {
		g.Go(func() error {
			awsCfg, err := awsutil.LoadConfig(gctx, region)
			if err != nil {
				return err
			}
			pub := publisher.New(lambda.NewFromConfig(awsCfg), region)

			layers, err := pub.FindLayers(gctx, pattern)
			if err != nil {
				return err
			}
			if len(layers) > 0 {
				output.Info("found matching layers", "region", region, "count", len(layers))
			} else {
				output.Debug("no matching layers", "region", region)
			}

			mu.Lock()
			found = append(found, layers...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Region != found[j].Region {
			return found[i].Region < found[j].Region
		}
		return found[i].Name < found[j].Name
	})
	return found, nil
}

func printLayerSummary(found []publisher.FoundLayer) {
	total := 0
	for _, l := range found {
		total += len(l.Versions)
	}

	output.Header("Layers summary")
	output.Info("matching layers", "layers", len(found), "versions", total)

	for _, layer := range found {
		output.Subheader(fmt.Sprintf("%s (%s)", layer.Name, layer.Region))
		tbl := output.NewTable("Version", "Created", "ARN")
		for _, v := range layer.Versions {
			arn := v.ARN
			if len(arn) > 80 {
				arn = arn[:77] + "..."
			}
			tbl.Row(fmt.Sprintf("%d", v.Version), v.Created, arn)
		}
		output.Println(tbl.String())
	}
}

func confirmDeletion(found []publisher.FoundLayer, withMetadata bool) bool {
	total := 0
	for _, l := range found {
		total += len(l.Versions)
	}

	output.Header("Confirmation required")
	output.Warn("about to delete layers", "layers", len(found), "versions", total)
	if withMetadata {
		output.Warn("the corresponding metadata records will also be deleted")
	}
	output.Warn("this action cannot be undone")

	output.Print("\nType 'DELETE' to confirm: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "DELETE"
}

// deleteLayers removes each version of each layer sequentially. Deletion is
// deliberately not parallel: progress must be readable and partial failures
// attributable.
func deleteLayers(ctx context.Context, found []publisher.FoundLayer, opts deleteOptions) (deleted, failed int, err error) {
	cfg := GetConfig()

	var store metadataDeleter
	if !opts.skipDynamoDB {
		s, err := metadataStore(ctx, cfg.DynamoDBRegion, cfg.DynamoDBTable)
		if err != nil {
			return 0, 0, err
		}
		store = s
	}

	output.Header("Deleting layers")

	clients := make(map[string]*publisher.Publisher)
	for _, layer := range found {
		if opts.dryRun {
			output.Info("dry run: would delete layer",
				"layer", layer.Name, "region", layer.Region, "versions", len(layer.Versions))
			deleted += len(layer.Versions)
			continue
		}

		pub, ok := clients[layer.Region]
		if !ok {
			awsCfg, err := awsutil.LoadConfig(ctx, layer.Region)
			if err != nil {
				return deleted, failed, err
			}
			pub = publisher.New(lambda.NewFromConfig(awsCfg), layer.Region)
			clients[layer.Region] = pub
		}

		for _, v := range layer.Versions {
			if err := pub.DeleteVersion(ctx, layer.Name, v.Version); err != nil {
				output.Error("failed to delete layer version",
					"layer", layer.Name, "version", v.Version, "region", layer.Region, "error", err)
				failed++
				continue
			}
			output.Println(output.FormatStatusLine(v.ARN, output.StatusDeleted))
			deleted++

			if store != nil {
				if err := store.Delete(ctx, v.ARN); err != nil {
					output.Warn("failed to delete metadata record", "arn", v.ARN, "error", err)
				}
			}
		}
	}
	return deleted, failed, nil
}

type metadataDeleter interface {
	Delete(ctx context.Context, pk string) error
}

func deleteMode(dryRun bool) string {
	if dryRun {
		return "DRY RUN"
	}
	return "DELETE"
}

func enabledText(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}
