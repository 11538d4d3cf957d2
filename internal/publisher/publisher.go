package publisher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// LambdaAPI is the subset of the Lambda client the publisher uses.
type LambdaAPI interface {
	ListLayers(ctx context.Context, params *lambda.ListLayersInput, optFns ...func(*lambda.Options)) (*lambda.ListLayersOutput, error)
	ListLayerVersions(ctx context.Context, params *lambda.ListLayerVersionsInput, optFns ...func(*lambda.Options)) (*lambda.ListLayerVersionsOutput, error)
	PublishLayerVersion(ctx context.Context, params *lambda.PublishLayerVersionInput, optFns ...func(*lambda.Options)) (*lambda.PublishLayerVersionOutput, error)
	GetLayerVersionPolicy(ctx context.Context, params *lambda.GetLayerVersionPolicyInput, optFns ...func(*lambda.Options)) (*lambda.GetLayerVersionPolicyOutput, error)
	AddLayerVersionPermission(ctx context.Context, params *lambda.AddLayerVersionPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddLayerVersionPermissionOutput, error)
	DeleteLayerVersion(ctx context.Context, params *lambda.DeleteLayerVersionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteLayerVersionOutput, error)
}

// Publisher publishes layer versions in a single region.
type Publisher struct {
	client LambdaAPI
	region string
}

// New creates a Publisher for the given region.
func New(client LambdaAPI, region string) *Publisher {
	return &Publisher{client: client, region: region}
}

// Region returns the region this publisher targets.
func (p *Publisher) Region() string {
	return p.region
}

// FileMD5 computes the md5 hash of a file, streamed.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing artifact %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FindExisting looks for a version of the layer whose description carries
// the given md5 hash. Returns (true, arn) on a match. When versions exist
// but none match, returns (false, latestARN) so callers can report what is
// currently live. A layer with no versions at all returns (false, "").
func (p *Publisher) FindExisting(ctx context.Context, layerName, md5Hash string) (bool, string, error) {
	var latest string
	var marker *string

	for {
		out, err := p.client.ListLayerVersions(ctx, &lambda.ListLayerVersionsInput{
			LayerName: aws.String(layerName),
			Marker:    marker,
		})
		if err != nil {
			var nf *types.ResourceNotFoundException
			if errors.As(err, &nf) {
				return false, "", nil
			}
			return false, "", oerrors.Wrapf(oerrors.ErrAWS, "listing versions of %s: %v", layerName, err)
		}

		for _, v := range out.LayerVersions {
			arn := aws.ToString(v.LayerVersionArn)
			if latest == "" {
				latest = arn
			}
			if strings.Contains(aws.ToString(v.Description), md5Hash) {
				return true, arn, nil
			}
		}

		if out.NextMarker == nil {
			return false, latest, nil
		}
		marker = out.NextMarker
	}
}

// PublishInput carries everything Publish needs beyond the client.
type PublishInput struct {
	LayerName    string
	ArtifactPath string
	MD5Hash      string
	Architecture string   // Lambda architecture string, x86_64 or arm64
	Runtimes     []string // optional compatible runtimes
	BuildTags    []string
	DryRun       bool
}

// Publish uploads a new layer version and returns its ARN. In dry-run mode
// nothing is uploaded and a simulated ARN is returned.
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (string, error) {
	if in.DryRun {
		arn := fmt.Sprintf("arn:aws:lambda:%s:123456789012:layer:%s:1", p.region, in.LayerName)
		output.Info("dry run: would publish layer", "name", in.LayerName, "region", p.region, "arn", arn)
		return arn, nil
	}

	content, err := os.ReadFile(in.ArtifactPath)
	if err != nil {
		return "", fmt.Errorf("reading artifact %s: %w", in.ArtifactPath, err)
	}

	params := &lambda.PublishLayerVersionInput{
		LayerName:   aws.String(in.LayerName),
		Description: aws.String(Description(in.MD5Hash, in.BuildTags)),
		Content:     &types.LayerVersionContentInput{ZipFile: content},
		CompatibleArchitectures: []types.Architecture{
			types.Architecture(strings.ReplaceAll(in.Architecture, "amd64", "x86_64")),
		},
		LicenseInfo: aws.String("MIT"),
	}
	if len(in.Runtimes) > 0 {
		runtimes := make([]types.Runtime, 0, len(in.Runtimes))
		for _, r := range in.Runtimes {
			runtimes = append(runtimes, types.Runtime(r))
		}
		params.CompatibleRuntimes = runtimes
	}

	out, err := p.client.PublishLayerVersion(ctx, params)
	if err != nil {
		return "", oerrors.Wrapf(oerrors.ErrAWS, "publishing %s in %s: %v", in.LayerName, p.region, err)
	}
	return aws.ToString(out.LayerVersionArn), nil
}

var arnVersion = regexp.MustCompile(`:(\d+)$`)

// VersionFromARN extracts the numeric version from a layer version ARN.
func VersionFromARN(arn string) (int64, error) {
	m := arnVersion.FindStringSubmatch(arn)
	if m == nil {
		return 0, fmt.Errorf("no version number in ARN %s", arn)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

// MakePublic grants lambda:GetLayerVersion to everyone on one layer version.
// A version that already carries a policy is left alone.
func (p *Publisher) MakePublic(ctx context.Context, layerName, layerARN string, dryRun bool) error {
	if dryRun {
		output.Info("dry run: would make layer public", "arn", layerARN, "region", p.region)
		return nil
	}

	version, err := VersionFromARN(layerARN)
	if err != nil {
		return err
	}

	_, err = p.client.GetLayerVersionPolicy(ctx, &lambda.GetLayerVersionPolicyInput{
		LayerName:     aws.String(layerName),
		VersionNumber: aws.Int64(version),
	})
	if err == nil {
		output.Debug("layer already public", "arn", layerARN)
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return oerrors.Wrapf(oerrors.ErrAWS, "checking policy of %s: %v", layerARN, err)
	}

	_, err = p.client.AddLayerVersionPermission(ctx, &lambda.AddLayerVersionPermissionInput{
		LayerName:     aws.String(layerName),
		VersionNumber: aws.Int64(version),
		StatementId:   aws.String("publish"),
		Action:        aws.String("lambda:GetLayerVersion"),
		Principal:     aws.String("*"),
	})
	if err != nil {
		return oerrors.Wrapf(oerrors.ErrAWS, "making %s public: %v", layerARN, err)
	}
	return nil
}
