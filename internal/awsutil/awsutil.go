// Package awsutil provides shared AWS SDK setup and identity checks.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

// STSAPI is the subset of the STS client used for identity checks.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// LoadConfig loads the default AWS config chain, optionally pinned to a
// region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, oerrors.Wrapf(oerrors.ErrAWS, "loading AWS configuration: %v", err)
	}
	return cfg, nil
}

// VerifyCredentials confirms that credentials resolve to an account before
// any publish or delete runs. Returns the account ID.
func VerifyCredentials(ctx context.Context, client STSAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", oerrors.Wrapf(oerrors.ErrAWS, "AWS credentials are not configured correctly: %v", err)
	}
	if out.Account == nil || *out.Account == "" {
		return "", oerrors.Wrap(oerrors.ErrAWS, "AWS credentials check returned no account ID")
	}
	return *out.Account, nil
}

// RegionOf returns the region configured in the SDK chain. An empty region is
// an error: publishing requires an explicit target, not a fallback.
func RegionOf(cfg aws.Config) (string, error) {
	if cfg.Region == "" {
		return "", fmt.Errorf("could not determine AWS region; set AWS_REGION or configure a profile")
	}
	return cfg.Region, nil
}
