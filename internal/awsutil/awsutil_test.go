package awsutil

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/ocelotbuild/ocelot/internal/errors"
)

type fakeSTS struct {
	account string
	err     error
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &sts.GetCallerIdentityOutput{}
	if f.account != "" {
		out.Account = aws.String(f.account)
	}
	return out, nil
}

func TestVerifyCredentials(t *testing.T) {
	t.Run("returns the account ID", func(t *testing.T) {
		account, err := VerifyCredentials(context.Background(), &fakeSTS{account: "123456789012"})
		require.NoError(t, err)
		assert.Equal(t, "123456789012", account)
	})

	t.Run("STS failure wraps the AWS sentinel", func(t *testing.T) {
		_, err := VerifyCredentials(context.Background(), &fakeSTS{err: errors.New("no credentials")})
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrAWS)
		assert.Contains(t, err.Error(), "no credentials")
	})

	t.Run("empty account is an error", func(t *testing.T) {
		_, err := VerifyCredentials(context.Background(), &fakeSTS{})
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrAWS)
	})
}

func TestRegionOf(t *testing.T) {
	region, err := RegionOf(aws.Config{Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", region)

	_, err = RegionOf(aws.Config{})
	assert.Error(t, err)
}
