package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			wantCode: ExitSuccess,
		},
		{
			name:     "config not found",
			err:      ErrConfigNotFound,
			wantCode: ExitConfigError,
		},
		{
			name:     "wrapped config malformed",
			err:      Wrap(ErrConfigMalformed, "parsing distributions.yaml"),
			wantCode: ExitConfigError,
		},
		{
			name:     "circular dependency",
			err:      Wrapf(ErrCircularDependency, "involving %q", "default"),
			wantCode: ExitConfigError,
		},
		{
			name:     "not found",
			err:      ErrNotFound,
			wantCode: ExitNotFound,
		},
		{
			name:     "aws error",
			err:      Wrap(ErrAWS, "publishing layer"),
			wantCode: ExitAWSError,
		},
		{
			name:     "unknown error returns general error",
			err:      errors.New("unknown"),
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ExitCodeFor(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := Wrap(ErrAWS, "publish failed")
	exitErr := &ExitError{Code: ExitAWSError, Err: inner}

	assert.Equal(t, "publish failed: aws error", exitErr.Error())
	assert.ErrorIs(t, exitErr, ErrAWS)

	var target *ExitError
	assert.ErrorAs(t, error(exitErr), &target)
	assert.Equal(t, ExitAWSError, target.Code)
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrNotFound, "distribution %q", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"ghost"`)
}
