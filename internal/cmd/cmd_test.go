package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "ocelot", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"build", "publish", "delete", "report", "release-notes", "release-info", "matrices", "version",
	}, names)

	// Errors carry exit codes; cobra must not add its own noise.
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b", []string{"a", "b"}},
		{",", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTags(tt.in))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0.5 KB", formatFileSize(512))
	assert.Equal(t, "2.00 MB", formatFileSize(2*1024*1024))
	assert.Equal(t, "1.50 MB", formatFileSize(3*1024*1024/2))
}

func TestGetConfigWithoutInitialization(t *testing.T) {
	prev := ocelotConfig
	ocelotConfig = nil
	t.Cleanup(func() { ocelotConfig = prev })

	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.UpstreamRepo)
	assert.NotEmpty(t, cfg.Regions)
}

func TestDeleteModeHelpers(t *testing.T) {
	assert.Equal(t, "DRY RUN", deleteMode(true))
	assert.Equal(t, "DELETE", deleteMode(false))
	assert.Equal(t, "Enabled", enabledText(true))
	assert.Equal(t, "Disabled", enabledText(false))
}
