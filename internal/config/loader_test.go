package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Run("explicit absent file errors", func(t *testing.T) {
		cfg, err := NewLoader().LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("absent default file falls back to defaults", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		cfg, err := NewLoader().LoadWithDefaults("")
		require.NoError(t, err)
		assert.Equal(t, DefaultUpstreamRepo, cfg.UpstreamRepo)
		assert.Equal(t, DefaultLayerName, cfg.LayerName)
		assert.Equal(t, DefaultReleaseGroup, cfg.ReleaseGroup)
		assert.Equal(t, DefaultDynamoDBTable, cfg.DynamoDBTable)
		assert.Equal(t, DefaultRegions, cfg.Regions)
		assert.Equal(t, "config/distributions.yaml", cfg.DistributionsFile)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ocelot.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
upstreamRepo: myorg/opentelemetry-lambda
layerName: custom
regions:
  - us-east-1
  - eu-west-1
`), 0o644))

		cfg, err := NewLoader().LoadWithDefaults(path)
		require.NoError(t, err)
		assert.Equal(t, "myorg/opentelemetry-lambda", cfg.UpstreamRepo)
		assert.Equal(t, "custom", cfg.LayerName)
		assert.Equal(t, []string{"us-east-1", "eu-west-1"}, cfg.Regions)
		// Untouched fields keep their defaults.
		assert.Equal(t, DefaultUpstreamRef, cfg.UpstreamRef)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ocelot.yaml")
		require.NoError(t, os.WriteFile(path, []byte("layerName: from-file\n"), 0o644))
		t.Setenv("OCELOT_LAYER_NAME", "from-env")

		cfg, err := NewLoader().LoadWithDefaults(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.LayerName)
	})

	t.Run("malformed file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ocelot.yaml")
		require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml\n"), 0o644))

		_, err := NewLoader().LoadWithDefaults(path)
		assert.Error(t, err)
	})
}

func TestWithDefaultsDoesNotMutateReceiver(t *testing.T) {
	cfg := &Config{LayerName: "keep"}
	out := cfg.WithDefaults()

	assert.Equal(t, "keep", out.LayerName)
	assert.Equal(t, DefaultUpstreamRepo, out.UpstreamRepo)
	assert.Empty(t, cfg.UpstreamRepo)
}
