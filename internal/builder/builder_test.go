package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectArtifact(t *testing.T) {
	t.Run("renames and copies the artifact", func(t *testing.T) {
		collectorDir := t.TempDir()
		buildDir := filepath.Join(collectorDir, "build")
		require.NoError(t, os.MkdirAll(buildDir, 0o755))
		require.NoError(t, os.WriteFile(
			filepath.Join(buildDir, "opentelemetry-collector-layer-amd64.zip"),
			[]byte("zip-bytes"), 0o644))

		outputDir := filepath.Join(t.TempDir(), "out")
		got, err := CollectArtifact(collectorDir, "amd64", "minimal", outputDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outputDir, "collector-amd64-minimal.zip"), got)

		data, err := os.ReadFile(got)
		require.NoError(t, err)
		assert.Equal(t, "zip-bytes", string(data))

		// The renamed copy also remains in the build directory.
		assert.FileExists(t, filepath.Join(buildDir, "collector-amd64-minimal.zip"))
		assert.NoFileExists(t, filepath.Join(buildDir, "opentelemetry-collector-layer-amd64.zip"))
	})

	t.Run("missing artifact errors", func(t *testing.T) {
		collectorDir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(collectorDir, "build"), 0o755))

		_, err := CollectArtifact(collectorDir, "arm64", "default", t.TempDir())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "build artifact not found")
	})
}

func TestPackageRequiresMakefile(t *testing.T) {
	err := Package(t.Context(), t.TempDir(), "amd64", "tag1,tag2")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "makefile not found")
}

func TestAddDependenciesValidation(t *testing.T) {
	t.Run("no modules is a no-op", func(t *testing.T) {
		assert.NoError(t, AddDependencies(t.Context(), t.TempDir(), nil, "0.119.0"))
	})

	t.Run("modules without a version error", func(t *testing.T) {
		err := AddDependencies(t.Context(), t.TempDir(), []string{"example.com/mod"}, "")
		assert.Error(t, err)
	})
}
