// Package builder injects component dependencies into the upstream collector
// module and packages the layer artifact.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/execx"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// AddDependencies pins each module at the upstream collector version via
// `go mod edit` and runs a single `go mod tidy` afterwards. Individual module
// failures are counted and logged but do not abort the build; tidy only runs
// when at least one module was added.
func AddDependencies(ctx context.Context, collectorDir string, modules []string, upstreamVersion string) error {
	if len(modules) == 0 {
		output.Info("no custom component dependencies required for this distribution")
		return nil
	}
	if upstreamVersion == "" {
		return fmt.Errorf("upstream version is required to pin dependencies")
	}

	version := upstreamVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	output.Info("adding dependencies", "modules", len(modules), "version", version)

	added := 0
	for _, mod := range modules {
		versioned := mod + "@" + version
		_, err := execx.Run(ctx, execx.Options{Dir: collectorDir},
			"go", "mod", "edit", "-require="+versioned)
		if err != nil {
			output.Warn("failed to add dependency", "module", versioned, "error", err)
			continue
		}
		output.Debug("added dependency", "module", versioned)
		added++
	}

	if added == 0 {
		output.Warn("no dependencies were successfully added, skipping go mod tidy")
		return nil
	}

	if _, err := execx.Run(ctx, execx.Options{Dir: collectorDir}, "go", "mod", "tidy"); err != nil {
		// The build may still succeed with the requires in place.
		output.Warn("go mod tidy failed, continuing with build", "error", err)
	}
	return nil
}

// Package runs `make package` in the collector directory with the
// architecture and build tags exported the way the upstream Makefile expects.
func Package(ctx context.Context, collectorDir, arch, buildTags string) error {
	if _, err := os.Stat(filepath.Join(collectorDir, "Makefile")); err != nil {
		return fmt.Errorf("makefile not found in %s: %w", collectorDir, err)
	}

	env := map[string]string{"GOARCH": arch}
	if buildTags != "" {
		env["BUILDTAGS"] = buildTags
	}

	if _, err := execx.Run(ctx, execx.Options{Dir: collectorDir, Env: env}, "make", "package"); err != nil {
		return fmt.Errorf("make package: %w", err)
	}
	return nil
}

// CollectArtifact renames the zip produced by make to include the
// distribution name and copies it into outputDir. Returns the final path.
func CollectArtifact(collectorDir, arch, dist, outputDir string) (string, error) {
	buildDir := filepath.Join(collectorDir, "build")
	original := filepath.Join(buildDir, fmt.Sprintf("opentelemetry-collector-layer-%s.zip", arch))
	renamed := filepath.Join(buildDir, fmt.Sprintf("collector-%s-%s.zip", arch, dist))

	if _, err := os.Stat(original); err != nil {
		listBuildDir(buildDir)
		return "", fmt.Errorf("build artifact not found at %s: %w", original, err)
	}

	if err := os.Rename(original, renamed); err != nil {
		return "", fmt.Errorf("renaming build artifact: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	target := filepath.Join(outputDir, filepath.Base(renamed))
	if err := copyFile(renamed, target); err != nil {
		return "", fmt.Errorf("copying layer to output directory: %w", err)
	}
	return target, nil
}

// listBuildDir logs the build directory contents to help diagnose a missing
// artifact.
func listBuildDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		output.Warn("could not list build directory", "dir", dir, "error", err)
		return
	}
	for _, e := range entries {
		output.Debug("build directory entry", "file", e.Name())
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
