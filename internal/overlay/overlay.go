// Package overlay copies selected custom component sources into a cloned
// upstream collector tree.
package overlay

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ocelotbuild/ocelot/internal/components"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// Apply copies the custom components activated by the included tag set from
// componentsDir into the upstream tree. Wildcard components copy their whole
// category directory; named components copy only files matching *<name>*.go.
// Returns the tags that actually resulted in copied files.
//
// File presence and dependency presence must never diverge: callers must pass
// the same inclusion result here and to components.Modules.
func Apply(componentsDir, upstreamDir string, included []string) ([]string, error) {
	if _, err := os.Stat(componentsDir); err != nil {
		output.Warn("custom components directory not found, proceeding without overlay", "dir", componentsDir)
		return nil, nil
	}

	if len(included) == 0 {
		output.Info("no components to overlay for the active build tags")
		return nil, nil
	}

	// Shared helpers referenced by several components live under common/ and
	// are copied wholesale whenever any overlay happens.
	commonSrc := filepath.Join(componentsDir, "common")
	if info, err := os.Stat(commonSrc); err == nil && info.IsDir() {
		commonDst := filepath.Join(upstreamDir, "collector", "common")
		if err := copyDir(commonSrc, commonDst); err != nil {
			return nil, fmt.Errorf("copying common files: %w", err)
		}
		output.Debug("copied common files", "from", commonSrc, "to", commonDst)
	}

	var copied []string
	for _, key := range included {
		tag, ok := components.ParseTag(key)
		if !ok {
			output.Warn("invalid component tag format, skipping", "tag", key)
			continue
		}

		dir, ok := tag.CategoryDir()
		if !ok {
			output.Warn("unknown component category, skipping", "tag", key, "category", tag.Category)
			continue
		}

		srcDir := filepath.Join(componentsDir, dir)
		if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
			output.Warn("component category directory not found, skipping", "dir", srcDir)
			continue
		}

		dstDir := filepath.Join(upstreamDir, "collector", "lambdacomponents", dir)

		if tag.IsWildcard() {
			if err := copyDir(srcDir, dstDir); err != nil {
				return copied, fmt.Errorf("copying %s components: %w", dir, err)
			}
			output.Debug("copied all category components", "category", dir)
			copied = append(copied, key)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(srcDir, "*"+tag.Name+"*.go"))
		if err != nil {
			return copied, fmt.Errorf("globbing for component %s: %w", key, err)
		}
		if len(matches) == 0 {
			output.Warn("no files found for component, skipping", "tag", key)
			continue
		}

		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return copied, fmt.Errorf("creating %s: %w", dstDir, err)
		}
		for _, src := range matches {
			dst := filepath.Join(dstDir, filepath.Base(src))
			if err := copyFile(src, dst); err != nil {
				return copied, fmt.Errorf("copying %s: %w", src, err)
			}
			output.Debug("copied file", "file", filepath.Base(src))
		}
		copied = append(copied, key)
	}

	if len(copied) > 0 {
		output.Info("component overlay complete", "components", len(copied))
	} else {
		output.Warn("no components were copied, check the components directory structure")
	}
	return copied, nil
}

// CopyConfigFile places a custom collector config over the upstream default
// config.yaml. A missing source file is a warning, not an error; the upstream
// default remains in place.
func CopyConfigFile(configsDir, name, upstreamDir string) error {
	src := filepath.Join(configsDir, name)
	if info, err := os.Stat(src); err != nil || info.IsDir() {
		output.Warn("custom config file not found, using default upstream config.yaml", "path", src)
		return nil
	}

	dst := filepath.Join(upstreamDir, "collector", "config.yaml")
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copying custom collector config: %w", err)
	}
	output.Info("custom collector config copied", "from", src, "to", dst)
	return nil
}

// copyDir recursively copies src into dst, creating directories as needed and
// overwriting existing files.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

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
