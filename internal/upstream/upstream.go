// Package upstream manages the temporary clone of the upstream
// opentelemetry-lambda repository.
package upstream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/execx"
	"github.com/ocelotbuild/ocelot/internal/output"
)

// Checkout is a shallow clone of the upstream repository in a temp directory.
type Checkout struct {
	// Dir is the clone root.
	Dir string

	// Repo is the "owner/name" repository slug that was cloned.
	Repo string

	// Ref is the git ref that was checked out.
	Ref string
}

// CollectorDir returns the collector subdirectory of the clone.
func (c *Checkout) CollectorDir() string {
	return filepath.Join(c.Dir, "collector")
}

// Clone shallow-clones github.com/<repo> at ref into a fresh temp directory.
func Clone(ctx context.Context, repo, ref string) (*Checkout, error) {
	dir, err := os.MkdirTemp("", "otel-upstream-")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	url := fmt.Sprintf("https://github.com/%s.git", repo)
	output.Debug("cloning upstream repository", "url", url, "ref", ref, "dir", dir)

	_, err = execx.Run(ctx, execx.Options{},
		"git", "clone", "--depth", "1", "--branch", ref, url, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("cloning %s@%s: %w", repo, ref, err)
	}

	return &Checkout{Dir: dir, Repo: repo, Ref: ref}, nil
}

// DetermineVersion discovers the upstream collector version by running the
// set-otelcol-version make target and reading the VERSION file it writes.
func (c *Checkout) DetermineVersion(ctx context.Context) (string, error) {
	collectorDir := c.CollectorDir()
	if _, err := os.Stat(filepath.Join(collectorDir, "Makefile")); err != nil {
		return "", fmt.Errorf("makefile not found in %s: %w", collectorDir, err)
	}

	if _, err := execx.Run(ctx, execx.Options{Dir: collectorDir}, "make", "set-otelcol-version"); err != nil {
		return "", fmt.Errorf("running set-otelcol-version: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(collectorDir, "VERSION"))
	if err != nil {
		return "", fmt.Errorf("reading VERSION file: %w", err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("VERSION file in %s is empty", collectorDir)
	}
	return version, nil
}

// Cleanup removes the clone unless keep is set.
func (c *Checkout) Cleanup(keep bool) {
	if c == nil || c.Dir == "" {
		return
	}
	if keep {
		output.Info("keeping temporary upstream clone", "dir", c.Dir)
		return
	}
	output.Debug("removing temporary upstream clone", "dir", c.Dir)
	if err := os.RemoveAll(c.Dir); err != nil {
		output.Warn("failed to remove temp directory", "dir", c.Dir, "error", err)
	}
}
