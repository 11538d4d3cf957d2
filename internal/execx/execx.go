// Package execx wraps external command execution with captured output and
// context cancellation.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/output"
)

// Result holds the captured output of a completed command.
type Result struct {
	Stdout string
	Stderr string
}

// Options controls how a command runs.
type Options struct {
	// Dir is the working directory; empty means the current directory.
	Dir string

	// Env is appended to the parent environment.
	Env map[string]string
}

// Run executes a command and captures its output. On failure the returned
// error includes the tail of stderr, which is usually the interesting part of
// git/make/go failures.
func Run(ctx context.Context, opts Options, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir

	if len(opts.Env) > 0 {
		env := os.Environ()
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	output.Debug("running command", "cmd", name+" "+strings.Join(args, " "), "dir", opts.Dir)

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, tail(res.Stderr, 10))
	}
	return res, nil
}

// tail returns the last n lines of s, trimmed.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
