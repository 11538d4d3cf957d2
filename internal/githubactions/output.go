// Package githubactions writes workflow outputs and step summaries when
// running under GitHub Actions. Outside of Actions (no GITHUB_OUTPUT /
// GITHUB_STEP_SUMMARY in the environment) every call is a no-op.
package githubactions

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ocelotbuild/ocelot/internal/output"
)

// SetOutput sets a workflow output variable. Scalars without newlines use the
// simple key=value form; everything else uses the heredoc delimiter form,
// with non-scalar values serialized as JSON.
func SetOutput(name string, value interface{}) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		output.Debug("GITHUB_OUTPUT not set, skipping output", "name", name)
		return nil
	}

	text, scalar, err := encode(value)
	if err != nil {
		return fmt.Errorf("encoding output %q: %w", name, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_OUTPUT file %s: %w", path, err)
	}
	defer f.Close()

	if scalar && !strings.Contains(text, "\n") {
		_, err = fmt.Fprintf(f, "%s=%s\n", name, text)
		return err
	}

	delimiter, err := delimiterFor(name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, text, delimiter)
	return err
}

// AppendStepSummary appends markdown to the workflow step summary.
func AppendStepSummary(markdown string) error {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		output.Debug("GITHUB_STEP_SUMMARY not set, skipping summary")
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_STEP_SUMMARY file %s: %w", path, err)
	}
	defer f.Close()

	_, err = f.WriteString(markdown + "\n")
	return err
}

// SummaryTable renders an ordered property table as markdown.
func SummaryTable(title string, props [][2]string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}
	b.WriteString("| Property | Value |\n")
	b.WriteString("|----------|-------|\n")
	for _, p := range props {
		fmt.Fprintf(&b, "| %s | %s |\n", p[0], p[1])
	}
	return b.String()
}

func encode(value interface{}) (text string, scalar bool, err error) {
	switch v := value.(type) {
	case string:
		return v, true, nil
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v), true, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", false, err
		}
		return string(data), false, nil
	}
}

// delimiterFor builds a heredoc delimiter that cannot collide with the value.
func delimiterFor(name string) (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating output delimiter: %w", err)
	}
	return fmt.Sprintf("ghadelimiter_%s_%s", name, hex.EncodeToString(buf[:])), nil
}
