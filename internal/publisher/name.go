// Package publisher names, publishes, and retires collector Lambda layers.
package publisher

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const maxDescriptionLen = 256

// componentTagPrefix is stripped from build tags before they go into the
// layer description, where space is scarce.
const componentTagPrefix = "lambdacomponents."

var (
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	leadingDigit    = regexp.MustCompile(`^[0-9]`)
	refVersion      = regexp.MustCompile(`.*/[^0-9.]*`)
)

// NameInput carries everything that feeds into a layer name.
type NameInput struct {
	BaseName         string
	Architecture     string
	Distribution     string
	Version          string // explicit override
	CollectorVersion string
	ReleaseGroup     string
}

// ConstructName builds a layer name that satisfies AWS naming rules: the
// base name plus architecture, distribution, cleaned version, and release
// group, with disallowed characters replaced by underscores and a "layer-"
// prefix when the result would start with a digit.
//
// Returns the final name, the Lambda architecture string (amd64 mapped to
// x86_64), and the cleaned version segment used in the name.
func ConstructName(in NameInput) (name, archStr, versionStr string) {
	name = in.BaseName

	archStr = "x86_64"
	if in.Architecture != "" {
		archStr = strings.ReplaceAll(in.Architecture, "amd64", "x86_64")
		name = name + "-" + in.Architecture
	}

	if in.Distribution != "" {
		name = name + "-" + in.Distribution
	}

	version := in.Version
	if version == "" && in.CollectorVersion != "" {
		version = strings.TrimPrefix(in.CollectorVersion, "v")
	}
	if version == "" {
		if ref := os.Getenv("GITHUB_REF"); ref != "" {
			version = refVersion.ReplaceAllString(ref, "")
		}
		if version == "" {
			version = "latest"
		}
	}

	versionStr = disallowedChars.ReplaceAllString(version, "_")
	name = name + "-" + versionStr

	group := in.ReleaseGroup
	if group == "" {
		group = "prod"
	}
	name = name + "-" + group

	name = disallowedChars.ReplaceAllString(name, "_")
	if leadingDigit.MatchString(name) {
		name = "layer-" + name
	}
	return name, archStr, versionStr
}

// Description builds the layer description that carries the artifact hash
// and the active build tags, truncated to the AWS limit. The hash is what
// lets a later publish detect an identical layer and skip the upload.
func Description(md5Hash string, buildTags []string) string {
	desc := fmt.Sprintf("md5: %s", md5Hash)

	if len(buildTags) > 0 {
		stripped := make([]string, 0, len(buildTags))
		for _, tag := range buildTags {
			tag = strings.TrimSpace(tag)
			stripped = append(stripped, strings.ReplaceAll(tag, componentTagPrefix, ""))
		}
		desc += " | " + strings.Join(stripped, ", ")
	}

	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen-3] + "..."
	}
	return desc
}
