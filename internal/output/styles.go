package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette — named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: layer names, ARNs, regions.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "published" layer status (bright, high-visibility).
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "reused" layer status (medium visibility).
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for the "deleted" layer status.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for the "failed" layer status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles — map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (layer names, ARNs, regions).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (cloning, building, publishing, deleting).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (separators, timestamps, secondary values).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	// StyleHeader styles section headers.
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorCyan)
)

// Layer status constants.
const (
	StatusPublished = "published"
	StatusReused    = "reused"
	StatusSkipped   = "skipped"
	StatusDeleted   = "deleted"
	StatusFailed    = "failed"
)

// StatusStyle returns the lipgloss style for a given layer status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusPublished:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusReused:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusSkipped:
		return lipgloss.NewStyle().Faint(true)
	case StatusDeleted:
		return lipgloss.NewStyle().Foreground(ColorRed)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// Header prints a prominent section header to stdout.
func Header(title string) {
	line := strings.Repeat("─", len(title)+2)
	Println(StyleDim.Render(line))
	Println(StyleHeader.Render(" " + title))
	Println(StyleDim.Render(line))
}

// Subheader prints a secondary section header to stdout.
func Subheader(title string) {
	Println(StyleAction.Render("» " + title))
}

// minLabelColumnWidth is the minimum width for the label column in property
// lists so values align consistently.
const minLabelColumnWidth = 24

// PropertyList renders label/value pairs with aligned values.
// Pairs render in the order given; callers control grouping.
func PropertyList(props [][2]string) {
	for _, p := range props {
		label, value := p[0], p[1]
		padding := minLabelColumnWidth - len(label)
		if padding < 2 {
			padding = 2
		}
		Println("  " + StyleDim.Render(label) + strings.Repeat(" ", padding) + StyleNoun.Render(value))
	}
}

// FormatStatusLine renders an identifier with a right-aligned, color-coded
// status suffix.
const minIdentColumnWidth = 48

// FormatStatusLine renders "ident  status" with the status color-coded.
func FormatStatusLine(ident, status string) string {
	padding := minIdentColumnWidth - len(ident)
	if padding < 2 {
		padding = 2
	}
	return StyleNoun.Render(ident) + strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// Successf prints a checkmarked, formatted success line to stdout.
func Successf(format string, args ...interface{}) {
	Println(FormatCheckmark(fmt.Sprintf(format, args...)))
}
