// Package output handles formatting CLI output as table, JSON, or compact.
package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Format represents an output format.
type Format int

const (
	// FormatAuto uses the default format (table).
	FormatAuto Format = iota
	// FormatJSON outputs JSON.
	FormatJSON
	// FormatTable outputs a human-readable table.
	FormatTable
	// FormatCompact outputs one-line-per-record compact format.
	FormatCompact
)

// Flags are the explicit format switches of a command line.
type Flags struct {
	JSON    bool
	Table   bool
	Compact bool
}

// Detect returns the format picked by flags, then by the configured
// preference (json, table, compact or oneline). Default is table.
func Detect(flags Flags, preference string) Format {
	switch {
	case flags.JSON:
		return FormatJSON
	case flags.Compact:
		return FormatCompact
	case flags.Table:
		return FormatTable
	}
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	}
	return FormatTable
}

// DisableColor strips all styling from table output and forces the ASCII
// profile on the default renderer so the TUI and glamour follow suit.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle()
	doneStyle = lipgloss.NewStyle()
	overStyle = lipgloss.NewStyle()
	priorityStyles = map[string]lipgloss.Style{}
	tagStyle = lipgloss.NewStyle()
	pinStyle = lipgloss.NewStyle()
	colorEnabled = false
}
