// Package console provides formatted terminal output helpers with adaptive
// colors for light and dark terminals.
package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#22863a", Dark: "#85e89d"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0366d6", Dark: "#79b8ff"})
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b08800", Dark: "#ffea7f"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#cb2431", Dark: "#f97583"})
	verboseStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6a737d", Dark: "#959da5"})
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// FormatSuccessMessage formats a message with a success checkmark.
func FormatSuccessMessage(message string) string {
	return successStyle.Render("✓") + " " + message
}

// FormatInfoMessage formats a message with an info icon.
func FormatInfoMessage(message string) string {
	return infoStyle.Render("ℹ") + " " + message
}

// FormatWarningMessage formats a message with a warning icon.
func FormatWarningMessage(message string) string {
	return warningStyle.Render("⚠") + " " + message
}

// FormatErrorMessage formats a message with an error cross.
func FormatErrorMessage(message string) string {
	return errorStyle.Render("✗") + " " + message
}

// FormatVerboseMessage formats a dimmed message for verbose output.
func FormatVerboseMessage(message string) string {
	return verboseStyle.Render(message)
}

// FormatErrorWithSuggestions formats an error message followed by an
// optional bulleted suggestion list.
func FormatErrorWithSuggestions(message string, suggestions []string) string {
	var b strings.Builder
	b.WriteString(FormatErrorMessage(message))
	if len(suggestions) > 0 {
		b.WriteString("\n\nSuggestions:\n")
		for _, s := range suggestions {
			b.WriteString("  • " + s + "\n")
		}
	}
	return b.String()
}

// ErrorPosition identifies the location of a compiler diagnostic.
type ErrorPosition struct {
	File   string
	Line   int
	Column int
}

// CompilerError is a positioned diagnostic with optional source context.
type CompilerError struct {
	Position ErrorPosition
	Type     string // "error" or "warning"
	Message  string
	Context  []string // Source lines surrounding the position
	Hint     string
}

// FormatError renders a compiler diagnostic in the conventional
// file:line:column: type: message form, followed by numbered context lines
// when present.
func FormatError(err CompilerError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s:%d:%d: ", err.Position.File, err.Position.Line, err.Position.Column)

	switch err.Type {
	case "warning":
		b.WriteString(warningStyle.Render("warning:"))
	default:
		b.WriteString(errorStyle.Render("error:"))
	}
	b.WriteString(" " + err.Message + "\n")

	if len(err.Context) > 0 {
		// Context lines are centered on the reported line
		startLine := err.Position.Line - len(err.Context)/2
		if startLine < 1 {
			startLine = 1
		}
		for i, line := range err.Context {
			fmt.Fprintf(&b, "  %d | %s\n", startLine+i, line)
		}
	}

	return b.String()
}

// TableConfig describes a table to render with RenderTable.
type TableConfig struct {
	Title     string
	Headers   []string
	Rows      [][]string
	ShowTotal bool
	TotalRow  []string
}

// RenderTable renders a plain aligned-column table. Returns the empty
// string when there is nothing to render.
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 && len(config.Rows) == 0 {
		return ""
	}

	rows := config.Rows
	if config.ShowTotal && len(config.TotalRow) > 0 {
		rows = append(append([][]string{}, rows...), config.TotalRow)
	}

	widths := make([]int, len(config.Headers))
	for i, h := range config.Headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	if config.Title != "" {
		b.WriteString(boldStyle.Render(config.Title) + "\n")
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			} else {
				b.WriteString(cell)
			}
			if i < len(cells)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}

	writeRow(config.Headers)
	for _, row := range rows {
		writeRow(row)
	}

	return b.String()
}
