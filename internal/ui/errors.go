package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	errorPrefix    = "Error: "
	maxErrorLines  = 2
	minErrorWidth  = 10
	truncationMark = "..."
)

// formatErrorForDisplay wraps an error to maxWidth, keeping at most maxErrorLines
// lines and marking anything cut off with "...".
func formatErrorForDisplay(err error, maxWidth int) string {
	if err == nil {
		return ""
	}

	message := strings.Join(strings.Fields(err.Error()), " ")
	if message == "" {
		return errorPrefix + "unknown error"
	}

	width := max(maxWidth, minErrorWidth)
	wrapped := lipgloss.NewStyle().Width(width).Render(errorPrefix + message)
	lines := strings.Split(wrapped, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	if len(lines) <= maxErrorLines {
		return strings.Join(lines, "\n")
	}

	lines = lines[:maxErrorLines]
	last := lines[maxErrorLines-1]
	if ansi.StringWidth(last)+len(truncationMark) > width {
		last = ansi.Truncate(last, width-len(truncationMark), "")
	}
	lines[maxErrorLines-1] = last + truncationMark
	return strings.Join(lines, "\n")
}
