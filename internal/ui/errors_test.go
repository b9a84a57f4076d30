package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatErrorForDisplay(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, formatErrorForDisplay(nil, 80))
	})

	t.Run("empty message", func(t *testing.T) {
		assert.Equal(t, "Error: unknown error", formatErrorForDisplay(errors.New(""), 80))
	})

	t.Run("short message fits on one line", func(t *testing.T) {
		assert.Equal(t, "Error: connection refused", formatErrorForDisplay(errors.New("connection refused"), 80))
	})

	t.Run("whitespace is collapsed", func(t *testing.T) {
		assert.Equal(t, "Error: a b c", formatErrorForDisplay(errors.New("a\n\tb   c"), 80))
	})

	t.Run("long message is capped at two lines", func(t *testing.T) {
		msg := strings.Repeat("backend unreachable ", 20)
		out := formatErrorForDisplay(errors.New(msg), 40)

		lines := strings.Split(out, "\n")
		assert.Len(t, lines, maxErrorLines)
		assert.True(t, strings.HasPrefix(lines[0], errorPrefix))
		assert.True(t, strings.HasSuffix(lines[1], truncationMark))
		for _, line := range lines {
			assert.LessOrEqual(t, lipgloss.Width(line), 40)
		}
	})

	t.Run("tiny width uses minimum", func(t *testing.T) {
		out := formatErrorForDisplay(errors.New("boom"), 2)
		assert.Contains(t, out, "boom")
	})
}
