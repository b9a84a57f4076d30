package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"anygent/internal/theme"
)

// Tip holds a tip format string and the keys to highlight
type Tip struct {
	Format string
	Keys   []string
}

// Text returns the tip as plain text
func (t Tip) Text() string {
	args := make([]any, len(t.Keys))
	for i, k := range t.Keys {
		args[i] = k
	}
	return fmt.Sprintf(t.Format, args...)
}

// RenderTip formats a tip with highlighted keys and gray text
func RenderTip(tip Tip) string {
	parts := strings.Split(tip.Format, "%s")
	var result strings.Builder
	result.WriteString(theme.TipTextStyle.Render("ℹ  tip: "))
	for i, part := range parts {
		result.WriteString(theme.TipTextStyle.Render(part))
		if i < len(tip.Keys) {
			result.WriteString(theme.TipKeyStyle.Render(tip.Keys[i]))
		}
	}
	return result.String()
}

// KeyWithTip wraps a key.Binding with an optional tip for the status bar.
type KeyWithTip struct {
	Binding key.Binding
	Tip     *Tip
}
