package domain

import "strings"

// DefaultModel is used until the user picks another one
const DefaultModel = "anthropic/claude-3.5-sonnet"

// Model is an LLM offered by the backend
type Model struct {
	ContextLength int    `json:"context_length"`
	Description   string `json:"description,omitempty"`
	ID            string `json:"id"`
	Name          string `json:"name"`
}

// ModelDisplayName returns the last path segment of a model id ("anthropic/claude-3.5-sonnet" -> "claude-3.5-sonnet")
func ModelDisplayName(id string) string {
	parts := strings.Split(id, "/")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return "Select Model"
}
