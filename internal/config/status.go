package config

// StatusConfig maps card and sandbox statuses to ANSI colors for badges
type StatusConfig struct {
	Colors   map[string]string
	Fallback string
}

// DefaultStatusColors covers every file card, read card and sandbox status
var DefaultStatusColors = map[string]string{
	"created":  "42",
	"creating": "214",
	"error":    "196",
	"idle":     "241",
	"read":     "42",
	"reading":  "33",
	"ready":    "42",
	"writing":  "214",
}

// NewStatusConfig creates a StatusConfig, letting overrides replace default colors
func NewStatusConfig(overrides StatusColors) *StatusConfig {
	colors := make(map[string]string, len(DefaultStatusColors)+len(overrides))
	for status, color := range DefaultStatusColors {
		colors[status] = color
	}
	for status, color := range overrides {
		if color != "" {
			colors[status] = color
		}
	}
	return &StatusConfig{
		Colors:   colors,
		Fallback: "250",
	}
}

// GetColor returns the color for a status, or the fallback color if unknown
func (c *StatusConfig) GetColor(status string) string {
	if color, ok := c.Colors[status]; ok {
		return color
	}
	return c.Fallback
}
