package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"anygent/internal/config"
)

// ApplicationKeys defines key bindings for application-level actions
type ApplicationKeys struct {
	CommandPalette KeyWithTip
	Help           KeyWithTip
	Markdown       KeyWithTip
	Memory         KeyWithTip
	Quit           KeyWithTip
	Settings       KeyWithTip
}

// newApplicationKeys creates application key bindings
func newApplicationKeys(defaults map[string][]string, customKeys config.KeyBindingsConfig) ApplicationKeys {
	return ApplicationKeys{
		CommandPalette: buildBinding("command_palette", defaults, customKeys),
		Help:           buildBinding("help", defaults, customKeys),
		Markdown:       buildBinding("markdown", defaults, customKeys),
		Memory:         buildBinding("memory", defaults, customKeys),
		Quit:           buildBinding("quit", defaults, customKeys),
		Settings:       buildBinding("settings", defaults, customKeys),
	}
}

// buildBinding creates a KeyWithTip from the key definition, using custom keys if provided.
func buildBinding(name string, defaults map[string][]string, customKeys config.KeyBindingsConfig) KeyWithTip {
	def := GetKeyDefinition(name)
	if def == nil {
		panic("unknown key definition: " + name)
	}

	keys := defaults[name]
	if custom, ok := customKeys[name]; ok && len(custom) > 0 {
		keys = custom
	}
	helpKeys := strings.Join(keys, "/")

	result := KeyWithTip{
		Binding: key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(helpKeys, def.Help),
		),
	}

	if def.TipFormat != "" && len(keys) > 0 {
		result.Tip = &Tip{Format: def.TipFormat, Keys: []string{keys[0]}}
	}

	return result
}
