package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"anygent/internal/config"
)

// KeyMap contains all keyboard shortcuts organized by context
type KeyMap struct {
	Application ApplicationKeys
	Chat        ChatKeys
	Panel       PanelKeys
}

// NewKeyMap creates a new KeyMap with all key bindings initialized
// Pass nil for keysConfig to use default bindings
func NewKeyMap(keysConfig config.KeyBindingsConfig) KeyMap {
	defaults := GetDefaultKeyBindings()
	return KeyMap{
		Application: newApplicationKeys(defaults, keysConfig),
		Chat:        newChatKeys(defaults, keysConfig),
		Panel:       newPanelKeys(defaults, keysConfig),
	}
}

// ShortHelp returns a curated list of key bindings for the help footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Chat.Send.Binding,
		k.Chat.Stop.Binding,
		k.Panel.Toggle.Binding,
		k.Application.Settings.Binding,
		k.Application.Help.Binding,
		k.Application.Quit.Binding,
	}
}

// Tips returns the tips of every binding that has one, in a stable order
func (k KeyMap) Tips() []Tip {
	all := []KeyWithTip{
		k.Application.CommandPalette,
		k.Application.Help,
		k.Application.Memory,
		k.Application.Settings,
		k.Chat.Newline,
		k.Chat.Reset,
		k.Chat.ScrollUp,
		k.Chat.Stop,
		k.Panel.FileOpen,
		k.Panel.Toggle,
	}
	var tips []Tip
	for _, kt := range all {
		if kt.Tip != nil {
			tips = append(tips, *kt.Tip)
		}
	}
	return tips
}

// Binding returns the binding registered under a definition name
func (k KeyMap) Binding(name string) (key.Binding, bool) {
	bindings := map[string]key.Binding{
		"close_tab":       k.Panel.CloseTab.Binding,
		"command_palette": k.Application.CommandPalette.Binding,
		"file_down":       k.Panel.FileDown.Binding,
		"file_open":       k.Panel.FileOpen.Binding,
		"file_up":         k.Panel.FileUp.Binding,
		"help":            k.Application.Help.Binding,
		"markdown":        k.Application.Markdown.Binding,
		"memory":          k.Application.Memory.Binding,
		"newline":         k.Chat.Newline.Binding,
		"quit":            k.Application.Quit.Binding,
		"refresh_files":   k.Panel.RefreshFiles.Binding,
		"reset":           k.Chat.Reset.Binding,
		"scroll_down":     k.Chat.ScrollDown.Binding,
		"scroll_up":       k.Chat.ScrollUp.Binding,
		"send":            k.Chat.Send.Binding,
		"settings":        k.Application.Settings.Binding,
		"stop":            k.Chat.Stop.Binding,
		"toggle_panel":    k.Panel.Toggle.Binding,
	}
	b, ok := bindings[name]
	return b, ok
}
