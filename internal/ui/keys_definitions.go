package ui

import (
	"sort"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyDefinition defines the metadata for a configurable key binding.
// All key bindings are defined here as the single source of truth.
type KeyDefinition struct {
	Action          string  // Name of the domain.Action this key triggers, if any
	Defaults        []string
	Help            string
	IsPaletteAction bool    // If true, this key appears in command palette
	Msg             tea.Msg // Prototype message for dispatch (nil if not dispatchable)
	Name            string
	TipFormat       string
}

// AllKeyDefinitions contains all configurable key bindings.
// Text typed into the prompt must never match these, so defaults avoid bare printable keys.
var AllKeyDefinitions = []KeyDefinition{
	// Application keys
	{Name: "command_palette", Defaults: []string{"ctrl+k"}, Help: "command palette", TipFormat: "press %s to open the command palette"},
	{Name: "help", Defaults: []string{"f1"}, Help: "show keyboard shortcuts", Action: "help", IsPaletteAction: true, Msg: ShowHelpMsg{}, TipFormat: "press %s to see all shortcuts"},
	{Name: "markdown", Defaults: []string{"ctrl+t"}, Help: "toggle markdown rendering", Action: "markdown", IsPaletteAction: true, Msg: ToggleMarkdownMsg{}},
	{Name: "memory", Defaults: []string{"ctrl+o"}, Help: "show agent memory", Action: "memory", IsPaletteAction: true, Msg: ShowMemoryMsg{}, TipFormat: "press %s to inspect what the agent remembers"},
	{Name: "quit", Defaults: []string{"ctrl+c"}, Help: "exit application", Action: "quit", IsPaletteAction: true, Msg: QuitMsg{}},
	{Name: "settings", Defaults: []string{"ctrl+s"}, Help: "edit API keys and model", Action: "settings", IsPaletteAction: true, Msg: ShowSettingsMsg{}, TipFormat: "press %s to set your API keys and model"},

	// Chat keys
	{Name: "newline", Defaults: []string{"alt+enter", "ctrl+j"}, Help: "insert a newline in the prompt", TipFormat: "press %s for a multi-line prompt"},
	{Name: "reset", Defaults: []string{"ctrl+r"}, Help: "reset agent and sandbox", Action: "reset", IsPaletteAction: true, Msg: ResetSessionMsg{}, TipFormat: "press %s to start over with a clean sandbox"},
	{Name: "scroll_down", Defaults: []string{"pgdown"}, Help: "scroll chat down"},
	{Name: "scroll_up", Defaults: []string{"pgup"}, Help: "scroll chat up", TipFormat: "press %s to scroll back through the conversation"},
	{Name: "send", Defaults: []string{"enter"}, Help: "send message to the agent"},
	{Name: "stop", Defaults: []string{"ctrl+x"}, Help: "stop the running agent", Action: "stop", IsPaletteAction: true, Msg: StopRunMsg{}, TipFormat: "press %s to stop the agent mid-run"},

	// Panel keys
	{Name: "close_tab", Defaults: []string{"ctrl+w"}, Help: "close the active file tab", Action: "close_tab", IsPaletteAction: true, Msg: CloseTabMsg{}},
	{Name: "file_down", Defaults: []string{"ctrl+n", "ctrl+down"}, Help: "select next file"},
	{Name: "file_open", Defaults: []string{"ctrl+f"}, Help: "open selected file or folder", TipFormat: "press %s to open the selected file"},
	{Name: "file_up", Defaults: []string{"ctrl+p", "ctrl+up"}, Help: "select previous file"},
	{Name: "refresh_files", Defaults: []string{"ctrl+g"}, Help: "refresh the file tree", Action: "refresh_files", IsPaletteAction: true, Msg: RefreshFilesMsg{}},
	{Name: "toggle_panel", Defaults: []string{"tab"}, Help: "switch computer/files panel", Action: "toggle_panel", IsPaletteAction: true, Msg: TogglePanelMsg{}, TipFormat: "press %s to browse the files the agent created"},
}

var (
	defaultBindingsCache map[string][]string
	defaultBindingsOnce  sync.Once

	keyDefinitionsMap     map[string]KeyDefinition
	keyDefinitionsMapOnce sync.Once

	validKeyNames     []string
	validKeyNamesOnce sync.Once
)

// GetDefaultKeyBindings returns the default key bindings as a map.
// The result is cached after the first call.
func GetDefaultKeyBindings() map[string][]string {
	defaultBindingsOnce.Do(func() {
		defaultBindingsCache = make(map[string][]string, len(AllKeyDefinitions))
		for _, def := range AllKeyDefinitions {
			defaultBindingsCache[def.Name] = def.Defaults
		}
	})
	return defaultBindingsCache
}

// GetKeyDefinition returns the definition for a key by name.
// Returns nil if not found.
func GetKeyDefinition(name string) *KeyDefinition {
	keyDefinitionsMapOnce.Do(func() {
		keyDefinitionsMap = make(map[string]KeyDefinition, len(AllKeyDefinitions))
		for _, def := range AllKeyDefinitions {
			keyDefinitionsMap[def.Name] = def
		}
	})
	if def, ok := keyDefinitionsMap[name]; ok {
		return &def
	}
	return nil
}

// GetValidKeyNames returns all valid key binding names in sorted order.
// The result is cached after the first call.
func GetValidKeyNames() []string {
	validKeyNamesOnce.Do(func() {
		validKeyNames = make([]string, len(AllKeyDefinitions))
		for i, def := range AllKeyDefinitions {
			validKeyNames[i] = def.Name
		}
		sort.Strings(validKeyNames)
	})
	return validKeyNames
}

// IsValidKeyName checks if a name is a valid key binding name.
func IsValidKeyName(name string) bool {
	return GetKeyDefinition(name) != nil
}

// GetPaletteActions returns key definitions that should appear in the command palette.
func GetPaletteActions() []KeyDefinition {
	var actions []KeyDefinition
	for _, def := range AllKeyDefinitions {
		if !def.IsPaletteAction {
			continue
		}
		actions = append(actions, def)
	}
	return actions
}
