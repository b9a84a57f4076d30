package ui

import (
	"anygent/internal/config"
)

// PanelKeys defines key bindings for the right-hand computer and files panels
type PanelKeys struct {
	CloseTab     KeyWithTip
	FileDown     KeyWithTip
	FileOpen     KeyWithTip
	FileUp       KeyWithTip
	RefreshFiles KeyWithTip
	Toggle       KeyWithTip
}

// newPanelKeys creates panel key bindings
func newPanelKeys(defaults map[string][]string, customKeys config.KeyBindingsConfig) PanelKeys {
	return PanelKeys{
		CloseTab:     buildBinding("close_tab", defaults, customKeys),
		FileDown:     buildBinding("file_down", defaults, customKeys),
		FileOpen:     buildBinding("file_open", defaults, customKeys),
		FileUp:       buildBinding("file_up", defaults, customKeys),
		RefreshFiles: buildBinding("refresh_files", defaults, customKeys),
		Toggle:       buildBinding("toggle_panel", defaults, customKeys),
	}
}
