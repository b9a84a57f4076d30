package ui

import (
	"anygent/internal/domain"
)

// Action messages. Each represents something the user asked for, either by
// key binding or from the command palette. Model handles them in Update.

// QuitMsg requests quitting the application
type QuitMsg struct{}

// ShowHelpMsg requests showing the help screen
type ShowHelpMsg struct{}

// ShowCommandPaletteMsg requests showing the command palette
type ShowCommandPaletteMsg struct{}

// StopRunMsg requests stopping the running agent
type StopRunMsg struct{}

// ResetSessionMsg requests a reset confirmation for the agent session and sandbox
type ResetSessionMsg struct{}

// ShowSettingsMsg requests the settings form
type ShowSettingsMsg struct{}

// ShowMemoryMsg requests the memory dialog
type ShowMemoryMsg struct{}

// TogglePanelMsg switches the right panel between computer and files
type TogglePanelMsg struct{}

// RefreshFilesMsg requests a forced rescan of the sandbox file tree
type RefreshFilesMsg struct{}

// CloseTabMsg closes the active file tab
type CloseTabMsg struct{}

// ToggleMarkdownMsg switches markdown rendering of assistant replies on or off
type ToggleMarkdownMsg struct{}

// Internal messages produced by commands.

// storeChangedMsg signals that the session store was mutated
type storeChangedMsg struct{}

// runFinishedMsg is sent when an agent run returns
type runFinishedMsg struct {
	err    error
	prompt string
}

// opResultMsg reports the outcome of a one-shot console operation
type opResultMsg struct {
	err error
	op  string
}

// settingsReadyMsg is sent once the model list is loaded and the settings form can open
type settingsReadyMsg struct {
	models []domain.Model
}

// tipTickMsg rotates the status bar tip
type tipTickMsg struct{}
