package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"anygent/internal/domain"
)

// ActionDispatcher maps key definitions to UI messages.
// This keeps the command palette decoupled from specific message types.
type ActionDispatcher struct {
	running bool
}

// NewActionDispatcher creates a dispatcher for the current run state.
func NewActionDispatcher(running bool) *ActionDispatcher {
	return &ActionDispatcher{running: running}
}

// Dispatch returns the message for the given key definition, or nil if the
// action cannot run right now (for example stop while the agent is idle).
func (d *ActionDispatcher) Dispatch(def KeyDefinition) tea.Msg {
	if def.Msg == nil {
		return nil
	}

	if def.Action != "" {
		action := domain.GetActionByName(def.Action)
		if action != nil && action.RequiresRun && !d.running {
			return nil
		}
	}

	return def.Msg
}
