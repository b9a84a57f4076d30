package domain

// Action represents a user-invocable console action.
// This is the domain-level definition of what actions exist.
type Action struct {
	Description string
	Name        string
	RequiresRun bool
}

// Actions is the canonical registry of all available actions.
// Sorted alphabetically by Name.
var Actions = []Action{
	{Name: "close_tab", Description: "Close the active file tab"},
	{Name: "help", Description: "Show keyboard shortcuts"},
	{Name: "markdown", Description: "Toggle markdown rendering of agent replies"},
	{Name: "memory", Description: "Show the agent's memory and context stats"},
	{Name: "quit", Description: "Exit anygent"},
	{Name: "refresh_files", Description: "Refresh the sandbox file tree"},
	{Name: "reset", Description: "Reset the agent and clear the sandbox"},
	{Name: "settings", Description: "Edit API keys and model"},
	{Name: "stop", Description: "Stop the running agent", RequiresRun: true},
	{Name: "toggle_panel", Description: "Switch between computer and files panels"},
}

// GetActions returns all available actions.
func GetActions() []Action {
	return Actions
}

// GetActionByName returns an action by its name, or nil if not found.
func GetActionByName(name string) *Action {
	for i := range Actions {
		if Actions[i].Name == name {
			return &Actions[i]
		}
	}
	return nil
}

// GetActionsForContext returns actions filtered by context.
// If running is false, actions that need an active run are excluded.
func GetActionsForContext(running bool) []Action {
	if running {
		return Actions
	}

	var filtered []Action
	for _, a := range Actions {
		if !a.RequiresRun {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
