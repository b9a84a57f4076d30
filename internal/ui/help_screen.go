package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"anygent/internal/domain"
	"anygent/internal/theme"
)

// HelpScreen displays keyboard shortcuts organized by category
type HelpScreen struct {
	Completed   bool
	content     string
	initialized bool
	keys        *KeyMap
	viewport    viewport.Model
}

// renderShortcut renders a single shortcut line with key and description
func renderShortcut(key, description string) string {
	return theme.HelpKeyStyle.Render(key) + theme.HelpDescStyle.Render(description) + "\n"
}

// renderBinding renders a single shortcut line from a key binding
func renderBinding(binding key.Binding) string {
	help := binding.Help()
	return renderShortcut(help.Key, help.Desc)
}

// buildHelpContent builds the complete help text content using key bindings
func buildHelpContent(keys *KeyMap) string {
	var b strings.Builder

	b.WriteString(theme.HelpGroupStyle.Render("Chat") + "\n")
	b.WriteString(renderBinding(keys.Chat.Send.Binding))
	b.WriteString(renderBinding(keys.Chat.Newline.Binding))
	b.WriteString(renderBinding(keys.Chat.Stop.Binding))
	b.WriteString(renderBinding(keys.Chat.Reset.Binding))
	b.WriteString(renderBinding(keys.Chat.ScrollUp.Binding))
	b.WriteString(renderBinding(keys.Chat.ScrollDown.Binding))

	b.WriteString("\n" + theme.HelpGroupStyle.Render("Computer & Files") + "\n")
	b.WriteString(renderBinding(keys.Panel.Toggle.Binding))
	b.WriteString(renderBinding(keys.Panel.FileUp.Binding))
	b.WriteString(renderBinding(keys.Panel.FileDown.Binding))
	b.WriteString(renderBinding(keys.Panel.FileOpen.Binding))
	b.WriteString(renderBinding(keys.Panel.CloseTab.Binding))
	b.WriteString(renderBinding(keys.Panel.RefreshFiles.Binding))

	b.WriteString("\n" + theme.HelpGroupStyle.Render("Application") + "\n")
	b.WriteString(renderBinding(keys.Application.CommandPalette.Binding))
	b.WriteString(renderBinding(keys.Application.Settings.Binding))
	b.WriteString(renderBinding(keys.Application.Memory.Binding))
	b.WriteString(renderBinding(keys.Application.Markdown.Binding))
	b.WriteString(renderBinding(keys.Application.Help.Binding))
	b.WriteString(renderBinding(keys.Application.Quit.Binding))

	b.WriteString("\n" + theme.HelpGroupStyle.Render("File Cards (read-only)") + "\n")
	b.WriteString(renderShortcut(domain.SymbolPending, "agent is writing or reading the file"))
	b.WriteString(renderShortcut(domain.SymbolCreated, "file written or read"))
	b.WriteString(renderShortcut(domain.SymbolError, "operation failed"))

	return b.String()
}

// NewHelpScreen creates a new help screen component
func NewHelpScreen(keys *KeyMap) *HelpScreen {
	return &HelpScreen{
		content:  buildHelpContent(keys),
		keys:     keys,
		viewport: viewport.New(0, 0),
	}
}

// Init implements tea.Model
func (h *HelpScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (h *HelpScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Dialog header: 4 lines, Footer: 2 lines
		h.viewport.Width = msg.Width
		h.viewport.Height = max(msg.Height-6, 5)
		h.viewport.SetContent(h.content)
		h.initialized = true
		return h, nil

	case tea.KeyMsg:
		if msg.String() == "esc" || key.Matches(msg, h.keys.Application.Quit.Binding, h.keys.Application.Help.Binding) {
			h.Completed = true
			return h, nil
		}
	}

	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return h, cmd
}

// View implements tea.Model
func (h *HelpScreen) View() string {
	if !h.initialized {
		return "Loading help..."
	}

	footer := theme.HelpStyle.Render("Press esc or " + h.keys.Application.Help.Binding.Help().Key + " to close • ↑↓/PgUp/PgDn to scroll")
	return h.viewport.View() + "\n\n" + footer
}
