package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"anygent/internal/domain"
	"anygent/internal/theme"
)

// timelineLimit caps the activity rows shown in the memory dialog
const timelineLimit = 50

// MemoryView shows what the agent currently holds in context
type MemoryView struct {
	Completed     bool
	initialized   bool
	iteration     int
	keys          *KeyMap
	maxIterations int
	memory        *domain.Memory
	viewport      viewport.Model
}

// NewMemoryView creates the memory dialog content
func NewMemoryView(keys *KeyMap) *MemoryView {
	return &MemoryView{
		keys:     keys,
		viewport: viewport.New(0, 0),
	}
}

// SetMemory replaces the snapshot shown by the dialog
func (v *MemoryView) SetMemory(memory *domain.Memory, iteration, maxIterations int) {
	v.memory = memory
	v.iteration = iteration
	v.maxIterations = maxIterations
	if v.initialized {
		v.viewport.SetContent(v.render())
	}
}

func (v *MemoryView) Init() tea.Cmd {
	return nil
}

func (v *MemoryView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Dialog header: 4 lines, Footer: 2 lines
		v.viewport.Width = msg.Width
		v.viewport.Height = max(msg.Height-6, 5)
		v.viewport.SetContent(v.render())
		v.initialized = true
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "esc" || key.Matches(msg, v.keys.Application.Memory.Binding, v.keys.Application.Quit.Binding) {
			v.Completed = true
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *MemoryView) View() string {
	if !v.initialized {
		return "Loading memory..."
	}
	footer := theme.HelpStyle.Render("Press esc to close • ↑↓/PgUp/PgDn to scroll")
	return v.viewport.View() + "\n\n" + footer
}

func (v *MemoryView) render() string {
	var b strings.Builder

	stats := domain.MemoryStats{}
	sessionID := "-"
	if v.memory != nil {
		stats = v.memory.Stats
		if v.memory.SessionID != "" {
			sessionID = v.memory.SessionID
		}
	}

	b.WriteString(theme.HelpGroupStyle.Render("Overview") + "\n")
	b.WriteString(renderShortcut("Iterations", fmt.Sprintf("%d/%d", v.iteration, v.maxIterations)))
	b.WriteString(renderShortcut("Files", fmt.Sprint(stats.FilesCreated)))
	b.WriteString(renderShortcut("Tool Calls", fmt.Sprint(stats.ToolCalls)))
	b.WriteString(renderShortcut("Context", fmt.Sprintf("%d messages", stats.TotalMessages)))
	b.WriteString(renderShortcut("Session ID", sessionID))

	if len(stats.FileTypes) > 0 {
		b.WriteString("\n" + theme.HelpGroupStyle.Render("File Types") + "\n")
		b.WriteString(renderHistogram(stats.FileTypes))
	}

	if len(stats.FilesInContext) > 0 {
		b.WriteString("\n" + theme.HelpGroupStyle.Render("Files in Context") + "\n")
		for _, f := range stats.FilesInContext {
			b.WriteString("  " + f.Path + "\n")
		}
	}

	b.WriteString("\n" + theme.HelpGroupStyle.Render("Timeline") + "\n")
	timeline := v.memory.Timeline(timelineLimit)
	if len(timeline) == 0 {
		b.WriteString(theme.MutedStyle.Render("No activity yet. Start a conversation!") + "\n")
	}
	for _, entry := range timeline {
		b.WriteString(renderTimelineEntry(entry, v.viewport.Width))
	}

	return b.String()
}

// renderHistogram draws one bar per extension, most common first
func renderHistogram(counts map[string]int) string {
	exts := slices.Collect(maps.Keys(counts))
	slices.SortFunc(exts, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})

	var b strings.Builder
	for _, ext := range exts {
		bar := theme.IterationBadgeStyle.Render(strings.Repeat("█", min(counts[ext], 30)))
		b.WriteString(renderShortcut("."+ext, bar+" "+fmt.Sprint(counts[ext])))
	}
	return b.String()
}

func renderTimelineEntry(entry domain.TimelineEntry, width int) string {
	label := "User"
	switch entry.Kind {
	case domain.TimelineThought:
		label = "Thinking"
	case domain.TimelineToolCall, domain.TimelineToolResult:
		label = entry.ToolName
	}

	line := theme.HelpKeyStyle.Render(label)
	if entry.Kind == domain.TimelineToolResult {
		if entry.OK {
			line += theme.StatusStyle("42").Render("success ")
		} else {
			line += theme.ErrorStyle.Render("error ")
		}
	}
	content := strings.ReplaceAll(entry.Content, "\n", " ")
	line += theme.HelpDescStyle.Render(content)
	if width > 0 {
		line = theme.HelpDescStyle.MaxWidth(width).Render(line)
	}
	return line + "\n"
}
