package ui

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"anygent/internal/domain"
	"anygent/internal/theme"
)

// ComputerPanel mirrors the file the agent is currently writing or reading
type ComputerPanel struct {
	height   int
	markdown *MarkdownRenderer
	running  bool
	state    domain.CodeStreamingState
	viewport viewport.Model
	width    int
}

// NewComputerPanel creates the live code mirror
func NewComputerPanel(md *MarkdownRenderer) *ComputerPanel {
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{}
	return &ComputerPanel{markdown: md, viewport: vp}
}

// SetSize resizes the panel
func (p *ComputerPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.refresh()
}

// SetState updates the mirrored code streaming state
func (p *ComputerPanel) SetState(state domain.CodeStreamingState, running bool) {
	p.state = state
	p.running = running
	p.refresh()
}

// headerLines is the number of lines above the code area
const headerLines = 3

func (p *ComputerPanel) refresh() {
	if p.width <= 0 {
		return
	}
	p.viewport.Width = p.width
	p.viewport.Height = max(p.height-headerLines, 1)

	if p.state.Content == "" {
		msg := "Start a conversation to see live code"
		if p.running {
			msg = "Agent is working... Code will appear here"
		}
		p.viewport.SetContent(lipgloss.Place(p.width, p.viewport.Height, lipgloss.Center, lipgloss.Center, theme.MutedStyle.Render(msg)))
		return
	}

	// Highlighting every chunk is expensive, so the stream shows numbered plain text
	if p.state.IsStreaming {
		p.viewport.SetContent(numberLines(p.state.Content) + theme.StreamingCursorStyle.Render("▍"))
		p.viewport.GotoBottom()
		return
	}

	p.viewport.SetContent(p.markdown.Highlight(p.state.Content, domain.FileExtension(p.state.FilePath), p.width))
}

// View renders the panel header and code area
func (p *ComputerPanel) View() string {
	tool := p.state.Tool
	if tool == "" {
		tool = domain.ToolEditor
	}

	status := theme.MutedStyle.Render("Idle")
	if p.state.IsStreaming {
		status = theme.StatusStyle("42").Render("● Realtime")
	}
	title := theme.PanelTitleStyle.Render("Anygent Computer") + "  " + status

	activity := theme.MutedStyle.Render("Using ") + tool
	switch {
	case p.state.IsStreaming && p.state.FilePath != "":
		verb := p.state.Action
		if verb == "" {
			verb = "Editing"
		}
		activity += theme.MutedStyle.Render(" · ") + verb + " " + p.state.FilePath
	case !p.state.IsStreaming && p.state.Content == "":
		activity += theme.MutedStyle.Render(" · Waiting for agent...")
	}

	fileName := "No file selected"
	if p.state.FilePath != "" {
		fileName = path.Base(p.state.FilePath)
	}

	header := strings.Join([]string{
		title,
		lipgloss.NewStyle().MaxWidth(p.width).Render(activity),
		theme.MutedStyle.Render(fileName),
	}, "\n")
	return header + "\n" + p.viewport.View()
}

// numberLines prefixes each line with a right-aligned line number
func numberLines(content string) string {
	lines := strings.Split(content, "\n")
	width := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(theme.MutedStyle.Render(fmt.Sprintf("%*d ", width, i+1)))
		b.WriteString(line)
	}
	return b.String()
}
