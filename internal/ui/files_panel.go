package ui

import (
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"anygent/internal/domain"
	"anygent/internal/theme"
)

// treeRatio is the share of the panel height used by the file tree
const treeRatio = 0.4

// FilesPanel shows the sandbox file tree, open tabs and the selected file
type FilesPanel struct {
	collapsed map[string]bool
	content   string
	cursor    int
	height    int
	markdown  *MarkdownRenderer
	rows      []domain.FlatNode
	selected  string
	tabs      []string
	tree      *domain.FileNode
	viewport  viewport.Model
	width     int
}

// NewFilesPanel creates an empty file browser
func NewFilesPanel(md *MarkdownRenderer) *FilesPanel {
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{}
	return &FilesPanel{
		collapsed: make(map[string]bool),
		markdown:  md,
		viewport:  vp,
	}
}

// SetSize resizes the panel
func (p *FilesPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.refreshContent()
}

// SetState updates the tree, tabs and selected file from the store
func (p *FilesPanel) SetState(tree *domain.FileNode, tabs []string, selected, content string) {
	contentChanged := selected != p.selected || content != p.content
	p.tree = tree
	p.tabs = tabs
	p.selected = selected
	p.content = content
	p.rows = tree.Flatten(p.collapsed)
	p.cursor = min(p.cursor, max(len(p.rows)-1, 0))
	if contentChanged {
		p.refreshContent()
	}
}

// MoveUp moves the tree cursor up
func (p *FilesPanel) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the tree cursor down
func (p *FilesPanel) MoveDown() {
	if p.cursor < len(p.rows)-1 {
		p.cursor++
	}
}

// Activate toggles the folder under the cursor, or returns the file path to open
func (p *FilesPanel) Activate() (string, bool) {
	if p.cursor >= len(p.rows) {
		return "", false
	}
	node := p.rows[p.cursor].Node
	if node.IsDir() {
		p.collapsed[node.Path] = !p.collapsed[node.Path]
		p.rows = p.tree.Flatten(p.collapsed)
		return "", false
	}
	return node.Path, true
}

// Selected returns the path of the active tab
func (p *FilesPanel) Selected() string {
	return p.selected
}

func (p *FilesPanel) treeHeight() int {
	return max(int(float64(p.height)*treeRatio), 3)
}

func (p *FilesPanel) refreshContent() {
	if p.width <= 0 {
		return
	}
	p.viewport.Width = p.width
	p.viewport.Height = max(p.height-p.treeHeight()-3, 1)

	if p.selected == "" {
		p.viewport.SetContent(theme.MutedStyle.Render("Select a file to view its contents"))
		return
	}
	p.viewport.SetContent(p.markdown.Highlight(p.content, domain.FileExtension(p.selected), p.width))
	p.viewport.GotoTop()
}

// View renders the explorer, tab bar and file content
func (p *FilesPanel) View() string {
	title := theme.PanelTitleStyle.Render("Explorer")
	if len(p.rows) == 0 {
		empty := lipgloss.Place(p.width, max(p.height-1, 1), lipgloss.Center, lipgloss.Center,
			theme.MutedStyle.Render("No files yet. Start building!"))
		return title + "\n" + empty
	}

	return strings.Join([]string{title, p.renderTree(), p.renderTabs(), p.viewport.View()}, "\n")
}

func (p *FilesPanel) renderTree() string {
	height := p.treeHeight()
	start := 0
	if p.cursor >= height {
		start = p.cursor - height + 1
	}
	end := min(start+height, len(p.rows))

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		row := p.rows[i]
		icon := "  "
		name := row.Node.Name
		if row.Node.IsDir() {
			icon = "▾ "
			if p.collapsed[row.Node.Path] {
				icon = "▸ "
			}
			name = theme.FolderStyle.Render(name + "/")
		}
		line := strings.Repeat("  ", row.Depth) + icon + name
		if i == p.cursor {
			line = theme.FileSelectedStyle.Render(strings.Repeat("  ", row.Depth) + icon + row.Node.Name)
		}
		lines = append(lines, lipgloss.NewStyle().MaxWidth(p.width).Render(line))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (p *FilesPanel) renderTabs() string {
	if len(p.tabs) == 0 {
		return theme.MutedStyle.Render(strings.Repeat("─", max(p.width, 1)))
	}
	parts := make([]string, 0, len(p.tabs))
	for _, tab := range p.tabs {
		name := path.Base(tab)
		if tab == p.selected {
			parts = append(parts, theme.TabActiveStyle.Render(name))
		} else {
			parts = append(parts, theme.TabInactiveStyle.Render(name))
		}
	}
	return lipgloss.NewStyle().MaxWidth(p.width).Render(strings.Join(parts, theme.MutedStyle.Render("│")))
}
