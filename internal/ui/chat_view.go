package ui

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	"anygent/internal/config"
	"anygent/internal/domain"
	"anygent/internal/theme"
)

const renderedEntryCacheSize = 512

// ChatView is the scrollable transcript on the left side of the console
type ChatView struct {
	cache        *lru.Cache[string, string]
	entries      []domain.ChatEntry
	markdown     *MarkdownRenderer
	statusConfig *config.StatusConfig
	thinking     string
	viewport     viewport.Model
	width        int
}

// NewChatView creates an empty transcript view
func NewChatView(md *MarkdownRenderer, statusConfig *config.StatusConfig) *ChatView {
	cache, _ := lru.New[string, string](renderedEntryCacheSize)
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{}
	return &ChatView{
		cache:        cache,
		markdown:     md,
		statusConfig: statusConfig,
		viewport:     vp,
	}
}

// SetSize resizes the view; cached renders are dropped when the width changes
func (c *ChatView) SetSize(width, height int) {
	if width != c.width {
		c.cache.Purge()
	}
	c.width = width
	c.viewport.Width = width
	c.viewport.Height = max(height, 1)
	c.refresh()
}

// SetEntries replaces the transcript. thinking is the indicator shown under
// the last entry while a run is in progress, or "" when idle.
func (c *ChatView) SetEntries(entries []domain.ChatEntry, thinking string) {
	c.entries = entries
	c.thinking = thinking
	c.refresh()
}

// Rerender drops cached renders, for example after markdown was toggled
func (c *ChatView) Rerender() {
	c.cache.Purge()
	c.refresh()
}

// ScrollUp scrolls the transcript up by a page
func (c *ChatView) ScrollUp() {
	c.viewport.PageUp()
}

// ScrollDown scrolls the transcript down by a page
func (c *ChatView) ScrollDown() {
	c.viewport.PageDown()
}

// Update forwards mouse wheel events to the viewport
func (c *ChatView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

// View renders the visible part of the transcript
func (c *ChatView) View() string {
	return c.viewport.View()
}

func (c *ChatView) refresh() {
	if c.width <= 0 {
		return
	}

	followTail := c.viewport.AtBottom() || c.viewport.TotalLineCount() == 0
	contentWidth := max(c.width-2, 10)

	parts := make([]string, 0, len(c.entries)+1)
	if len(c.entries) == 0 && c.thinking == "" {
		parts = append(parts, theme.MutedStyle.Render("Ask the agent to build something. Its files show up on the right."))
	}
	for _, e := range c.entries {
		parts = append(parts, c.renderCached(e, contentWidth))
	}
	if c.thinking != "" {
		parts = append(parts, c.thinking)
	}

	c.viewport.SetContent(strings.Join(parts, "\n\n"))
	if followTail {
		c.viewport.GotoBottom()
	}
}

func (c *ChatView) renderCached(e domain.ChatEntry, width int) string {
	key := c.cacheKey(e, width)
	if out, ok := c.cache.Get(key); ok {
		return out
	}
	out := c.renderEntry(e, width)
	c.cache.Add(key, out)
	return out
}

// cacheKey changes whenever anything that affects the rendered entry changes
func (c *ChatView) cacheKey(e domain.ChatEntry, width int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Content))
	read := ""
	if e.ReadResult != nil {
		read = fmt.Sprintf("%+v", *e.ReadResult)
	}
	return fmt.Sprintf("%s|%x|%t|%s|%s|%s|%d|%t", e.ID, h.Sum64(), e.IsStreaming, e.FileStatus, e.ReadStatus, read, width, c.markdown.Enabled())
}

func (c *ChatView) renderEntry(e domain.ChatEntry, width int) string {
	switch e.Type {
	case domain.EntryUser:
		return theme.UserLabelStyle.Render("You") + "\n" +
			theme.UserMessageStyle.Width(width).Render(e.Content)

	case domain.EntryAssistant:
		label := theme.AssistantLabelStyle.Render("Anygent")
		if e.Iteration > 0 {
			label += theme.MutedStyle.Render(fmt.Sprintf(" · iteration %d", e.Iteration))
		}
		body := c.markdown.Render(e.Content, width)
		if e.IsStreaming {
			body += theme.StreamingCursorStyle.Render("▍")
		}
		return label + "\n" + body

	case domain.EntryFileCard:
		return c.renderCard(e, string(e.FileStatus), fileStatusLabel(e.FileStatus), "", width)

	case domain.EntryReadFileCard:
		return c.renderCard(e, string(e.ReadStatus), readStatusLabel(e.ReadStatus), readDetail(e), width)
	}
	return ""
}

func (c *ChatView) renderCard(e domain.ChatEntry, status, label, detail string, width int) string {
	badge := theme.StatusStyle(c.statusConfig.GetColor(status)).Render(label)
	line := theme.StatusStyle(c.statusConfig.GetColor(status)).Render(e.Symbol()) + " " + e.FilePath + "  " + badge
	if detail != "" {
		line += "\n" + theme.CardDetailStyle.Render(detail)
	}
	return theme.CardStyle.Width(width).Render(line)
}

func fileStatusLabel(s domain.FileStatus) string {
	switch s {
	case domain.FileCreated:
		return "created"
	case domain.FileError:
		return "error"
	}
	return "writing..."
}

func readStatusLabel(s domain.ReadStatus) string {
	switch s {
	case domain.ReadDone:
		return "read"
	case domain.ReadError:
		return "error"
	}
	return "reading..."
}

// readDetail summarizes a finished read, e.g. "120/400 lines · 4.1 kB · truncated"
func readDetail(e domain.ChatEntry) string {
	r := e.ReadResult
	if r == nil {
		return ""
	}
	if e.ReadStatus == domain.ReadError {
		return r.Message
	}

	var parts []string
	if r.TotalLines > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d lines", r.LinesRead, r.TotalLines))
	} else if r.LinesRead > 0 {
		parts = append(parts, fmt.Sprintf("%d lines", r.LinesRead))
	}
	if r.FileSize > 0 {
		parts = append(parts, humanize.Bytes(uint64(r.FileSize)))
	}
	if r.Truncated {
		parts = append(parts, "truncated")
	}
	return strings.Join(parts, " · ")
}
