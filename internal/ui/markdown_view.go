package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	lru "github.com/hashicorp/golang-lru/v2"

	"anygent/internal/logging"
	"anygent/internal/markdown"
	"anygent/internal/theme"
)

const highlightCacheSize = 128

// MarkdownRenderer turns assistant text into styled terminal output. Block
// and inline structure comes from the markdown package; glamour only
// highlights fenced code.
type MarkdownRenderer struct {
	cache   *lru.Cache[string, string]
	enabled bool
	glamour *glamour.TermRenderer
	mu      sync.RWMutex
	width   int
}

// NewMarkdownRenderer creates a renderer; enabled=false renders plain wrapped text
func NewMarkdownRenderer(enabled bool) *MarkdownRenderer {
	cache, _ := lru.New[string, string](highlightCacheSize)
	return &MarkdownRenderer{cache: cache, enabled: enabled}
}

// SetWidth rebuilds the code highlighter for a new wrap width
func (r *MarkdownRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.width && r.glamour != nil {
		return
	}
	r.width = width

	g, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		logging.Logger.Warn("Failed to create code highlighter, using plain code blocks", "error", err)
		r.glamour = nil
		return
	}
	r.glamour = g
	r.cache.Purge()
}

// Enabled reports whether markdown rendering is on
func (r *MarkdownRenderer) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Toggle flips markdown rendering and returns the new state
func (r *MarkdownRenderer) Toggle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = !r.enabled
	return r.enabled
}

// Render renders text at the given width
func (r *MarkdownRenderer) Render(text string, width int) string {
	width = max(width, 10)
	if !r.Enabled() {
		return lipgloss.NewStyle().Width(width).Render(text)
	}
	return r.RenderBlocks(markdown.Parse(text), width)
}

// RenderBlocks renders parsed blocks separated by blank lines
func (r *MarkdownRenderer) RenderBlocks(blocks []markdown.Block, width int) string {
	rendered := make([]string, 0, len(blocks))
	for _, b := range blocks {
		rendered = append(rendered, r.renderBlock(b, width))
	}
	return strings.Join(rendered, "\n\n")
}

func (r *MarkdownRenderer) renderBlock(b markdown.Block, width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	switch b.Kind {
	case markdown.KindCode:
		return r.Highlight(b.Content, b.Language, width)

	case markdown.KindHeading:
		return theme.MarkdownHeadingStyle.Width(width).Render(renderInline(b.Content))

	case markdown.KindRule:
		return theme.MarkdownRuleStyle.Render(strings.Repeat("─", width))

	case markdown.KindQuote:
		return theme.MarkdownQuoteStyle.Width(max(width-2, 1)).Render(renderInline(b.Content))

	case markdown.KindList:
		lines := make([]string, 0, len(b.Items))
		for i, item := range b.Items {
			marker := "• "
			if b.Ordered {
				marker = fmt.Sprintf("%d. ", i+1)
			}
			body := lipgloss.NewStyle().Width(max(width-len(marker), 1)).Render(renderInline(item))
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, marker, body))
		}
		return strings.Join(lines, "\n")

	case markdown.KindTable:
		return renderTable(b, width)

	default:
		return wrap.Render(renderInline(b.Content))
	}
}

// Highlight renders code with syntax highlighting, falling back to a plain code block
func (r *MarkdownRenderer) Highlight(code, language string, width int) string {
	plain := theme.MarkdownCodeBlockStyle.Width(max(width, 10)).Render(code)

	r.mu.RLock()
	g := r.glamour
	r.mu.RUnlock()
	if g == nil {
		return plain
	}

	cacheKey := fmt.Sprintf("%d\x00%s\x00%s", width, language, code)
	if out, ok := r.cache.Get(cacheKey); ok {
		return out
	}

	out, err := g.Render("```" + language + "\n" + code + "\n```\n")
	if err != nil {
		logging.Logger.Debug("Code highlighting failed", "language", language, "error", err)
		return plain
	}
	out = strings.Trim(out, "\n")
	r.cache.Add(cacheKey, out)
	return out
}

// renderInline applies span styles
func renderInline(text string) string {
	var b strings.Builder
	for _, span := range markdown.ParseInline(text) {
		switch span.Kind {
		case markdown.SpanBold:
			b.WriteString(theme.MarkdownBoldStyle.Render(span.Text))
		case markdown.SpanItalic:
			b.WriteString(theme.MarkdownItalicStyle.Render(span.Text))
		case markdown.SpanCode:
			b.WriteString(theme.MarkdownInlineCodeStyle.Render(span.Text))
		case markdown.SpanLink:
			b.WriteString(theme.MarkdownLinkStyle.Render(span.Text))
			b.WriteString(theme.MutedStyle.Render(" (" + span.URL + ")"))
		case markdown.SpanStrike:
			b.WriteString(theme.MarkdownStrikeStyle.Render(span.Text))
		default:
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

// renderTable lays out a table with columns sized to their widest cell, shrunk evenly to fit width
func renderTable(b markdown.Block, width int) string {
	cols := len(b.Headers)
	for _, row := range b.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return markdown.PlainText(markdown.ParseInline(row[i]))
		}
		return ""
	}

	widths := make([]int, cols)
	for i := range cols {
		widths[i] = lipgloss.Width(cell(b.Headers, i))
		for _, row := range b.Rows {
			widths[i] = max(widths[i], lipgloss.Width(cell(row, i)))
		}
	}

	available := width - 3*(cols-1)
	for total(widths) > available && available > cols {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		widths[widest]--
	}

	renderRow := func(row []string, style lipgloss.Style) string {
		cells := make([]string, cols)
		for i := range cols {
			cells[i] = style.Width(widths[i]).Render(ansi.Truncate(cell(row, i), widths[i], "…"))
		}
		return strings.Join(cells, theme.MutedStyle.Render(" │ "))
	}

	lines := []string{renderRow(b.Headers, theme.MarkdownTableHeaderStyle)}
	seps := make([]string, cols)
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	lines = append(lines, theme.MutedStyle.Render(strings.Join(seps, "─┼─")))
	for _, row := range b.Rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}

func total(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum
}
