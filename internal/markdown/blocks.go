// Package markdown segments assistant text into typed blocks and inline spans.
// It is a best-effort renderer front end, not a conforming markdown parser:
// anything it does not recognize degrades to literal text.
package markdown

import (
	"regexp"
	"strings"
)

// Kind identifies a block
type Kind int

const (
	KindParagraph Kind = iota
	KindCode
	KindHeading
	KindList
	KindQuote
	KindRule
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindHeading:
		return "heading"
	case KindList:
		return "list"
	case KindQuote:
		return "quote"
	case KindRule:
		return "rule"
	case KindTable:
		return "table"
	default:
		return "paragraph"
	}
}

// Block is one segment of a message. Which fields are set depends on Kind.
type Block struct {
	Content  string
	Headers  []string
	Items    []string
	Kind     Kind
	Language string
	Level    int
	Ordered  bool
	Rows     [][]string
}

var (
	fenceOpenRe   = regexp.MustCompile("^```(\\w*)$")
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	headingStart  = regexp.MustCompile(`^#{1,6}\s`)
	orderedItemRe = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	orderedStart  = regexp.MustCompile(`^\d+\.\s`)
	ruleRe        = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
	bulletItemRe  = regexp.MustCompile(`^[-*+]\s+(.+)$`)
	bulletStart   = regexp.MustCompile(`^[-*+]\s`)
)

const (
	fence       = "```"
	quotePrefix = "> "
)

// Parse splits text into blocks, grouping consecutive lines of the same kind
func Parse(text string) []Block {
	var blocks []Block
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); {
		line := lines[i]

		if m := fenceOpenRe.FindStringSubmatch(line); m != nil {
			var code []string
			i++
			for i < len(lines) && lines[i] != fence {
				code = append(code, lines[i])
				i++
			}
			blocks = append(blocks, Block{Kind: KindCode, Language: m[1], Content: strings.Join(code, "\n")})
			i++ // closing fence
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Kind: KindHeading, Level: len(m[1]), Content: m[2]})
			i++
			continue
		}

		if ruleRe.MatchString(line) {
			blocks = append(blocks, Block{Kind: KindRule})
			i++
			continue
		}

		if strings.HasPrefix(line, quotePrefix) {
			var quote []string
			for i < len(lines) && strings.HasPrefix(lines[i], quotePrefix) {
				quote = append(quote, lines[i][len(quotePrefix):])
				i++
			}
			blocks = append(blocks, Block{Kind: KindQuote, Content: strings.Join(quote, "\n")})
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			var rows []string
			for i < len(lines) && strings.Contains(lines[i], "|") {
				rows = append(rows, lines[i])
				i++
			}
			// A lone pipe line is not a table and is dropped
			if len(rows) >= 2 {
				blocks = append(blocks, parseTable(rows))
			}
			continue
		}

		if bulletItemRe.MatchString(line) {
			var items []string
			items, i = collectItems(lines, i, bulletStart, bulletItemRe)
			blocks = append(blocks, Block{Kind: KindList, Items: items})
			continue
		}

		if orderedItemRe.MatchString(line) {
			var items []string
			items, i = collectItems(lines, i, orderedStart, orderedItemRe)
			blocks = append(blocks, Block{Kind: KindList, Ordered: true, Items: items})
			continue
		}

		if strings.TrimSpace(line) != "" {
			start := i
			for i < len(lines) && continuesParagraph(lines[i]) {
				i++
			}
			// A line that only looks like the start of another block ("- ", "```js x")
			// still has to be consumed
			if i == start {
				i++
			}
			blocks = append(blocks, Block{Kind: KindParagraph, Content: strings.Join(lines[start:i], "\n")})
			continue
		}

		i++
	}

	return blocks
}

func collectItems(lines []string, i int, start, item *regexp.Regexp) ([]string, int) {
	var items []string
	for i < len(lines) && start.MatchString(lines[i]) {
		if m := item.FindStringSubmatch(lines[i]); m != nil {
			items = append(items, m[1])
		}
		i++
	}
	return items, i
}

func continuesParagraph(line string) bool {
	return strings.TrimSpace(line) != "" &&
		!strings.HasPrefix(line, fence) &&
		!headingStart.MatchString(line) &&
		!bulletStart.MatchString(line) &&
		!orderedStart.MatchString(line) &&
		!strings.HasPrefix(line, quotePrefix) &&
		!ruleRe.MatchString(line)
}

func parseTable(lines []string) Block {
	b := Block{Kind: KindTable, Headers: parseRow(lines[0])}
	// lines[1] is the separator row
	for _, line := range lines[2:] {
		b.Rows = append(b.Rows, parseRow(line))
	}
	return b
}

// parseRow returns the trimmed cells between the outer pipes
func parseRow(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) < 3 {
		return []string{}
	}
	cells := make([]string, 0, len(parts)-2)
	for _, p := range parts[1 : len(parts)-1] {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}
