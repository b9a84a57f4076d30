package markdown

import (
	"regexp"
	"strings"
)

// SpanKind identifies an inline span
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanCode
	SpanItalic
	SpanLink
	SpanStrike
)

// Span is a run of inline text with one style
type Span struct {
	Kind SpanKind
	Text string
	URL  string
}

var (
	inlineCodeRe = regexp.MustCompile("^`([^`]+)`")
	boldStarRe   = regexp.MustCompile(`^\*\*([^*_]+)\*\*`)
	boldUnderRe  = regexp.MustCompile(`^__([^*_]+)__`)
	italicStarRe = regexp.MustCompile(`^\*([^*_]+)\*`)
	italicUndRe  = regexp.MustCompile(`^_([^*_]+)_`)
	linkRe       = regexp.MustCompile(`^\[([^\]]+)\]\(([^)]+)\)`)
	strikeRe     = regexp.MustCompile(`^~~([^~]+)~~`)
)

const specialChars = "`*_[~"

// ParseInline splits text into spans. At each position the first matching
// pattern wins, in the order code, bold, italic, link, strikethrough;
// otherwise one literal character is consumed. Adjacent literals are merged.
func ParseInline(text string) []Span {
	var spans []Span
	appendText := func(s string) {
		if n := len(spans); n > 0 && spans[n-1].Kind == SpanText {
			spans[n-1].Text += s
			return
		}
		spans = append(spans, Span{Kind: SpanText, Text: s})
	}

	rest := text
	for rest != "" {
		if span, n, ok := matchSpan(rest); ok {
			spans = append(spans, span)
			rest = rest[n:]
			continue
		}

		next := strings.IndexAny(rest, specialChars)
		switch {
		case next < 0:
			appendText(rest)
			rest = ""
		case next == 0:
			appendText(rest[:1])
			rest = rest[1:]
		default:
			appendText(rest[:next])
			rest = rest[next:]
		}
	}

	return spans
}

// matchSpan tries every styled pattern at the start of s and returns the span
// with the number of bytes it consumed
func matchSpan(s string) (Span, int, bool) {
	if m := inlineCodeRe.FindStringSubmatch(s); m != nil {
		return Span{Kind: SpanCode, Text: m[1]}, len(m[0]), true
	}
	for _, re := range []*regexp.Regexp{boldStarRe, boldUnderRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			return Span{Kind: SpanBold, Text: m[1]}, len(m[0]), true
		}
	}
	for _, re := range []*regexp.Regexp{italicStarRe, italicUndRe} {
		// Italic must not run into a following word ("*a*b" stays literal)
		if m := re.FindStringSubmatch(s); m != nil && !startsWithLetter(s[len(m[0]):]) {
			return Span{Kind: SpanItalic, Text: m[1]}, len(m[0]), true
		}
	}
	if m := linkRe.FindStringSubmatch(s); m != nil {
		return Span{Kind: SpanLink, Text: m[1], URL: m[2]}, len(m[0]), true
	}
	if m := strikeRe.FindStringSubmatch(s); m != nil {
		return Span{Kind: SpanStrike, Text: m[1]}, len(m[0]), true
	}
	return Span{}, 0, false
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// PlainText flattens spans back to their visible text
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
