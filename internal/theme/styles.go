package theme

import "github.com/charmbracelet/lipgloss"

// Main UI styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)
)

// Chat styles
var (
	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(ColorAssistant).
				Bold(true)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorUser).
			Bold(true)

	UserMessageStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight).
				PaddingLeft(2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	CardDetailStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	StreamingCursorStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary)
)

// Markdown styles
var (
	MarkdownBoldStyle = lipgloss.NewStyle().
				Bold(true)

	MarkdownCodeBlockStyle = lipgloss.NewStyle().
				Background(ColorCodeBackground).
				Padding(0, 1)

	MarkdownHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary)

	MarkdownInlineCodeStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Background(ColorCodeBackground)

	MarkdownItalicStyle = lipgloss.NewStyle().
				Italic(true)

	MarkdownLinkStyle = lipgloss.NewStyle().
				Foreground(ColorLink).
				Underline(true)

	MarkdownQuoteStyle = lipgloss.NewStyle().
				Foreground(ColorQuote).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorQuote).
				PaddingLeft(1)

	MarkdownRuleStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)

	MarkdownStrikeStyle = lipgloss.NewStyle().
				Strikethrough(true).
				Foreground(ColorMuted)

	MarkdownTableHeaderStyle = lipgloss.NewStyle().
					Bold(true).
					Foreground(ColorHighlight)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight).
			Underline(true).
			Padding(0, 1)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Padding(0, 1)

	FileSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight).
				Background(ColorPaletteSelected).
				Bold(true)

	FolderStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)
)

// Dialog header styles
var (
	AppNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	TaglineStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	VersionStyle = lipgloss.NewStyle().
			Foreground(ColorVersion)

	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)

// Help screen styles
var (
	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HelpGroupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHelpGroup).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Width(25)
)

// Tip styles
var (
	TipKeyStyle = lipgloss.NewStyle().
			Foreground(ColorHintKey).
			Bold(true)

	TipTextStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)
)

// Status bar styles
var (
	IterationBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSpinner)
)

// ErrorStyle renders error lines
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorError).
	Bold(true)

// StatusStyle returns a style for a given status color string
func StatusStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Command palette styles
var (
	DimmedStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	ScrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(ColorScrollIndicator)

	PaletteBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.Border{Top: "─", Bottom: "─"}).
				BorderForeground(ColorMuted).
				Padding(0, 1)

	PaletteDescStyle = lipgloss.NewStyle().
				Foreground(ColorSubtle)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(ColorHintKey)

	FilterCursorStyle = lipgloss.NewStyle().
				Foreground(ColorSpinner)

	PaletteTitleStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	PaletteItemStyle = lipgloss.NewStyle().
				Foreground(ColorNormal)

	PaletteShortcutStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight).
				Bold(true)
)
