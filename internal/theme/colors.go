package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "214" // Amber - app name, titles
	ColorSecondary Color = "86"  // Cyan - subtitles
)

// Chat role colors
const (
	ColorAssistant Color = "214" // Amber - agent replies
	ColorUser      Color = "39"  // Blue - user messages
)

// UI semantic colors
const (
	ColorBorder    Color = "238" // Panel borders
	ColorDimmed    Color = "240" // Dimmed background behind overlays
	ColorError     Color = "196" // Bright red
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorNormal    Color = "250" // Default text
	ColorSubtle    Color = "245" // Light gray - labels
	ColorSuccess   Color = "42"  // Green
	ColorVersion   Color = "240" // Dark gray
)

// Accent colors
const (
	ColorCodeBackground  Color = "235" // Inline code and code blocks
	ColorHelpGroup       Color = "141" // Purple
	ColorHintKey         Color = "226" // Yellow - tip keys
	ColorLink            Color = "75"  // Light blue
	ColorPaletteSelected Color = "237" // Command palette selection
	ColorQuote           Color = "244" // Blockquote bar and text
	ColorScrollIndicator Color = "243"
	ColorSpinner         Color = "205" // Pink
)
