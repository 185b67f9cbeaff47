package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Captions need to read at a glance, so text is bright and
// everything else recedes.
var (
	ColorError     = lipgloss.Color("#FF5F5F")
	ColorLive      = lipgloss.Color("#5FD75F")
	ColorHighlight = lipgloss.Color("#FFD75F")
	ColorAccent    = lipgloss.Color("#5FD7FF")
	ColorMuted     = lipgloss.Color("#808080")
	ColorFaint     = lipgloss.Color("#4E4E4E")
	ColorText      = lipgloss.Color("#FFFFFF")
	ColorSign      = lipgloss.Color("#D787FF")
)

// Chrome: titles, status, panels and footer.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	LiveDotStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorAccent)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorFaint)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorLive).
			Bold(true)

	PausedBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight).
				Bold(true)
)

// Caption and chat styles.
var (
	CaptionStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	WordStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ActiveWordStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	AnimationBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorSign).
				Bold(true)

	ProgressFillStyle = lipgloss.NewStyle().
				Foreground(ColorLive)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(ColorFaint)

	LocalChatStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	RemoteChatStyle = lipgloss.NewStyle().
			Foreground(ColorLive)

	PartialTextStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight)
)
