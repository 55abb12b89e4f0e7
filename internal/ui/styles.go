package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // purple
	colorSecondary = lipgloss.Color("241") // gray
	colorMuted     = lipgloss.Color("240") // dark gray
	colorHighlight = lipgloss.Color("212") // pink
	colorSuccess   = lipgloss.Color("78")  // green
	colorError     = lipgloss.Color("196") // red

	markerStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	titleSelectedStyle = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	bylineStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	likedGlyphStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	savedGlyphStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	narrationStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	narrationErrStyle = lipgloss.NewStyle().
				Foreground(colorError)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(colorPrimary)

	statusHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(colorMuted)

	searchBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	errorBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(colorError)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
