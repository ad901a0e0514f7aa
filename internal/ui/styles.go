package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	WarningBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Symbols for visual feedback.
const (
	SymbolCheck = "✓"
	SymbolCross = "✗"
)
