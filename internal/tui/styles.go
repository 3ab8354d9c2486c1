// Package tui provides the interactive terminal UI for aimpact: the input
// form and the animated results panel.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#FF6B6B") // Red - titles, alerts
	ColorSecondary = lipgloss.Color("#4ecdc4") // Teal - focused field
	ColorAccent    = lipgloss.Color("#ffe66d") // Yellow - values, button
	ColorMuted     = lipgloss.Color("#666666") // Gray - help text
	ColorSuccess   = lipgloss.Color("#a8e6cf") // Green - copied
	ColorText      = lipgloss.Color("#f1faee") // Light text
	ColorLabel     = lipgloss.Color("#a8dadc") // Label color
	ColorBg        = lipgloss.Color("#1a1a2e") // Dark background
	ColorBgAlt     = lipgloss.Color("#2d3436") // Alt background
	ColorBorder    = lipgloss.Color("#3d5a80") // Border color
)

// Title styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorBg).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)
)

// Form styles
var (
	FormBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel)

	LabelFocusedStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	FieldValueStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SelectStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBgAlt).
			Padding(0, 1)

	SelectFocusedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorAccent).
				Background(ColorBgAlt).
				Padding(0, 1)

	ButtonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBg).
			Background(ColorAccent).
			Padding(0, 2).
			MarginTop(1)

	ButtonBusyStyle = lipgloss.NewStyle().
			Bold(true).
			Italic(true).
			Foreground(ColorAccent).
			Background(ColorBgAlt).
			Padding(0, 2).
			MarginTop(1)
)

// Status styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	AlertStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	CopiedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)
)

// ContentStyle pads the whole screen.
var ContentStyle = lipgloss.NewStyle().
	Padding(1, 2)
