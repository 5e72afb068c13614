package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText     lipgloss.Color = "#cdd6f4"
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorError    lipgloss.Color = "#f38ba8"
	colorWarn     lipgloss.Color = "#f9e2af"
	colorTabOff   lipgloss.Color = "#7f849c"
	colorMantle   lipgloss.Color = "#181825"
	colorSurface0 lipgloss.Color = "#313244"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	headerAppStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle).Padding(0, 1)
	headerBarStyle = lipgloss.NewStyle().Background(colorMantle).Foreground(colorText)
	activeTabStyle = lipgloss.NewStyle().
			Background(colorSurface0).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().
				Background(colorMantle).
				Foreground(colorTabOff).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0)

	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted).Width(14)
	cursorStyle   = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorText)
	selectedStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	headerCell    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	focusedHeader = headerCell.Underline(true).Foreground(colorWarn)
	cell          = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	borderStyle   = lipgloss.NewStyle().Foreground(colorBorder)
)
