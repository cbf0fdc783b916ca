package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F5F5F5"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BD88F"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
	focusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	journalInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	journalWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4BF75"))
	boxStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1)
)
