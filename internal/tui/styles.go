package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary   = lipgloss.Color("205")
	Secondary = lipgloss.Color("86")
	Subtle    = lipgloss.Color("241")
	Success   = lipgloss.Color("46")
	Warning   = lipgloss.Color("214")
	Error     = lipgloss.Color("196")

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(Primary).
		Padding(0, 2)

	TabStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Underline(true).
		Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)

	SectionTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	LabelStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		Width(12)

	ValueStyle = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	DimStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		Italic(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		MarginTop(1)

	TableHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(Subtle)

	SelectedRowStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))
)

// SeverityStyle colours an alert severity.
func SeverityStyle(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "critical", "high":
		return ErrorStyle
	case "medium":
		return WarningStyle
	case "low":
		return SuccessStyle
	}
	return lipgloss.NewStyle()
}

// StatusStyle colours a record status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "success":
		return SuccessStyle
	case "failure":
		return ErrorStyle
	}
	return WarningStyle
}

// pad truncates or right-pads s to width cells.
func pad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		if width == 1 {
			return "…"
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
