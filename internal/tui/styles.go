package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the set of styles the recorder draws with.
type Theme struct {
	Header    lipgloss.Style
	Phase     lipgloss.Style
	Control   lipgloss.Style
	Armed     lipgloss.Style
	Disabled  lipgloss.Style
	Highlight lipgloss.Style
	KeyHint   lipgloss.Style
	Counter   lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Section   lipgloss.Style
}

var DefaultTheme = Theme{
	Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("24")).Padding(0, 1),
	Phase:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	Control:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Armed:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")),
	Disabled:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")),
	KeyHint:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	Counter:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
	Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Section:   lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1),
}
