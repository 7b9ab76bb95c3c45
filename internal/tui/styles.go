package tui

import "github.com/charmbracelet/lipgloss"

// Impact colors
var (
	colorCritical = lipgloss.Color("#FF0000")
	colorSerious  = lipgloss.Color("#FF8800")
	colorModerate = lipgloss.Color("#FFFF00")
	colorMinor    = lipgloss.Color("#00FF00")
	colorMuted    = lipgloss.Color("#888888")
	colorAccent   = lipgloss.Color("#7B68EE")
	colorBorder   = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleForm = lipgloss.NewStyle().
			Padding(0, 1)

	styleFormFocused = styleForm.
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(colorAccent)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleError = lipgloss.NewStyle().
			Foreground(colorCritical)

	styleDisabled = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// impactStyle returns the lipgloss style for an impact level.
func impactStyle(impact string) lipgloss.Style {
	switch impact {
	case "critical":
		return lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	case "serious":
		return lipgloss.NewStyle().Foreground(colorSerious).Bold(true)
	case "moderate":
		return lipgloss.NewStyle().Foreground(colorModerate)
	case "minor":
		return lipgloss.NewStyle().Foreground(colorMinor)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}

// healthStyle returns the lipgloss style for a health score level.
func healthStyle(health string) lipgloss.Style {
	switch health {
	case "excellent":
		return lipgloss.NewStyle().Foreground(colorMinor).Bold(true)
	case "good":
		return lipgloss.NewStyle().Foreground(colorMinor)
	case "warning":
		return lipgloss.NewStyle().Foreground(colorModerate).Bold(true)
	case "critical":
		return lipgloss.NewStyle().Foreground(colorSerious).Bold(true)
	case "severe":
		return lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
