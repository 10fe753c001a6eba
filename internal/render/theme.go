package render

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset, true-color hex values.
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
)

const cardWidth = 72

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	labelStyle  = lipgloss.NewStyle().Foreground(colorSubtext0)
	textStyle   = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorOverlay0).Italic(true)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1).Width(cardWidth)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
)

func stateColor(state string) lipgloss.Color {
	switch state {
	case "Push":
		return colorGreen
	case "Recover":
		return colorRed
	case "Rest":
		return colorPeach
	}
	return colorTeal
}

func insightColor(kind string) lipgloss.Color {
	switch kind {
	case "positive":
		return colorGreen
	case "warning":
		return colorYellow
	}
	return colorLavender
}
