// Package ui renders the live dashboard: a column of sparkline graphs for
// CPU, memory, swap and GPU usage next to a static system info panel and
// per-interface network rates.
package ui

import "github.com/charmbracelet/lipgloss"

// Dashboard palette.
const (
	ColorBorder    = lipgloss.Color("#3A3A4A")
	ColorTextMain  = lipgloss.Color("#E8E8F0")
	ColorTextDim   = lipgloss.Color("#8888A0")
	ColorTextMuted = lipgloss.Color("#5A5A70")

	ColorHealthy  = lipgloss.Color("#2ECC71")
	ColorWarning  = lipgloss.Color("#F1C40F")
	ColorCritical = lipgloss.Color("#E74C3C")

	ColorCPU     = lipgloss.Color("#00D7FF") // cyan
	ColorMemory  = lipgloss.Color("#FFD700") // gold
	ColorSwap    = lipgloss.Color("#FF5FD7") // magenta
	ColorGPU     = lipgloss.Color("#5FFF87") // green
	ColorNetwork = lipgloss.Color("#AF87FF") // violet
)

// Thresholds for metric severity coloring.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextMain).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextMain)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// MetricColor returns the severity color for a percentage: green below the
// warning threshold, yellow up to the critical threshold, red above.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style colored by metric severity.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}
