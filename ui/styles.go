package ui

import (
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"
)

var (
	fuchsia = lipgloss.Color("#EE6FF8")
	red     = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	gray    = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1F1F1")).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(gray)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(statusBarBg)

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen)

	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F1F1F1"})

	guideStyle = lipgloss.NewStyle().Foreground(gray)

	searchPromptStyle = lipgloss.NewStyle().Foreground(fuchsia)
)

// anchorStyle returns the style for anchor characters. Terminals without
// color get an underline so the anchor stays visible.
func anchorStyle(base lipgloss.Style) lipgloss.Style {
	if lipgloss.ColorProfile() == te.Ascii {
		return base.Underline(true)
	}
	return base
}
