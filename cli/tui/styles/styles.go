// Package styles holds the lipgloss palette shared by every screen.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder)

	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2).
			Width(22).
			Align(lipgloss.Center)

	CardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
)

// RenderTitle renders a screen title.
func RenderTitle(title string) string {
	return TitleStyle.Render(title)
}

// Disable turns every style into plain text for --no-color.
func Disable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
