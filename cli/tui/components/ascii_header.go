package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/sistemabuses/busadmin/cli/tui/styles"
)

// RenderBanner renders the application name as ASCII art. Narrow
// terminals get the plain title instead.
func RenderBanner(width int) string {
	art := figure.NewFigure("BUSES", "small", true).String()
	if width > 0 && lipgloss.Width(art) > width {
		return styles.RenderTitle("Sistema de Buses")
	}
	return styles.TitleStyle.Render(art)
}
