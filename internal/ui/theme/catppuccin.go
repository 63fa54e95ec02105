package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Overlay0 = lipgloss.Color("#6c7086")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	App = lipgloss.NewStyle().
		Background(Base).
		Foreground(Text).
		Padding(0, 1)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(1)

	PaneActive = Pane.BorderForeground(Lavender)

	// Card frames one thumbnail in the grid.
	Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Foreground(Text)

	CardActive = Card.BorderForeground(Lavender)

	TopBar = lipgloss.NewStyle().
		Background(Surface0).
		Foreground(Text).
		Bold(true).
		Padding(0, 1)

	Banner = lipgloss.NewStyle().
		Foreground(Base).
		Background(Peach).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Faint = lipgloss.NewStyle().Foreground(Overlay0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Error = lipgloss.NewStyle().Foreground(Red)
)

// Fade picks a foreground for content entering or leaving the screen;
// progress 0 is hidden and 1 fully shown.
func Fade(progress float64) lipgloss.Style {
	switch {
	case progress < 0.34:
		return lipgloss.NewStyle().Foreground(Surface1)
	case progress < 0.67:
		return lipgloss.NewStyle().Foreground(Overlay0)
	case progress < 1:
		return lipgloss.NewStyle().Foreground(Subtext0)
	default:
		return lipgloss.NewStyle().Foreground(Text)
	}
}
