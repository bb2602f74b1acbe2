package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Browser styles.
var (
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)

	Selected   = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	Unselected = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	Counts     = lipgloss.NewStyle().Foreground(lipgloss.Color(Muted))

	BlockLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(charmtone.Malibu.Hex()))
	Edge       = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Guac.Hex()))

	Menu = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1)
)
