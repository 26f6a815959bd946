package review

import "github.com/charmbracelet/lipgloss"

var (
	cpBlue     = lipgloss.Color("#89b4fa")
	cpLavender = lipgloss.Color("#b4befe")
	cpOverlay1 = lipgloss.Color("#7f849c")
	cpSubtext0 = lipgloss.Color("#a6adc8")
	cpPeach    = lipgloss.Color("#fab387")

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(cpLavender)
	linkStyle    = lipgloss.NewStyle().Foreground(cpBlue).Faint(true)
	quotePrefix  = lipgloss.NewStyle().Foreground(cpOverlay1).Render("│ ")
	quoteText    = lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0)
	codeStyle    = lipgloss.NewStyle().Foreground(cpPeach)
)
