package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Section    lipgloss.Style
	PageCount  lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	TitleMine  lipgloss.Style
	TitleOther lipgloss.Style
	MineBadge  lipgloss.Style

	FieldLabel  lipgloss.Style
	FieldActive lipgloss.Style
	FieldError  lipgloss.Style
	Prompt      lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		PageCount:  lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),

		TitleMine:  lipgloss.NewStyle().Bold(true).Foreground(cpText),
		TitleOther: lipgloss.NewStyle().Foreground(cpSubtext0),
		MineBadge:  lipgloss.NewStyle().Italic(true).Foreground(cpLavender),

		FieldLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		FieldActive: lipgloss.NewStyle().Foreground(cpText).Underline(true),
		FieldError:  lipgloss.NewStyle().Foreground(cpRed),
		Prompt:      lipgloss.NewStyle().Bold(true).Foreground(cpPeach),
	}
}

// StyleReviewTitle renders the viewer's own reviews more prominently.
func (t Theme) StyleReviewTitle(mine bool, title string) string {
	if title == "" {
		return title
	}
	if mine {
		return t.TitleMine.Render(title)
	}
	return t.TitleOther.Render(title)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
