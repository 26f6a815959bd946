package view

import (
	"strings"

	tuitheme "github.com/glabrego/bookreview-cli/internal/tui/theme"
)

type FormField struct {
	Label  string
	Value  string
	Secret bool
	Error  string
}

// FormLines renders a vertical form. The focused field shows a cursor.
func FormLines(title string, fields []FormField, focus int, formErr string, width int, th tuitheme.Theme) []string {
	lines := make([]string, 0, len(fields)*3+4)
	lines = append(lines, th.Section.Render(title), "")

	labelWidth := 0
	for _, f := range fields {
		labelWidth = max(labelWidth, visibleLen(f.Label))
	}
	valueWidth := max(1, width-labelWidth-4)

	for i, f := range fields {
		value := f.Value
		if f.Secret {
			value = strings.Repeat("*", len([]rune(value)))
		}
		value = tailRunes(value, valueWidth-1)

		label := th.FieldLabel.Render(f.Label + strings.Repeat(" ", labelWidth-visibleLen(f.Label)))
		marker := " "
		if i == focus {
			marker = ">"
			value = th.FieldActive.Render(value + "_")
		}
		lines = append(lines, marker+" "+label+"  "+value)
		if f.Error != "" {
			lines = append(lines, strings.Repeat(" ", labelWidth+4)+th.FieldError.Render(f.Error))
		}
	}
	if formErr != "" {
		lines = append(lines, "", th.FieldError.Render(formErr))
	}
	return lines
}

// tailRunes keeps the end of s visible while typing past the field width.
func tailRunes(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	return "…" + string(runes[len(runes)-maxLen+1:])
}
