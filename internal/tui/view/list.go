package view

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	tuitheme "github.com/glabrego/bookreview-cli/internal/tui/theme"
)

type ReviewLineParams struct {
	Book        bookreview.Book
	Mine        bool
	ShowNumbers bool
	Position    int
	Active      bool
	Width       int
}

func RenderReviewLine(p ReviewLineParams, th tuitheme.Theme) string {
	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	prefix := fmt.Sprintf("  %s ", cursorMarker)
	if p.ShowNumbers {
		prefix = fmt.Sprintf("  %s%3d. ", cursorMarker, p.Position+1)
	}

	right := "[" + ReviewerLabel(p.Book) + "]"
	if p.Mine {
		right = th.MineBadge.Render("[mine]")
	}
	available := p.Width - visibleLen(prefix) - 1 - visibleLen(right)
	if available < 1 {
		available = 1
	}

	label := truncateRunes(TitleLabel(p.Book), available)
	styled := th.StyleReviewTitle(p.Mine, label)
	gap := p.Width - visibleLen(prefix) - visibleLen(label) - visibleLen(right)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+styled+strings.Repeat(" ", gap)+right)
}

type ListRenderInput struct {
	Books  []bookreview.Book
	Start  int
	End    int
	Cursor int

	RenderLine func(index int, active bool) string
}

func RenderListBody(in ListRenderInput) string {
	if len(in.Books) == 0 || in.Start >= in.End || in.Start < 0 {
		return ""
	}
	end := min(in.End, len(in.Books))
	var b strings.Builder
	for i := in.Start; i < end; i++ {
		b.WriteString(in.RenderLine(i, i == in.Cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func TitleLabel(book bookreview.Book) string {
	title := strings.TrimSpace(book.Title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func ReviewerLabel(book bookreview.Book) string {
	if r := strings.TrimSpace(book.Reviewer); r != "" {
		return r
	}
	return "anonymous"
}

// PageLabel describes the feed window, e.g. "page 2 (11-20)".
func PageLabel(page, offset, shown int, hasMore bool) string {
	if shown == 0 {
		return fmt.Sprintf("page %d (empty)", page)
	}
	label := fmt.Sprintf("page %d (%d-%d)", page, offset+1, offset+shown)
	if hasMore {
		label += " +"
	}
	return label
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return lipgloss.Width(s)
}
