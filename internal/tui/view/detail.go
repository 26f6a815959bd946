package view

import (
	"strings"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
)

type WrapFunc func(string, int) []string

func DetailMetaLines(book bookreview.Book, mine bool, width int, wrap WrapFunc) []string {
	title := TitleLabel(book)
	lines := make([]string, 0, 8)
	lines = append(lines, wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, visibleLen(title)))))
	lines = append(lines, "")

	lines = append(lines, wrap("Reviewer: "+ReviewerLabel(book), width)...)
	if mine {
		lines = append(lines, "Yours: yes")
	}
	if book.URL != "" {
		lines = append(lines, wrap("URL: "+book.URL, width)...)
	}
	return lines
}
