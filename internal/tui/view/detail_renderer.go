package view

import (
	"strings"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/render/review"
)

type InlineImagePreviewState struct {
	Enabled bool
	Loading bool
	Raw     string
	Err     string
}

func DetailLines(
	book bookreview.Book,
	mine bool,
	contentWidth int,
	horizontalMargin int,
	opts review.Options,
	wrap WrapFunc,
) []string {
	lines := DetailMetaLines(book, mine, contentWidth, wrap)
	body := review.BookLinesWithOptions(book, contentWidth, opts)
	if len(body) > 0 {
		lines = append(lines, "")
		lines = append(lines, body...)
	}
	return leftPadLines(lines, horizontalMargin)
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

func RenderDetailLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}

// PreviewLines turns a preview state into displayable lines.
func PreviewLines(preview InlineImagePreviewState, contentWidth int) []string {
	if !preview.Enabled {
		return nil
	}
	if preview.Loading {
		return []string{"Loading image preview..."}
	}
	if raw := strings.TrimRight(preview.Raw, "\r\n"); strings.TrimSpace(raw) != "" {
		if ContainsKittyGraphicsEscape(raw) {
			return []string{raw}
		}
		return centerLines(strings.Split(raw, "\n"), contentWidth)
	}
	if errMsg := strings.TrimSpace(preview.Err); errMsg != "" {
		return []string{"Image preview unavailable: " + errMsg}
	}
	return nil
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 || len(lines) == 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, len(lines))
	for i, line := range lines {
		if ContainsKittyGraphicsEscape(line) {
			out[i] = line
			continue
		}
		out[i] = prefix + line
	}
	return out
}

func centerLines(lines []string, width int) []string {
	if width <= 0 || len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		visible := visibleLen(line)
		if visible >= width {
			out[i] = line
			continue
		}
		out[i] = strings.Repeat(" ", (width-visible)/2) + line
	}
	return out
}
