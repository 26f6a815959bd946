// Package review turns review text into wrapped terminal lines. Bodies may
// be plain text or a small HTML fragment.
package review

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/glabrego/bookreview-cli/internal/bookreview"
)

var (
	reHTTPURL = regexp.MustCompile(`https?://[^\s)]+`)
	reHTMLTag = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*[^<>]*>`)
)

type Options struct {
	StyleLinks bool
}

var DefaultOptions = Options{StyleLinks: true}

type renderer struct {
	width int
	opts  Options
}

// BookLines renders the detail and review sections of a book.
func BookLines(book bookreview.Book, width int) []string {
	return BookLinesWithOptions(book, width, DefaultOptions)
}

func BookLinesWithOptions(book bookreview.Book, width int, opts Options) []string {
	sections := []struct {
		title string
		body  string
	}{
		{title: "Detail", body: book.Detail},
		{title: "Review", body: book.Review},
	}
	out := make([]string, 0, 16)
	for _, s := range sections {
		lines := LinesWithOptions(s.body, width, opts)
		if len(lines) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, sectionStyle.Render(s.title))
		out = append(out, lines...)
	}
	return out
}

func Lines(text string, width int) []string {
	return LinesWithOptions(text, width, DefaultOptions)
}

func LinesWithOptions(text string, width int, opts Options) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	var lines []string
	if looksLikeHTML(text) {
		lines = renderFragment(text, width, opts)
	}
	if len(lines) == 0 {
		lines = wrapText(html.UnescapeString(text), width)
	}
	lines = trimBlankLines(lines)
	if opts.StyleLinks {
		lines = styleLinks(lines)
	}
	return lines
}

// PlainText flattens text to a single unstyled string.
func PlainText(text string) string {
	lines := LinesWithOptions(text, 0, Options{})
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Excerpt returns the first n runes of the plain text, with an ellipsis when cut.
func Excerpt(text string, n int) string {
	plain := strings.Join(strings.Fields(PlainText(text)), " ")
	runes := []rune(plain)
	if n <= 0 || len(runes) <= n {
		return plain
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

func looksLikeHTML(text string) bool {
	return reHTMLTag.MatchString(text)
}

func renderFragment(raw string, width int, opts Options) []string {
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return nil
	}
	body := findBodyNode(doc)
	if body == nil {
		return nil
	}
	r := renderer{width: max(1, width), opts: opts}
	if width < 1 {
		r.width = 1 << 16
	}
	return r.renderNodes(elementChildren(body))
}

func styleLinks(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = reHTTPURL.ReplaceAllStringFunc(line, func(u string) string {
			return linkStyle.Render(u)
		})
	}
	return out
}

func trimBlankLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}

// Wrap wraps plain text without interpreting markup.
func Wrap(text string, width int) []string {
	return wrapText(text, width)
}

// wrapText wraps on word boundaries, splitting words longer than width.
func wrapText(text string, width int) []string {
	if width < 1 {
		return strings.Split(text, "\n")
	}
	out := make([]string, 0, 8)
	for _, p := range strings.Split(text, "\n") {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := []rune{}
		for _, word := range words {
			w := []rune(word)
			for len(w) > width {
				if len(line) > 0 {
					out = append(out, string(line))
					line = line[:0]
				}
				out = append(out, string(w[:width]))
				w = w[width:]
			}
			switch {
			case len(line) == 0:
				line = append(line, w...)
			case len(line)+1+len(w) <= width:
				line = append(line, ' ')
				line = append(line, w...)
			default:
				out = append(out, string(line))
				line = append(line[:0], w...)
			}
		}
		if len(line) > 0 {
			out = append(out, string(line))
		}
	}
	return out
}
