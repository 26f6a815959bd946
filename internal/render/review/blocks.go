package review

import (
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
)

func (r renderer) renderNodes(nodes []*nethtml.Node) []string {
	lines := make([]string, 0, len(nodes)*2)
	inline := make([]string, 0, 4)
	appendBlock := func(block []string) {
		if len(block) == 0 {
			return
		}
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, block...)
	}
	flush := func() {
		text := normalizeInlineText(strings.Join(inline, " "))
		inline = inline[:0]
		if text != "" {
			appendBlock(wrapText(text, r.width))
		}
	}

	for _, node := range nodes {
		switch node.Type {
		case nethtml.TextNode:
			inline = append(inline, node.Data)
		case nethtml.ElementNode:
			if isBlockElement(node.Data) {
				flush()
				appendBlock(r.renderBlock(node))
				continue
			}
			inline = append(inline, r.renderInline(node))
		}
	}
	flush()
	return trimBlankLines(lines)
}

func (r renderer) renderBlock(node *nethtml.Node) []string {
	switch strings.ToLower(node.Data) {
	case "script", "style", "noscript", "img":
		return nil
	case "ul", "ol":
		return r.renderList(node, strings.EqualFold(node.Data, "ol"))
	case "blockquote":
		inner := r.renderNodes(elementChildren(node))
		out := make([]string, 0, len(inner))
		for _, line := range inner {
			if strings.TrimSpace(line) == "" {
				out = append(out, "")
				continue
			}
			out = append(out, quotePrefix+quoteText.Render(line))
		}
		return out
	case "pre":
		text := strings.TrimRight(collectRawText(node), "\n")
		out := make([]string, 0, 4)
		for _, line := range strings.Split(text, "\n") {
			out = append(out, "    "+strings.TrimRight(line, " \t"))
		}
		return out
	case "hr":
		return []string{strings.Repeat("-", min(max(r.width, 3), 24))}
	default:
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == nethtml.ElementNode && isBlockElement(child.Data) {
				return r.renderNodes(elementChildren(node))
			}
		}
		return wrapText(normalizeInlineText(r.renderInlineChildren(node)), r.width)
	}
}

func (r renderer) renderList(node *nethtml.Node, ordered bool) []string {
	lines := make([]string, 0, 8)
	n := 0
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != nethtml.ElementNode || !strings.EqualFold(child.Data, "li") {
			continue
		}
		n++
		marker := "• "
		if ordered {
			marker = fmt.Sprintf("%d. ", n)
		}
		text := normalizeInlineText(r.renderInlineChildren(child))
		if text == "" {
			continue
		}
		pad := strings.Repeat(" ", len([]rune(marker)))
		for i, line := range wrapText(text, max(1, r.width-len([]rune(marker)))) {
			if i == 0 {
				lines = append(lines, marker+line)
				continue
			}
			lines = append(lines, pad+line)
		}
	}
	return lines
}

func (r renderer) renderInlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		parts = append(parts, r.renderInline(child))
	}
	return strings.Join(parts, " ")
}

func (r renderer) renderInline(node *nethtml.Node) string {
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
	default:
		return ""
	}
	switch strings.ToLower(node.Data) {
	case "script", "style", "noscript", "img":
		return ""
	case "br":
		return "\n"
	case "a":
		text := normalizeInlineText(r.renderInlineChildren(node))
		href := nodeAttr(node, "href")
		switch {
		case href == "":
			return text
		case text == "" || strings.EqualFold(text, href):
			return href
		default:
			return text + " (" + href + ")"
		}
	case "code", "kbd":
		text := normalizeInlineText(r.renderInlineChildren(node))
		if text == "" || !r.opts.StyleLinks {
			return text
		}
		return codeStyle.Render(text)
	default:
		return r.renderInlineChildren(node)
	}
}

func normalizeInlineText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.NewReplacer(
		" .", ".",
		" ,", ",",
		" !", "!",
		" ?", "?",
		" )", ")",
		"( ", "(",
	).Replace(strings.Join(out, "\n"))
}

func isBlockElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "blockquote", "ul", "ol", "li",
		"pre", "hr", "h1", "h2", "h3", "h4", "h5", "h6", "img", "script", "style":
		return true
	default:
		return false
	}
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func elementChildren(node *nethtml.Node) []*nethtml.Node {
	children := make([]*nethtml.Node, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func collectRawText(node *nethtml.Node) string {
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(collectRawText(child))
	}
	return b.String()
}
