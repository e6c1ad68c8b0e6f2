// Package cmark converts rich markup (an HTML tree, as produced by a
// paste or an external load) into the structured markup dialect used
// by documents.
package cmark

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/markedit/pkg/document"
)

// Render converts an HTML tree into canonical markup. Unknown elements
// contribute the conversion of their children, so text is never lost.
func Render(root *html.Node, opts ...Option) string {
	r := newRenderer(opts...)
	return postProcess(r.node(root))
}

// RenderString parses src as HTML and converts it. Parse failures are
// reported with src returned unchanged.
func RenderString(src string, opts ...Option) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src, errors.Wrap(err, "failed to parse rich markup")
	}
	return Render(root, opts...), nil
}

type Option func(*renderer)

func WithLogger(logger *zap.Logger) Option {
	return func(r *renderer) {
		r.logger = logger
	}
}

type renderer struct {
	logger *zap.Logger
}

func newRenderer(opts ...Option) *renderer {
	r := &renderer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

func (r *renderer) node(n *html.Node) string {
	switch n.Type {
	case html.DocumentNode:
		return r.children(n)
	case html.ElementNode:
		return r.element(n)
	case html.TextNode:
		return collapseText(n.Data)
	default:
		// Comments and doctypes carry no content.
		return ""
	}
}

func (r *renderer) children(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_, _ = sb.WriteString(r.node(c))
	}
	return sb.String()
}

func (r *renderer) element(n *html.Node) string {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		return block(strings.Repeat("#", level) + " " + singleLine(r.children(n)))

	case atom.P:
		return block(strings.TrimSpace(r.children(n)))

	case atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Nav, atom.Aside, atom.Figure:
		return "\n" + r.children(n) + "\n"

	case atom.Strong, atom.B:
		return wrapInline(r.children(n), "**")

	case atom.Em, atom.I:
		return wrapInline(r.children(n), "*")

	case atom.Del, atom.S, atom.Strike:
		return wrapInline(r.children(n), "~~")

	case atom.Code:
		return "`" + textContent(n) + "`"

	case atom.A:
		text := r.children(n)
		href := attr(n, "href")
		if href == "" {
			return text
		}
		return "[" + strings.TrimSpace(text) + "](" + href + ")"

	case atom.Img:
		return "![" + attr(n, "alt") + "](" + attr(n, "src") + ")"

	case atom.Br:
		return "\n"

	case atom.Hr:
		return block("---")

	case atom.Blockquote:
		return block(prefixLines(strings.TrimSpace(normalizeBlankLines(r.children(n))), "> "))

	case atom.Ul, atom.Ol:
		return block(r.list(n))

	case atom.Li:
		return r.children(n) + "\n"

	case atom.Pre:
		return block(r.pre(n))

	case atom.Table:
		return block(r.table(n))

	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript:
		r.logger.Debug("skipping non-content element", zap.String("element", n.Data))
		return ""

	default:
		return r.children(n)
	}
}

func (r *renderer) list(n *html.Node) string {
	ordered := n.DataAtom == atom.Ol
	index := 1
	if start, err := strconv.Atoi(attr(n, "start")); err == nil && ordered {
		index = start
	}

	var items []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}

		marker := "- "
		if ordered {
			marker = strconv.Itoa(index) + ". "
			index++
		}

		content := strings.TrimSpace(normalizeBlankLines(r.children(c)))
		var lines []string
		for i, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if i == 0 {
				lines = append(lines, marker+line)
			} else {
				lines = append(lines, strings.Repeat(" ", len(marker))+line)
			}
		}
		if len(lines) == 0 {
			lines = append(lines, strings.TrimRight(marker, " "))
		}
		items = append(items, strings.Join(lines, "\n"))
	}
	return strings.Join(items, "\n")
}

var languageClassRe = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([\w+#.-]+)`)

func (r *renderer) pre(n *html.Node) string {
	language := ""
	for _, node := range []*html.Node{n, firstElement(n, atom.Code)} {
		if node == nil {
			continue
		}
		if m := languageClassRe.FindStringSubmatch(attr(node, "class")); m != nil {
			language = m[1]
			break
		}
		if lang := attr(node, "data-lang"); lang != "" {
			language = lang
			break
		}
	}

	code := strings.TrimSuffix(textContent(n), "\n")

	block := document.NewCodeBlock(language, code)
	return block.Value()
}

func (r *renderer) table(n *html.Node) string {
	var rows [][]string
	walkRows(n, func(tr *html.Node) {
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cell := singleLine(r.children(c))
				cells = append(cells, strings.ReplaceAll(cell, "|", `\|`))
			}
		}
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return ""
	}

	columns := len(rows[0])
	for _, row := range rows {
		columns = max(columns, len(row))
	}
	if columns == 0 {
		return ""
	}

	separator := make([]string, columns)
	for i := range separator {
		separator[i] = "---"
	}

	lines := []string{tableRow(rows[0], columns), tableRow(separator, columns)}
	for _, row := range rows[1:] {
		lines = append(lines, tableRow(row, columns))
	}
	return strings.Join(lines, "\n")
}

func walkRows(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			fn(c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			walkRows(c, fn)
		}
	}
}

func tableRow(cells []string, columns int) string {
	padded := make([]string, columns)
	copy(padded, cells)
	return "| " + strings.Join(padded, " | ") + " |"
}

// block surrounds content with blank lines; postProcess collapses the
// excess between neighbours.
func block(content string) string {
	if content == "" {
		return ""
	}
	return "\n\n" + content + "\n\n"
}

// wrapInline wraps the trimmed content in marker, keeping the
// surrounding whitespace outside of it.
func wrapInline(content, marker string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return content
	}
	lead := content[:strings.Index(content, trimmed)]
	trail := content[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}

func prefixLines(content, prefix string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

var whitespaceRe = regexp.MustCompile(`[ \t\r\n\f]+`)

// collapseText applies HTML whitespace rules: runs collapse to a single
// space and whitespace-only text spanning a line break is dropped.
func collapseText(s string) string {
	if strings.TrimSpace(s) == "" && strings.ContainsAny(s, "\r\n") {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}

func singleLine(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			_ = sb.WriteByte('\n')
			continue
		}
		_, _ = sb.WriteString(textContent(c))
	}
	return sb.String()
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// normalizeBlankLines blanks whitespace-only lines and collapses runs
// of blank lines outside fenced code into a single blank line.
func normalizeBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))

	var fence string
	blank := 0
	for _, line := range lines {
		if fence != "" {
			result = append(result, line)
			if strings.HasPrefix(line, fence) && strings.TrimSpace(strings.TrimLeft(line, fence[:1])) == "" {
				fence = ""
			}
			continue
		}
		if f, _, ok := document.IsFenceOpen(line); ok {
			fence = f
			blank = 0
			result = append(result, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			result = append(result, "")
			continue
		}
		blank = 0
		result = append(result, strings.TrimRight(line, " \t"))
	}
	return strings.Join(result, "\n")
}

func postProcess(s string) string {
	return strings.TrimSpace(normalizeBlankLines(s))
}
