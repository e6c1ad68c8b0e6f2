package cmark

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/markedit/pkg/document"
)

// richElements are the tags whose presence marks input as rich markup.
var richElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Span: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Strong: true, atom.B: true, atom.Em: true, atom.I: true,
	atom.Del: true, atom.S: true, atom.Strike: true,
	atom.A: true, atom.Img: true, atom.Code: true, atom.Pre: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Blockquote: true,
	atom.Table: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Html: true, atom.Body: true,
}

// IsRichMarkup reports whether src looks like rich markup rather than
// structured markup. Tags inside fenced code and inline code spans do
// not count, and ambiguous input is treated as structured markup.
func IsRichMarkup(src string) bool {
	if !strings.Contains(src, "<") {
		return false
	}

	var sb strings.Builder
	for _, b := range document.ParseBlocks(src) {
		if line, ok := b.(*document.TextLine); ok {
			_, _ = sb.WriteString(stripCodeSpans(line.RawText()))
			_ = sb.WriteByte('\n')
		}
	}

	z := html.NewTokenizer(strings.NewReader(sb.String()))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if richElements[atom.Lookup(name)] {
				return true
			}
		}
	}
}

func stripCodeSpans(line string) string {
	var sb strings.Builder
	inCode := false
	for _, r := range line {
		if r == '`' {
			inCode = !inCode
			continue
		}
		if !inCode {
			_, _ = sb.WriteRune(r)
		}
	}
	return sb.String()
}
