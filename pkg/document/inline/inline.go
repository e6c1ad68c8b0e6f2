// Package inline renders a single line of markup into an HTML fragment.
//
// Rendering is a fixed chain of substitutions over escaped text, not a
// tokenizer. Code spans are pulled out before emphasis so that markers
// inside them stay literal; other overlapping markers render the way
// the substitution order dictates.
package inline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/stateful/markedit/pkg/document"
)

type substitution struct {
	re   *regexp.Regexp
	repl func(m []string) string
}

var (
	codeSpanRe = regexp.MustCompile("`([^`]+)`")

	// Applied in order after code spans have been extracted.
	substitutions = []substitution{
		{
			re:   regexp.MustCompile(`\*\*\*(.+?)\*\*\*`),
			repl: func(m []string) string { return "<strong><em>" + m[1] + "</em></strong>" },
		},
		{
			re:   regexp.MustCompile(`\*\*(.+?)\*\*`),
			repl: func(m []string) string { return "<strong>" + m[1] + "</strong>" },
		},
		{
			re:   regexp.MustCompile(`\*(.+?)\*`),
			repl: func(m []string) string { return "<em>" + m[1] + "</em>" },
		},
		{
			re:   regexp.MustCompile(`~~(.+?)~~`),
			repl: func(m []string) string { return "<del>" + m[1] + "</del>" },
		},
		{
			re: regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`),
			repl: func(m []string) string {
				return `<img src="` + safeURL(m[2]) + `" alt="` + m[1] + `">`
			},
		},
		{
			re: regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`),
			repl: func(m []string) string {
				return `<a href="` + safeURL(m[2]) + `">` + m[1] + `</a>`
			},
		},
	}

	// placeholderRe matches the markers code spans are swapped for.
	placeholderRe = regexp.MustCompile("\x00(\\d+)\x00")
)

// Render escapes text and applies inline substitutions. It never fails.
func Render(text string) string {
	// NUL delimits placeholders; it has no business in markup anyway.
	text = strings.ReplaceAll(text, "\x00", "�")
	text = html.EscapeString(text)

	var spans []string
	text = codeSpanRe.ReplaceAllStringFunc(text, func(s string) string {
		m := codeSpanRe.FindStringSubmatch(s)
		spans = append(spans, "<code>"+m[1]+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	for _, sub := range substitutions {
		text = replaceAll(sub.re, text, sub.repl)
	}

	if len(spans) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(s string) string {
		idx, _ := strconv.Atoi(s[1 : len(s)-1])
		return spans[idx]
	})
}

func replaceAll(re *regexp.Regexp, text string, repl func([]string) string) string {
	return re.ReplaceAllStringFunc(text, func(s string) string {
		return repl(re.FindStringSubmatch(s))
	})
}

var rasterDataURLRe = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp);`)

// safeURL neutralizes script-bearing URLs. Data URLs are only kept for
// raster images.
func safeURL(u string) string {
	lower := strings.ToLower(strings.TrimSpace(u))
	switch {
	case strings.HasPrefix(lower, "javascript:"), strings.HasPrefix(lower, "vbscript:"):
		return "#"
	case strings.HasPrefix(lower, "data:") && !rasterDataURLRe.MatchString(lower):
		return "#"
	}
	return u
}

// RenderLine renders one raw line: the block-level prefix selects the
// wrapping element and the remaining content goes through Render.
func RenderLine(raw string) string {
	line := document.ParseLine(raw)

	switch line.Kind {
	case document.LineHeading1, document.LineHeading2, document.LineHeading3,
		document.LineHeading4, document.LineHeading5, document.LineHeading6:
		level := line.Kind.HeadingLevel()
		return fmt.Sprintf("<h%d>%s</h%d>", level, Render(line.Content), level)
	case document.LineHorizontalRule:
		return "<hr>"
	case document.LineBlockquote:
		return "<blockquote>" + Render(line.Content) + "</blockquote>"
	case document.LineBulletItem:
		return "<ul><li>" + Render(line.Content) + "</li></ul>"
	case document.LineNumberedItem:
		return fmt.Sprintf(`<ol start="%d"><li>%s</li></ol>`, line.Number, Render(line.Content))
	case document.LineEmpty:
		return "<br>"
	default:
		return "<p>" + Render(line.Content) + "</p>"
	}
}
