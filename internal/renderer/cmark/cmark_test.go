package cmark_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/stateful/markedit/internal/renderer/cmark"
)

func testConversion(t *testing.T, src, expected string) {
	t.Helper()
	result, err := cmark.RenderString(src)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestRender_Headings(t *testing.T) {
	testConversion(t, "<h1>Title</h1><h3>Sub <em>title</em></h3>", "# Title\n\n### Sub *title*")
}

func TestRender_InlineStyles(t *testing.T) {
	testConversion(
		t,
		`<p>Some <strong>bold</strong>, <b>b</b>, <i>it</i>, <s>old</s> and <code>x*y</code>.</p>`,
		"Some **bold**, **b**, *it*, ~~old~~ and `x*y`.",
	)
}

func TestRender_InlineWhitespaceStaysOutsideMarkers(t *testing.T) {
	testConversion(t, "<p>a<strong> b </strong>c</p>", "a **b** c")
}

func TestRender_LinksAndImages(t *testing.T) {
	testConversion(
		t,
		`<p><a href="https://example.com">site</a> <img src="/logo.png" alt="logo"> <a>bare</a></p>`,
		"[site](https://example.com) ![logo](/logo.png) bare",
	)
}

func TestRender_LineBreakAndRule(t *testing.T) {
	testConversion(t, "<p>one<br>two</p><hr><p>three</p>", "one\ntwo\n\n---\n\nthree")
}

func TestRender_Blockquote(t *testing.T) {
	// Trailing whitespace is trimmed from the quoted blank line.
	testConversion(t, "<blockquote><p>first</p><p>second</p></blockquote>", "> first\n>\n> second")
}

func TestRender_Lists(t *testing.T) {
	testConversion(
		t,
		"<ul>\n  <li>one</li>\n  <li>two<ul><li>nested</li></ul></li>\n</ul><ol><li>a</li><li><p>b</p></li></ol>",
		"- one\n- two\n  - nested\n\n1. a\n2. b",
	)
}

func TestRender_OrderedListStart(t *testing.T) {
	testConversion(t, `<ol start="4"><li>four</li><li>five</li></ol>`, "4. four\n5. five")
}

func TestRender_Pre(t *testing.T) {
	testConversion(
		t,
		"<pre><code class=\"language-go\">func main() {\n\tfmt.Println(\"&lt;hi&gt;\")\n}\n</code></pre>",
		"```go\nfunc main() {\n\tfmt.Println(\"<hi>\")\n}\n```",
	)
}

func TestRender_PreKeepsBlankLines(t *testing.T) {
	testConversion(t, "<pre>a\n\n\n\nb</pre>", "```\na\n\n\n\nb\n```")
}

func TestRender_PreWithFenceInside(t *testing.T) {
	testConversion(t, "<pre class=\"lang-md\">```\nx\n```</pre>", "````md\n```\nx\n```\n````")
}

func TestRender_Table(t *testing.T) {
	testConversion(
		t,
		`<table>
<thead><tr><th>Name</th><th>Value</th></tr></thead>
<tbody>
<tr><td>a</td><td>1 | 2</td></tr>
<tr><td>b</td></tr>
</tbody>
</table>`,
		"| Name | Value |\n| --- | --- |\n| a | 1 \\| 2 |\n| b |  |",
	)
}

func TestRender_UnknownElementsKeepContent(t *testing.T) {
	testConversion(t, "<custom-tag>inner <span>text</span></custom-tag>", "inner text")
}

func TestRender_SkipsNonContent(t *testing.T) {
	testConversion(t, "<html><head><title>t</title><style>p{}</style></head><body><p>body</p><script>x()</script></body></html>", "body")
}

func TestRender_CollapsesBlankLines(t *testing.T) {
	testConversion(t, "<p>a</p>\n\n\n<div></div><div></div>\n\n<p>b</p>", "a\n\nb")
}

func TestRender_Node(t *testing.T) {
	root, err := html.Parse(strings.NewReader("<p>x</p>"))
	require.NoError(t, err)
	assert.Equal(t, "x", cmark.Render(root))
}

func TestIsRichMarkup(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{"plain", "# Title\n\ntext", false},
		{"paragraph", "<p>text</p>", true},
		{"inline", "before <strong>bold</strong>", true},
		{"autolink", "<https://example.com>", false},
		{"comparison", "a < b and c > d", false},
		{"fenced html", "```html\n<div>x</div>\n```", false},
		{"code span", "use `<br>` here", false},
		{"unknown tag", "<custom>x</custom>", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cmark.IsRichMarkup(tc.input))
		})
	}
}
