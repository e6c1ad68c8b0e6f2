package document

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	doc := New()
	first := NewTextLine("Before")
	doc.Replace(doc.First(), first)
	code := NewCodeBlock("go", "fmt.Println(1)")
	doc.InsertAfter(first, code)
	doc.InsertAfter(code, NewTextLine("After"))

	assert.Equal(t, "Before\n```go\nfmt.Println(1)\n```\nAfter", Canonicalize(doc))
}

func TestCanonicalize_CapturesEditingLine(t *testing.T) {
	doc := Parse("a\nb")
	line := doc.Last().(*TextLine)
	doc.Focus(line, Caret{Placement: CaretEnd})
	line.SetDisplay("b, edited")

	assert.Equal(t, "a\nb, edited", Canonicalize(doc))
	// Capturing does not leave the Editing state.
	assert.Equal(t, Editing, line.State())
}

func TestCanonicalize_EmptyCode(t *testing.T) {
	doc := Parse("```sh\n```")
	assert.Equal(t, "```sh\n\n```", Canonicalize(doc))
	assert.Equal(t, "```sh\n\n```", Canonicalize(Parse(Canonicalize(doc))))
}

func TestCanonicalize_GrowsFence(t *testing.T) {
	block := NewCodeBlock("md", "before\n```\nafter")
	assert.Equal(t, "````", block.Fence())
	assert.Equal(t, "````md\nbefore\n```\nafter\n````", block.Value())

	doc := Parse(block.Value())
	code := doc.Blocks().CodeBlocks()
	require.Len(t, code, 1)
	assert.Equal(t, "before\n```\nafter", code[0].Code())
}

func TestCanonicalize_LanguageWithBacktick(t *testing.T) {
	block := NewCodeBlock("a`b", "x")
	assert.Equal(t, "~~~a`b\nx\n~~~", block.Value())
	code := Parse(block.Value()).Blocks().CodeBlocks()
	require.Len(t, code, 1)
	assert.Equal(t, "a`b", code[0].Language())
}

func TestCanonicalize_RoundTrip(t *testing.T) {
	sources := []string{
		"",
		"\n",
		"# Title\n\nSome *text*.\n",
		"```py\nline1\nline2",
		"a\n```\n\n\n```\nb",
		"~~~~\n~~~\n```\n~~~~",
		"> quote\n- item\n1. one\n---",
	}
	for _, source := range sources {
		first := Canonicalize(Parse(source))
		second := Canonicalize(Parse(first))
		assert.Equal(t, first, second, "source %q", source)
	}
}

// randomDocument builds documents from the pieces a user can produce:
// lines without breaks or fence openers and code blocks with any content.
func randomDocument(rng *rand.Rand) *Document {
	words := []string{"", "a", "# h", "- x", "> q", "1. n", "---", "*e*", "`c`", "```", "~~~", "````x", " ", "ü"}
	doc := New()
	first := doc.First()
	var last Block = first

	n := rng.Intn(8) + 1
	for i := 0; i < n; i++ {
		var block Block
		if rng.Intn(3) == 0 {
			var lines []string
			for j := rng.Intn(4); j >= 0; j-- {
				lines = append(lines, words[rng.Intn(len(words))])
			}
			block = NewCodeBlock(words[rng.Intn(4)], strings.Join(lines, "\n"))
		} else {
			text := words[rng.Intn(len(words))] + words[rng.Intn(len(words))]
			if _, _, ok := IsFenceOpen(text); ok {
				text = "x" + text
			}
			block = NewTextLine(text)
		}
		doc.InsertAfter(last, block)
		last = block
	}
	doc.Remove(first)
	return doc
}

func TestCanonicalize_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		doc := randomDocument(rng)
		canonical := Canonicalize(doc)
		reparsed := Parse(canonical)
		require.Equal(t, canonical, Canonicalize(reparsed), "iteration %d", i)
		require.Len(t, reparsed.Blocks().CodeBlocks(), len(doc.Blocks().CodeBlocks()), "iteration %d", i)
	}
}
