package document

import (
	"strings"
)

// Canonicalize serializes the document into its canonical text. A line
// still in the Editing state has its display text captured first.
// As long as no text line holds a line break or a fence opener, the
// result parses back into a document that canonicalizes to the same
// string.
func Canonicalize(d *Document) string {
	d.Capture()

	var sb strings.Builder
	for e := d.blocks.Front(); e != nil; e = e.Next() {
		if e != d.blocks.Front() {
			_ = sb.WriteByte('\n')
		}
		switch block := e.Value.(type) {
		case *TextLine:
			_, _ = sb.WriteString(block.raw)
		case *CodeBlock:
			writeCodeBlock(&sb, block)
		}
	}
	return sb.String()
}

func (d *Document) String() string {
	return Canonicalize(d)
}

func writeCodeBlock(sb *strings.Builder, b *CodeBlock) {
	fence := fenceFor(b)

	_, _ = sb.WriteString(fence)
	_, _ = sb.WriteString(b.language)
	_ = sb.WriteByte('\n')
	_, _ = sb.WriteString(b.code)
	_ = sb.WriteByte('\n')
	_, _ = sb.WriteString(fence)
}

// fenceFor returns the block's recorded fence if no code line would
// close it early, otherwise a longer one.
func fenceFor(b *CodeBlock) string {
	fence := b.fence
	if fence == "" {
		fence = defaultFence
	}

	char := fence[0]
	if char == '`' && strings.Contains(b.language, "`") {
		char = '~'
		fence = strings.Repeat("~", len(fence))
	}

	longest := 0
	for _, line := range b.Lines() {
		if closesFence(line, fence) {
			longest = max(longest, leadingRun(line, char))
		}
	}
	if longest >= len(fence) {
		fence = strings.Repeat(string(char), longest+1)
	}
	return fence
}

func leadingRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
