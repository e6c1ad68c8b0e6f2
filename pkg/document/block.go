package document

import (
	"container/list"
	"strings"
	"unicode/utf8"

	"github.com/stateful/markedit/internal/ulid"
)

type BlockKind int

const (
	TextLineKind BlockKind = iota + 1
	CodeBlockKind
)

func (k BlockKind) String() string {
	switch k {
	case TextLineKind:
		return "TextLine"
	case CodeBlockKind:
		return "CodeBlock"
	default:
		return "Unknown"
	}
}

// Block is a single addressable unit of a Document.
// The set of implementations is closed: *TextLine and *CodeBlock.
type Block interface {
	ID() string
	Kind() BlockKind
	// Value returns the block's contribution to the canonical text.
	Value() string

	base() *blockBase
}

type Blocks []Block

func (b Blocks) CodeBlocks() (result []*CodeBlock) {
	for _, block := range b {
		if code, ok := block.(*CodeBlock); ok {
			result = append(result, code)
		}
	}
	return result
}

type blockBase struct {
	id       string
	document *Document
	element  *list.Element
}

func newBlockBase() blockBase {
	return blockBase{id: ulid.GenerateID()}
}

func (b *blockBase) ID() string { return b.id }

func (b *blockBase) base() *blockBase { return b }

// Attached reports whether the block currently belongs to a document.
func (b *blockBase) Attached() bool { return b.element != nil }

type EditState int

const (
	Rendered EditState = iota
	Editing
)

func (s EditState) String() string {
	if s == Editing {
		return "Editing"
	}
	return "Rendered"
}

// TextLine holds exactly one line of markup. RawText is authoritative;
// the display text only exists while the line is being edited.
type TextLine struct {
	blockBase

	raw      string
	state    EditState
	display  string
	rendered string
	dirty    bool // rendered is stale
}

var _ Block = (*TextLine)(nil)

func NewTextLine(raw string) *TextLine {
	return &TextLine{
		blockBase: newBlockBase(),
		raw:       raw,
		dirty:     true,
	}
}

func (TextLine) Kind() BlockKind { return TextLineKind }

func (l *TextLine) Value() string { return l.raw }

func (l *TextLine) RawText() string { return l.raw }

func (l *TextLine) State() EditState { return l.state }

// LineKind is derived from the raw text on every call.
func (l *TextLine) LineKind() LineKind { return Classify(l.raw) }

// Display returns the text currently shown by the line: the raw source
// while editing and the rendered markup otherwise.
func (l *TextLine) Display() string {
	if l.state == Editing {
		return l.display
	}
	return l.Rendered()
}

// Rendered returns the rendered form of the raw text.
func (l *TextLine) Rendered() string {
	if l.dirty {
		l.rendered = l.render(l.raw)
		l.dirty = false
	}
	return l.rendered
}

func (l *TextLine) render(raw string) string {
	if l.document != nil && l.document.renderLine != nil {
		return l.document.renderLine(raw)
	}
	return defaultLineRenderer(raw)
}

// SetDisplay replaces the displayed source of a line in the Editing
// state. It reports false for a rendered line.
func (l *TextLine) SetDisplay(text string) bool {
	if l.state != Editing {
		return false
	}
	l.display = text
	return true
}

func (l *TextLine) setRaw(text string) {
	l.raw = text
	l.dirty = true
	if l.state == Editing {
		l.display = text
	}
}

func (l *TextLine) beginEdit(caret Caret) int {
	l.display = l.raw
	l.state = Editing
	return caret.Resolve(l.display)
}

// capture copies the displayed source into the raw text without
// leaving the Editing state.
func (l *TextLine) capture() {
	if l.state != Editing {
		return
	}
	if l.raw != l.display {
		l.raw = l.display
		l.dirty = true
	}
}

func (l *TextLine) commit() {
	l.capture()
	l.state = Rendered
	l.display = ""
	l.Rendered()
}

// CodeBlock is always live-editable and has no rendered form.
type CodeBlock struct {
	blockBase

	language string
	code     string
	fence    string
}

var _ Block = (*CodeBlock)(nil)

func NewCodeBlock(language, code string) *CodeBlock {
	return &CodeBlock{
		blockBase: newBlockBase(),
		language:  strings.TrimSpace(language),
		code:      code,
		fence:     defaultFence,
	}
}

func (CodeBlock) Kind() BlockKind { return CodeBlockKind }

func (b *CodeBlock) Language() string { return b.language }

func (b *CodeBlock) SetLanguage(language string) { b.language = strings.TrimSpace(language) }

func (b *CodeBlock) Code() string { return b.code }

func (b *CodeBlock) SetCode(code string) { b.code = code }

func (b *CodeBlock) Lines() []string { return strings.Split(b.code, "\n") }

// Fence returns the opening fence used when serializing the block.
func (b *CodeBlock) Fence() string { return fenceFor(b) }

func (b *CodeBlock) Value() string {
	var sb strings.Builder
	writeCodeBlock(&sb, b)
	return sb.String()
}

// Len returns the code length in runes, the unit used for carets.
func (b *CodeBlock) Len() int { return utf8.RuneCountInString(b.code) }

type CaretPlacement int

const (
	CaretStart CaretPlacement = iota
	CaretEnd
	CaretOffset
)

// Caret describes where the caret lands when a block gains focus.
// Offsets are counted in runes.
type Caret struct {
	Placement CaretPlacement
	Offset    int
}

func CaretAt(offset int) Caret {
	return Caret{Placement: CaretOffset, Offset: offset}
}

// Resolve returns the rune offset of the caret within text,
// clamped to its bounds.
func (c Caret) Resolve(text string) int {
	length := utf8.RuneCountInString(text)
	switch c.Placement {
	case CaretEnd:
		return length
	case CaretOffset:
		return min(max(c.Offset, 0), length)
	default:
		return 0
	}
}

// SplitAt splits text at a rune offset.
func SplitAt(text string, offset int) (string, string) {
	if offset <= 0 {
		return "", text
	}
	i := 0
	for pos := range text {
		if i == offset {
			return text[:pos], text[pos:]
		}
		i++
	}
	return text, ""
}
