package document

import (
	"container/list"

	"golang.org/x/net/html"
)

// LineRenderer produces the rendered form of one raw line.
type LineRenderer func(raw string) string

func defaultLineRenderer(raw string) string {
	return html.EscapeString(raw)
}

// Document is an ordered sequence of blocks. Blocks must only be
// referenced while attached; operating on a detached block is a
// programming error.
type Document struct {
	blocks     *list.List
	index      map[string]*list.Element
	renderLine LineRenderer

	// active is the block holding focus, if any. When it is a
	// *TextLine, that line is the only one in the Editing state.
	active Block
}

type Option func(*Document)

func WithLineRenderer(render LineRenderer) Option {
	return func(d *Document) {
		d.renderLine = render
	}
}

// New returns a document with a single empty line.
func New(opts ...Option) *Document {
	d := newEmpty(opts...)
	d.ensureNotEmpty()
	return d
}

func newEmpty(opts ...Option) *Document {
	d := &Document{
		blocks: list.New(),
		index:  make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) Len() int { return d.blocks.Len() }

func (d *Document) Blocks() Blocks {
	result := make(Blocks, 0, d.blocks.Len())
	for e := d.blocks.Front(); e != nil; e = e.Next() {
		result = append(result, e.Value.(Block))
	}
	return result
}

func (d *Document) First() Block { return blockOf(d.blocks.Front()) }

func (d *Document) Last() Block { return blockOf(d.blocks.Back()) }

func (d *Document) Find(id string) Block {
	return blockOf(d.index[id])
}

// Index returns the position of an attached block or -1.
func (d *Document) Index(b Block) int {
	if !d.owns(b) {
		return -1
	}
	i := 0
	for e := d.blocks.Front(); e != nil; e = e.Next() {
		if e == b.base().element {
			return i
		}
		i++
	}
	return -1
}

func (d *Document) Append(b Block) {
	d.attach(b, d.blocks.PushBack(b))
}

// InsertAfter inserts b right after ref. A nil ref inserts at the front.
func (d *Document) InsertAfter(ref, b Block) {
	if ref == nil {
		d.attach(b, d.blocks.PushFront(b))
		return
	}
	d.attach(b, d.blocks.InsertAfter(b, ref.base().element))
}

// InsertBefore inserts b right before ref. A nil ref appends.
func (d *Document) InsertBefore(ref, b Block) {
	if ref == nil {
		d.Append(b)
		return
	}
	d.attach(b, d.blocks.InsertBefore(b, ref.base().element))
}

// Remove detaches b. Removing the last remaining block leaves a single
// empty line so the document is never empty.
func (d *Document) Remove(b Block) {
	if !d.owns(b) {
		return
	}
	if line, ok := b.(*TextLine); ok && line.state == Editing {
		line.commit()
	}
	if d.active == b {
		d.active = nil
	}

	base := b.base()
	d.blocks.Remove(base.element)
	delete(d.index, base.id)
	base.element = nil
	base.document = nil

	d.ensureNotEmpty()
}

// Replace swaps b for the given blocks, keeping their order.
func (d *Document) Replace(b Block, blocks ...Block) {
	if !d.owns(b) {
		return
	}
	ref := b
	for _, block := range blocks {
		d.InsertAfter(ref, block)
		ref = block
	}
	d.Remove(b)
}

// SetText updates the raw text of a line and leaves its state untouched.
// Text that opens a fence or holds line breaks is kept in the single
// line, so the document no longer round-trips through Parse until the
// caller re-parses it. The editor settles such lines.
func (d *Document) SetText(line *TextLine, text string) {
	line.setRaw(text)
}

// PreviousNavigable returns the block before b or nil at the start.
func (d *Document) PreviousNavigable(b Block) Block {
	if !d.owns(b) {
		return nil
	}
	return blockOf(b.base().element.Prev())
}

// NextNavigable returns the block after b or nil at the end.
func (d *Document) NextNavigable(b Block) Block {
	if !d.owns(b) {
		return nil
	}
	return blockOf(b.base().element.Next())
}

// Active returns the focused block or nil.
func (d *Document) Active() Block { return d.active }

// Editing returns the line in the Editing state or nil.
func (d *Document) Editing() *TextLine {
	line, _ := d.active.(*TextLine)
	return line
}

// Focus moves focus to b. Any other line in the Editing state is
// committed first. For a text line the returned value is the resolved
// caret offset within its raw text; for a code block it is resolved
// against the code.
func (d *Document) Focus(b Block, caret Caret) int {
	if !d.owns(b) {
		return 0
	}
	if d.active != b {
		d.Blur()
	}
	d.active = b

	switch block := b.(type) {
	case *TextLine:
		if block.state == Editing {
			return caret.Resolve(block.display)
		}
		return block.beginEdit(caret)
	case *CodeBlock:
		return caret.Resolve(block.code)
	}
	return 0
}

// Blur commits the editing line, if any, and clears focus.
// It returns the line that left the Editing state.
func (d *Document) Blur() *TextLine {
	line := d.Editing()
	if line != nil {
		line.commit()
	}
	d.active = nil
	return line
}

// Capture copies the display text of the editing line into its raw
// text while keeping it in the Editing state.
func (d *Document) Capture() {
	if line := d.Editing(); line != nil {
		line.capture()
	}
}

func (d *Document) owns(b Block) bool {
	if b == nil {
		return false
	}
	base := b.base()
	return base.document == d && base.element != nil
}

func (d *Document) attach(b Block, e *list.Element) {
	base := b.base()
	base.document = d
	base.element = e
	d.index[base.id] = e
	if line, ok := b.(*TextLine); ok {
		line.dirty = true
	}
}

func (d *Document) ensureNotEmpty() {
	if d.blocks.Len() == 0 {
		d.Append(NewTextLine(""))
	}
}

func blockOf(e *list.Element) Block {
	if e == nil {
		return nil
	}
	return e.Value.(Block)
}
