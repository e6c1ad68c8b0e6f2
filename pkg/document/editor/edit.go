package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/stateful/markedit/internal/renderer/cmark"
	"github.com/stateful/markedit/pkg/document"
)

// Selection identifies the focused block and the caret offset within
// it, counted in runes.
type Selection struct {
	BlockID string
	Offset  int
}

type Direction int

const (
	Up Direction = iota
	Down
)

// BlockState is a read-only view of a block for presentation adapters.
type BlockState struct {
	ID       string
	Kind     document.BlockKind
	LineKind document.LineKind
	State    document.EditState
	// Text is the displayed source of a text line or the code of a
	// code block.
	Text     string
	Language string
	// Rendered is the rendered form of a text line's raw text.
	Rendered string
}

// Blocks returns the current blocks in document order.
func (e *Editor) Blocks() []BlockState {
	e.mu.Lock()
	defer e.mu.Unlock()

	blocks := e.doc.Blocks()
	result := make([]BlockState, 0, len(blocks))
	for _, b := range blocks {
		state := BlockState{ID: b.ID(), Kind: b.Kind()}
		switch block := b.(type) {
		case *document.TextLine:
			state.LineKind = block.LineKind()
			state.State = block.State()
			state.Text = block.RawText()
			if block.State() == document.Editing {
				state.Text = block.Display()
			}
			state.Rendered = block.Rendered()
		case *document.CodeBlock:
			state.Text = block.Code()
			state.Language = block.Language()
		}
		result = append(result, state)
	}
	return result
}

// Focused returns the ID of the focused block.
func (e *Editor) Focused() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b := e.doc.Active(); b != nil {
		return b.ID(), true
	}
	return "", false
}

// Focus moves focus to the block with id. A line that loses focus is
// committed.
func (e *Editor) Focus(id string, caret document.Caret) (sel Selection, err error) {
	err = e.update(func() error {
		b, err := e.blockLocked(id)
		if err != nil {
			return err
		}
		sel = e.focusLocked(b, caret)
		return nil
	})
	return sel, err
}

// Blur commits the line being edited, if any, and clears focus.
func (e *Editor) Blur() error {
	return e.update(func() error {
		if line := e.doc.Blur(); line != nil {
			e.settleLocked(line)
		}
		return nil
	})
}

// Type replaces the displayed source of the line being edited. The
// document is synchronized after the canonicalization delay.
func (e *Editor) Type(text string) error {
	return e.touch(func() error {
		line := e.doc.Editing()
		if line == nil {
			return ErrNoFocus
		}
		line.SetDisplay(text)
		return nil
	})
}

// SetText replaces the raw text of a line. A rendered line is settled
// right away.
func (e *Editor) SetText(id, text string) error {
	return e.update(func() error {
		b, err := e.blockLocked(id)
		if err != nil {
			return err
		}
		line, ok := b.(*document.TextLine)
		if !ok {
			return errors.Errorf("block %s is not a text line", id)
		}
		e.doc.SetText(line, text)
		if line.State() == document.Rendered {
			e.settleLocked(line)
		}
		return nil
	})
}

// SplitOnEnter splits the line being edited at offset. The head stays
// in place and the tail moves to a new line that receives focus. A head
// that opens a fence turns into an empty code block that receives focus
// instead.
func (e *Editor) SplitOnEnter(offset int) (sel Selection, err error) {
	err = e.update(func() error {
		line := e.doc.Editing()
		if line == nil {
			return ErrNoFocus
		}

		before, after := document.SplitAt(line.Display(), offset)
		e.doc.SetText(line, before)
		e.doc.Blur()

		next := document.NewTextLine(after)
		e.doc.InsertAfter(line, next)

		head := e.settleLocked(line)
		target := e.settleLocked(next)
		if _, _, ok := document.IsFenceOpen(before); ok {
			target = head
		}
		sel = e.focusLocked(target, document.Caret{})
		return nil
	})
	return sel, err
}

// MergeOnBackspace handles backspace with the caret at the start of the
// line being edited. The line is appended to the previous text line, or
// removed when empty and preceded by a code block. At the start of the
// document nothing changes.
func (e *Editor) MergeOnBackspace() (sel Selection, err error) {
	err = e.update(func() error {
		line := e.doc.Editing()
		if line == nil {
			return ErrNoFocus
		}

		switch prev := e.doc.PreviousNavigable(line).(type) {
		case *document.TextLine:
			e.doc.Capture()
			text := line.RawText()
			e.doc.Remove(line)

			raw := prev.RawText()
			e.doc.SetText(prev, raw+text)
			sel = e.focusLocked(prev, document.CaretAt(utf8.RuneCountInString(raw)))
		case *document.CodeBlock:
			e.doc.Capture()
			if line.RawText() == "" {
				e.doc.Remove(line)
			}
			sel = e.focusLocked(prev, document.Caret{Placement: document.CaretEnd})
		default:
			sel = Selection{BlockID: line.ID()}
		}
		return nil
	})
	return sel, err
}

// Navigate moves focus to the neighbouring block. The column is carried
// over into text lines; code blocks are entered at the near edge. At a
// document boundary focus stays put.
func (e *Editor) Navigate(dir Direction, column int) (sel Selection, err error) {
	err = e.update(func() error {
		active := e.doc.Active()
		if active == nil {
			return ErrNoFocus
		}
		sel, _ = e.navigateLocked(active, dir, document.CaretAt(column))
		return nil
	})
	return sel, err
}

// InsertTextAfter parses text into blocks and inserts them after the
// block with refID, or after the focused block when refID is empty. The
// last inserted block receives focus.
func (e *Editor) InsertTextAfter(refID, text string) (sel Selection, err error) {
	err = e.update(func() error {
		ref, err := e.refLocked(refID)
		if err != nil {
			return err
		}
		blocks := document.ParseBlocks(document.NormalizeLineBreaks(text))
		last := e.insertAfterLocked(ref, blocks)
		sel = e.focusLocked(last, document.Caret{Placement: document.CaretEnd})
		return nil
	})
	return sel, err
}

// InsertCodeBlock inserts an empty code block after the focused block
// and focuses it. An empty focused line is replaced instead.
func (e *Editor) InsertCodeBlock(language string) (sel Selection, err error) {
	err = e.update(func() error {
		code := document.NewCodeBlock(language, "")

		e.doc.Capture()
		active := e.doc.Active()
		if line, ok := active.(*document.TextLine); ok && line.RawText() == "" {
			e.doc.Replace(line, code)
		} else {
			e.insertAfterLocked(active, document.Blocks{code})
		}
		sel = e.focusLocked(code, document.Caret{})
		return nil
	})
	return sel, err
}

// RemoveBlock removes a block. Removing the last block leaves a single
// empty line.
func (e *Editor) RemoveBlock(id string) error {
	return e.update(func() error {
		b, err := e.blockLocked(id)
		if err != nil {
			return err
		}
		e.doc.Remove(b)
		return nil
	})
}

// Paste inserts a plain or rich markup payload at offset in the focused
// block. Single-line text is inserted inline; anything else is parsed
// into blocks placed between the two halves of the line being edited.
// Code blocks receive the payload verbatim. Without focus the blocks
// are appended to the document.
func (e *Editor) Paste(payload string, offset int) (sel Selection, err error) {
	payload = document.NormalizeLineBreaks(payload)

	text := payload
	if cmark.IsRichMarkup(payload) {
		if converted, err := cmark.RenderString(payload, cmark.WithLogger(e.logger)); err == nil {
			text = converted
		}
	}

	err = e.update(func() error {
		switch active := e.doc.Active().(type) {
		case *document.CodeBlock:
			before, after := document.SplitAt(active.Code(), offset)
			active.SetCode(before + payload + after)
			sel = Selection{BlockID: active.ID(), Offset: utf8.RuneCountInString(before + payload)}

		case *document.TextLine:
			before, after := document.SplitAt(active.Display(), offset)
			if isInline(text) {
				active.SetDisplay(before + text + after)
				sel = Selection{BlockID: active.ID(), Offset: utf8.RuneCountInString(before + text)}
				return nil
			}

			e.doc.SetText(active, before)
			e.doc.Blur()
			blocks := document.ParseBlocks(text)
			last := e.insertAfterLocked(active, blocks)
			if after != "" {
				tail := document.NewTextLine(after)
				e.doc.InsertAfter(last, tail)
				e.settleLocked(tail)
			}
			if before == "" {
				e.doc.Remove(active)
			} else {
				e.settleLocked(active)
			}
			sel = e.focusLocked(last, document.Caret{Placement: document.CaretEnd})

		default:
			blocks := document.ParseBlocks(text)
			placeholder := e.doc.Last()
			last := e.insertAfterLocked(placeholder, blocks)
			if line, ok := placeholder.(*document.TextLine); ok && e.doc.Len() == len(blocks)+1 && line.RawText() == "" {
				e.doc.Remove(line)
			}
			sel = e.focusLocked(last, document.Caret{Placement: document.CaretEnd})
		}
		return nil
	})
	return sel, err
}

func isInline(text string) bool {
	if strings.Contains(text, "\n") {
		return false
	}
	_, _, fence := document.IsFenceOpen(text)
	return !fence
}

func (e *Editor) blockLocked(id string) (document.Block, error) {
	b := e.doc.Find(id)
	if b == nil {
		return nil, errors.Wrapf(ErrUnknownBlock, "block %s", id)
	}
	return b, nil
}

// refLocked resolves an insertion reference: the block with id, the
// focused block for an empty id, or the last block without focus.
func (e *Editor) refLocked(id string) (document.Block, error) {
	if id != "" {
		return e.blockLocked(id)
	}
	if active := e.doc.Active(); active != nil {
		return active, nil
	}
	return e.doc.Last(), nil
}

// insertAfterLocked inserts blocks after ref, or at the end when ref is
// nil, and returns the last block inserted.
func (e *Editor) insertAfterLocked(ref document.Block, blocks document.Blocks) document.Block {
	if ref == nil {
		ref = e.doc.Last()
	}
	for _, b := range blocks {
		e.doc.InsertAfter(ref, b)
		ref = b
	}
	return ref
}

// focusLocked focuses b and settles the line that lost focus.
func (e *Editor) focusLocked(b document.Block, caret document.Caret) Selection {
	prev := e.doc.Editing()
	offset := e.doc.Focus(b, caret)
	if prev != nil && prev != b {
		e.settleLocked(prev)
	}
	return Selection{BlockID: b.ID(), Offset: offset}
}

func (e *Editor) navigateLocked(from document.Block, dir Direction, caret document.Caret) (Selection, bool) {
	var target document.Block
	if dir == Up {
		target = e.doc.PreviousNavigable(from)
	} else {
		target = e.doc.NextNavigable(from)
	}

	if target == nil {
		offset := 0
		switch block := from.(type) {
		case *document.TextLine:
			offset = caret.Resolve(block.Display())
		case *document.CodeBlock:
			offset = caret.Resolve(block.Code())
		}
		return Selection{BlockID: from.ID(), Offset: offset}, false
	}

	if _, ok := target.(*document.CodeBlock); ok {
		caret = document.Caret{}
		if dir == Up {
			caret.Placement = document.CaretEnd
		}
	}
	return e.focusLocked(target, caret), true
}

// settleLocked re-parses a rendered line whose raw text spans several
// lines or opens a fence, so the document keeps round-tripping. It
// returns the block now standing in the line's place.
func (e *Editor) settleLocked(line *document.TextLine) document.Block {
	if !line.Attached() || line.State() == document.Editing {
		return line
	}

	raw := line.RawText()
	if _, _, fence := document.IsFenceOpen(raw); !fence && !strings.Contains(raw, "\n") {
		return line
	}

	blocks := document.ParseBlocks(raw)
	e.doc.Replace(line, blocks...)
	return blocks[0]
}
