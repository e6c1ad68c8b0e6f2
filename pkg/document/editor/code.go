package editor

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/markedit/pkg/document"
)

// Clipboard receives text copied from code blocks.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the platform clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return errors.Wrap(clipboard.WriteAll(text), "failed to write clipboard")
}

// ClickTarget is the part of a code block that received a click.
type ClickTarget int

const (
	ClickBody ClickTarget = iota
	// ClickHeader covers the language label and the copy control.
	ClickHeader
)

// EditCode replaces the code of a code block. The document is
// synchronized after the canonicalization delay.
func (e *Editor) EditCode(id, code string) error {
	return e.touch(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}
		block.SetCode(document.NormalizeLineBreaks(code))
		return nil
	})
}

// CodeTab inserts spaces at offset instead of moving focus.
func (e *Editor) CodeTab(id string, offset int) (sel Selection, err error) {
	err = e.touch(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}
		offset = document.CaretAt(offset).Resolve(block.Code())
		before, after := document.SplitAt(block.Code(), offset)
		block.SetCode(before + strings.Repeat(" ", e.tabWidth) + after)
		sel = Selection{BlockID: id, Offset: offset + e.tabWidth}
		return nil
	})
	return sel, err
}

// CodeArrow handles an arrow key at offset within a code block. At the
// first character going up, or past the last going down, focus leaves
// the block and moved is true. Otherwise the caller keeps handling the
// key.
func (e *Editor) CodeArrow(id string, dir Direction, offset int) (sel Selection, moved bool, err error) {
	err = e.update(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}

		sel = Selection{BlockID: id, Offset: offset}
		atEdge := (dir == Up && offset <= 0) || (dir == Down && offset >= block.Len())
		if !atEdge {
			return nil
		}

		caret := document.Caret{Placement: document.CaretEnd}
		if dir == Down {
			caret.Placement = document.CaretStart
		}
		sel, moved = e.navigateLocked(block, dir, caret)
		return nil
	})
	return sel, moved, err
}

// CopyCode writes the code of a block to the clipboard and returns it.
func (e *Editor) CopyCode(id string) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	block, err := e.codeBlockLocked(id)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	code := block.Code()
	e.mu.Unlock()

	if err := e.clipboard.WriteAll(code); err != nil {
		e.logger.Warn("failed to copy code", zap.String("block", id), zap.Error(err))
		return code, err
	}
	return code, nil
}

// ClickCode focuses a code block at offset unless the click landed on
// its header, which leaves focus untouched.
func (e *Editor) ClickCode(id string, target ClickTarget, offset int) (sel Selection, focused bool, err error) {
	err = e.update(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}
		if target == ClickHeader {
			if active := e.doc.Active(); active != nil {
				sel = Selection{BlockID: active.ID()}
			}
			return nil
		}
		sel = e.focusLocked(block, document.CaretAt(offset))
		focused = true
		return nil
	})
	return sel, focused, err
}

func (e *Editor) SetCodeLanguage(id, language string) error {
	return e.update(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}
		block.SetLanguage(language)
		return nil
	})
}

// CodeBackspace handles backspace with the caret at offset within a
// code block. At the start of an empty block the block is removed and
// the previous block receives focus at its end. At the start of a
// non-empty block the code is merged into the previous block and focus
// moves to the join point. handled is false when the caller should
// delete a character instead.
func (e *Editor) CodeBackspace(id string, offset int) (sel Selection, handled bool, err error) {
	err = e.update(func() error {
		block, err := e.codeBlockLocked(id)
		if err != nil {
			return err
		}
		prev := e.doc.PreviousNavigable(block)
		if offset > 0 || (block.Code() != "" && prev == nil) {
			sel = Selection{BlockID: id, Offset: offset}
			return nil
		}
		handled = true

		if block.Code() != "" {
			sel = e.mergeCodeLocked(block, prev)
			return nil
		}

		target := prev
		caret := document.Caret{Placement: document.CaretEnd}
		if target == nil {
			target = e.doc.NextNavigable(block)
			caret = document.Caret{}
		}
		e.doc.Remove(block)
		if target == nil {
			// The document now holds a single empty line.
			target = e.doc.First()
		}
		sel = e.focusLocked(target, caret)
		return nil
	})
	return sel, handled, err
}

// mergeCodeLocked moves the code of block into prev. A previous code
// block is extended; otherwise each code line becomes a text line
// after prev.
func (e *Editor) mergeCodeLocked(block *document.CodeBlock, prev document.Block) Selection {
	code := block.Code()

	if target, ok := prev.(*document.CodeBlock); ok {
		join := target.Len()
		if target.Code() == "" {
			target.SetCode(code)
		} else {
			target.SetCode(target.Code() + "\n" + code)
			join++
		}
		e.doc.Remove(block)
		return e.focusLocked(target, document.CaretAt(join))
	}

	lines := strings.Split(code, "\n")
	blocks := make([]document.Block, 0, len(lines))
	for _, raw := range lines {
		blocks = append(blocks, document.NewTextLine(raw))
	}
	e.doc.Replace(block, blocks...)

	var first document.Block
	for _, b := range blocks {
		settled := e.settleLocked(b.(*document.TextLine))
		if first == nil {
			first = settled
		}
	}
	return e.focusLocked(first, document.Caret{})
}

func (e *Editor) codeBlockLocked(id string) (*document.CodeBlock, error) {
	b, err := e.blockLocked(id)
	if err != nil {
		return nil, err
	}
	block, ok := b.(*document.CodeBlock)
	if !ok {
		return nil, errors.Errorf("block %s is not a code block", id)
	}
	return block, nil
}
