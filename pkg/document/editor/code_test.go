package editor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/markedit/pkg/document"
)

func TestEditor_EditCodeIsDebounced(t *testing.T) {
	e, clock, rec := newTestEditor(t)
	require.NoError(t, e.Load("```go\n```"))
	id := blockID(t, e, 0)

	require.NoError(t, e.EditCode(id, "a"))
	require.NoError(t, e.EditCode(id, "a\r\nb"))
	assert.Len(t, rec.Changes(), 1)

	clock.Advance(DefaultCanonicalizeDelay)
	assert.Equal(t, []string{"```go\n\n```", "```go\na\nb\n```"}, rec.Changes())

	assert.Error(t, e.EditCode("missing", "x"))
}

func TestEditor_EditCodeRejectsTextLine(t *testing.T) {
	e, _, _ := newTestEditor(t)

	err := e.EditCode(blockID(t, e, 0), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a code block")
}

func TestEditor_CodeTab(t *testing.T) {
	e, clock, _ := newTestEditor(t, WithTabWidth(4))
	require.NoError(t, e.Load("```\nab\n```"))
	id := blockID(t, e, 0)

	sel, err := e.CodeTab(id, 1)
	require.NoError(t, err)
	assert.Equal(t, Selection{BlockID: id, Offset: 5}, sel)

	clock.Advance(DefaultCanonicalizeDelay)
	assert.Equal(t, "```\na    b\n```", e.CanonicalText())
}

func TestEditor_CodeArrow(t *testing.T) {
	e, _, _ := newTestEditor(t)
	require.NoError(t, e.Load("a\n```\nxy\n```\nb"))
	first, code, last := blockID(t, e, 0), blockID(t, e, 1), blockID(t, e, 2)

	sel, moved, err := e.CodeArrow(code, Up, 0)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, Selection{BlockID: first, Offset: 1}, sel)

	sel, moved, err = e.CodeArrow(code, Down, 1)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, Selection{BlockID: code, Offset: 1}, sel)

	sel, moved, err = e.CodeArrow(code, Down, 2)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, Selection{BlockID: last, Offset: 0}, sel)
	assert.Equal(t, 1, editingCount(e))
}

func TestEditor_CopyCode(t *testing.T) {
	cb := &fakeClipboard{}
	e, _, _ := newTestEditor(t, WithClipboard(cb))
	require.NoError(t, e.Load("```sh\necho hi\n```"))

	code, err := e.CopyCode(blockID(t, e, 0))
	require.NoError(t, err)
	assert.Equal(t, "echo hi", code)
	assert.Equal(t, "echo hi", cb.text)

	cb.err = errors.New("clipboard unavailable")
	code, err = e.CopyCode(blockID(t, e, 0))
	assert.EqualError(t, err, "clipboard unavailable")
	assert.Equal(t, "echo hi", code)
}

func TestEditor_ClickCode(t *testing.T) {
	e, _, _ := newTestEditor(t)
	require.NoError(t, e.Load("line\n```\nxyz\n```"))
	line, code := blockID(t, e, 0), blockID(t, e, 1)

	_, err := e.Focus(line, document.Caret{})
	require.NoError(t, err)

	sel, focused, err := e.ClickCode(code, ClickHeader, 0)
	require.NoError(t, err)
	assert.False(t, focused)
	assert.Equal(t, line, sel.BlockID)

	id, _ := e.Focused()
	assert.Equal(t, line, id)

	sel, focused, err = e.ClickCode(code, ClickBody, 2)
	require.NoError(t, err)
	assert.True(t, focused)
	assert.Equal(t, Selection{BlockID: code, Offset: 2}, sel)
	assert.Equal(t, 0, editingCount(e))
}

func TestEditor_SetCodeLanguage(t *testing.T) {
	e, _, rec := newTestEditor(t)
	require.NoError(t, e.Load("```\nx\n```"))

	require.NoError(t, e.SetCodeLanguage(blockID(t, e, 0), " python "))
	assert.Equal(t, "```python\nx\n```", e.CanonicalText())
	assert.Equal(t, []string{"```\nx\n```", "```python\nx\n```"}, rec.Changes())
}

func TestEditor_CodeBackspace(t *testing.T) {
	t.Run("RemovesEmptyBlock", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("a\n```\n```\nb"))
		first, code := blockID(t, e, 0), blockID(t, e, 1)

		sel, handled, err := e.CodeBackspace(code, 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, Selection{BlockID: first, Offset: 1}, sel)
		assert.Equal(t, "a\nb", e.CanonicalText())
	})

	t.Run("OnlyBlock", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("```\n```"))

		sel, handled, err := e.CodeBackspace(blockID(t, e, 0), 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, "", e.CanonicalText())
		assert.Equal(t, blockID(t, e, 0), sel.BlockID)
	})

	t.Run("KeepsCode", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("```\nx\n```"))

		_, handled, err := e.CodeBackspace(blockID(t, e, 0), 0)
		require.NoError(t, err)
		assert.False(t, handled)
		assert.Equal(t, "```\nx\n```", e.CanonicalText())
	})

	t.Run("KeepsCodeInsideBlock", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("before\n```\nx\n```"))
		code := blockID(t, e, 1)

		sel, handled, err := e.CodeBackspace(code, 1)
		require.NoError(t, err)
		assert.False(t, handled)
		assert.Equal(t, Selection{BlockID: code, Offset: 1}, sel)
		assert.Equal(t, "before\n```\nx\n```", e.CanonicalText())
	})

	t.Run("MergesIntoTextLine", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("before\n```go\nx := 1\n```"))

		sel, handled, err := e.CodeBackspace(blockID(t, e, 1), 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, "before\nx := 1", e.CanonicalText())

		blocks := e.Blocks()
		require.Len(t, blocks, 2)
		assert.Equal(t, document.TextLineKind, blocks[1].Kind)
		assert.Equal(t, Selection{BlockID: blocks[1].ID, Offset: 0}, sel)
	})

	t.Run("SplitsLinesAfterTextLine", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("a\n```\nx\ny\n```\nb"))

		_, handled, err := e.CodeBackspace(blockID(t, e, 1), 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, "a\nx\ny\nb", e.CanonicalText())
		assert.Len(t, e.Blocks(), 4)
	})

	t.Run("MergesIntoCodeBlock", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("```\nab\n```\n```go\nc\nd\n```"))
		first := blockID(t, e, 0)

		sel, handled, err := e.CodeBackspace(blockID(t, e, 1), 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, Selection{BlockID: first, Offset: 3}, sel)
		assert.Equal(t, "```\nab\nc\nd\n```", e.CanonicalText())
		assert.Len(t, e.Blocks(), 1)
	})

	t.Run("MergesIntoEmptyCodeBlock", func(t *testing.T) {
		e, _, _ := newTestEditor(t)
		require.NoError(t, e.Load("```\n```\n```\nc\n```"))
		first := blockID(t, e, 0)

		sel, handled, err := e.CodeBackspace(blockID(t, e, 1), 0)
		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, Selection{BlockID: first, Offset: 0}, sel)
		assert.Equal(t, "```\nc\n```", e.CanonicalText())
	})
}
