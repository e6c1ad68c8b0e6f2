package history

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedo(t *testing.T) {
	h := New(0)
	assert.Equal(t, DefaultLimit, h.Limit())

	_, err := h.Undo("a")
	require.ErrorIs(t, err, ErrNothingToUndo)
	_, err = h.Redo("a")
	require.ErrorIs(t, err, ErrNothingToRedo)

	// a -> b -> c
	h.Push("a")
	h.Push("b")
	current := "c"

	current, err = h.Undo(current)
	require.NoError(t, err)
	assert.Equal(t, "b", current)

	current, err = h.Undo(current)
	require.NoError(t, err)
	assert.Equal(t, "a", current)
	assert.False(t, h.CanUndo())
	assert.Equal(t, []string{"c", "b"}, h.RedoSnapshots())

	current, err = h.Redo(current)
	require.NoError(t, err)
	assert.Equal(t, "b", current)
	assert.True(t, h.CanRedo())

	current, err = h.Redo(current)
	require.NoError(t, err)
	assert.Equal(t, "c", current)
	assert.Equal(t, []string{"a", "b"}, h.UndoSnapshots())
}

func TestHistory_Bound(t *testing.T) {
	h := New(DefaultLimit)
	for i := 0; i < 151; i++ {
		h.Push(strconv.Itoa(i))
	}

	snapshots := h.UndoSnapshots()
	require.Len(t, snapshots, 150)
	assert.Equal(t, "1", snapshots[0])
	assert.Equal(t, "150", snapshots[149])
}

func TestHistory_RedoInvalidation(t *testing.T) {
	h := New(10)
	h.Push("a")
	h.Push("b")

	_, err := h.Undo("c")
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	h.Push("b2")
	assert.False(t, h.CanRedo())
	assert.Empty(t, h.RedoSnapshots())
}

func TestHistory_Clear(t *testing.T) {
	h := New(10)
	h.Push("a")
	_, _ = h.Undo("b")
	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
