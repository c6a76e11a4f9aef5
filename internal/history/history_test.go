package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmerritt/revdoc/internal/tree"
)

func titlePath() tree.Path { return tree.Path{tree.Key("title")} }

func TestHistory_ApplyUndoRedo(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())

	doc, err := h.Apply(doc, NewSet(titlePath(), tree.String("draft"), tree.String("v2")))
	require.NoError(t, err)
	doc, err = h.Apply(doc, NewSet(titlePath(), tree.String("v2"), tree.String("v3")))
	require.NoError(t, err)

	assert.Equal(t, 2, h.UndoDepth())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	doc, err = h.Undo(doc)
	require.NoError(t, err)
	v, _ := tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("v2"), v)

	doc, err = h.Undo(doc)
	require.NoError(t, err)
	v, _ = tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("draft"), v)
	assert.False(t, h.CanUndo())
	assert.Equal(t, 2, h.RedoDepth())

	doc, err = h.Redo(doc)
	require.NoError(t, err)
	v, _ = tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("v2"), v)

	doc, err = h.Redo(doc)
	require.NoError(t, err)
	v, _ = tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("v3"), v)
}

func TestHistory_UndoEmptyStackIsNoop(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())

	out, err := h.Undo(doc)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, out))

	out, err = h.Redo(doc)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, out))
}

func TestHistory_ApplyClearsRedo(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())

	doc, err := h.Apply(doc, NewSet(titlePath(), tree.String("draft"), tree.String("v2")))
	require.NoError(t, err)
	doc, err = h.Undo(doc)
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	_, err = h.Apply(doc, NewSet(titlePath(), tree.String("draft"), tree.String("other")))
	require.NoError(t, err)
	assert.False(t, h.CanRedo(), "a new edit forks history and drops redo")
}

func TestHistory_Batch(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())
	itemsPath := tree.Path{tree.Key("items")}

	require.NoError(t, h.BeginBatch("rearrange"))
	doc, err := h.Apply(doc, NewInsert(itemsPath, 0, tree.String("z")))
	require.NoError(t, err)
	doc, err = h.Apply(doc, NewSet(titlePath(), tree.String("draft"), tree.String("rearranged")))
	require.NoError(t, err)
	assert.Equal(t, 0, h.UndoDepth(), "operations inside a batch are not individual undo entries")
	require.NoError(t, h.EndBatch())

	require.Equal(t, 1, h.UndoDepth())
	b, ok := h.LastEntry().(*Batch)
	require.True(t, ok)
	assert.Equal(t, "rearrange", b.Label)
	assert.Len(t, b.Ops, 2)

	// One undo reverts the whole batch.
	doc, err = h.Undo(doc)
	require.NoError(t, err)
	assert.True(t, tree.Equal(editorDoc(), doc))

	// One redo replays it.
	doc, err = h.Redo(doc)
	require.NoError(t, err)
	v, _ := tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("rearranged"), v)
	items, _ := tree.Resolve(doc, itemsPath)
	assert.Equal(t, 4, len(items.(tree.Array)))
}

func TestHistory_BatchErrors(t *testing.T) {
	h := New(COWApplier{})

	require.NoError(t, h.BeginBatch("a"))
	assert.ErrorIs(t, h.BeginBatch("b"), ErrBatchOpen)
	require.NoError(t, h.EndBatch())
	assert.ErrorIs(t, h.EndBatch(), ErrNoBatch)
}

func TestHistory_EmptyBatchLeavesNoEntry(t *testing.T) {
	h := New(COWApplier{})
	require.NoError(t, h.BeginBatch("nothing"))
	require.NoError(t, h.EndBatch())
	assert.Equal(t, 0, h.UndoDepth())
}

func TestHistory_Coalescing(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())
	path := tree.Path{tree.Key("meta"), tree.Key("rev")}

	for i := 2; i <= 5; i++ {
		op := NewSet(path, tree.Int(int64(i-1)), tree.Int(int64(i)))
		op.CoalesceKey = "drag:rev"
		var err error
		doc, err = h.Apply(doc, op)
		require.NoError(t, err)
	}

	require.Equal(t, 1, h.UndoDepth(), "a coalesced stream is one undo entry")

	top, ok := h.LastEntry().(*Operation)
	require.True(t, ok)
	assert.True(t, tree.Equal(tree.Int(1), top.Before), "merged entry keeps the first before")
	assert.True(t, tree.Equal(tree.Int(5), top.After), "merged entry takes the last after")

	// Undo jumps all the way back to the first value.
	doc, err := h.Undo(doc)
	require.NoError(t, err)
	v, _ := tree.Resolve(doc, path)
	assert.Equal(t, tree.Int(1), v)
}

func TestHistory_CoalescingStopsAtDifferentKey(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())
	path := tree.Path{tree.Key("meta"), tree.Key("rev")}

	op1 := NewSet(path, tree.Int(1), tree.Int(2))
	op1.CoalesceKey = "drag:a"
	doc, err := h.Apply(doc, op1)
	require.NoError(t, err)

	op2 := NewSet(path, tree.Int(2), tree.Int(3))
	op2.CoalesceKey = "drag:b"
	_, err = h.Apply(doc, op2)
	require.NoError(t, err)

	assert.Equal(t, 2, h.UndoDepth())
}

func TestHistory_Clear(t *testing.T) {
	h := New(COWApplier{})
	doc := tree.Value(editorDoc())

	doc, err := h.Apply(doc, NewSet(titlePath(), tree.String("draft"), tree.String("v2")))
	require.NoError(t, err)
	_, err = h.Undo(doc)
	require.NoError(t, err)

	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Nil(t, h.LastEntry())
}

func TestPushSet(t *testing.T) {
	h := NewBound(COWApplier{}, editorDoc())

	doc, err := h.PushSet(titlePath(), tree.String("draft"), tree.String("v2"))
	require.NoError(t, err)
	v, _ := tree.Resolve(doc, titlePath())
	assert.Equal(t, tree.String("v2"), v)
	assert.True(t, tree.Equal(doc, h.Doc), "bound document tracks the latest root")

	top, ok := h.LastEntry().(*Operation)
	require.True(t, ok)
	assert.Equal(t, "history", top.Meta.Source)
	assert.Equal(t, "push_set", top.Meta.Reason)
}

func TestPushSet_Mismatch(t *testing.T) {
	h := NewBound(COWApplier{}, editorDoc())

	_, err := h.PushSet(titlePath(), tree.String("stale"), tree.String("v2"))
	require.Error(t, err)
	var merr *MismatchError
	require.ErrorAs(t, err, &merr)
	assert.True(t, tree.Equal(tree.String("stale"), merr.Want))
	assert.True(t, tree.Equal(tree.String("draft"), merr.Got))
	assert.Equal(t, 0, h.UndoDepth(), "a failed push records nothing")
}

func TestPushSetCoalesced(t *testing.T) {
	h := NewBound(COWApplier{}, editorDoc())
	path := tree.Path{tree.Key("meta"), tree.Key("rev")}

	_, err := h.PushSetCoalesced(path, tree.Int(1), tree.Int(2), "spin")
	require.NoError(t, err)
	_, err = h.PushSetCoalesced(path, tree.Int(2), tree.Int(3), "spin")
	require.NoError(t, err)

	assert.Equal(t, 1, h.UndoDepth())
}

func TestPushListAppendAndRemove(t *testing.T) {
	h := NewBound(COWApplier{}, editorDoc())
	path := tree.Path{tree.Key("items")}

	doc, err := h.PushListAppend(path, tree.String("d"))
	require.NoError(t, err)
	items, _ := tree.Resolve(doc, path)
	assert.True(t, tree.Equal(tree.Array{tree.String("a"), tree.String("b"), tree.String("c"), tree.String("d")}, items))

	doc, err = h.PushListRemove(path, 1)
	require.NoError(t, err)
	items, _ = tree.Resolve(doc, path)
	assert.True(t, tree.Equal(tree.Array{tree.String("a"), tree.String("c"), tree.String("d")}, items))

	_, err = h.PushListRemove(path, 9)
	require.Error(t, err)

	// Two undos restore the starting document.
	doc, err = h.Undo(h.Doc)
	require.NoError(t, err)
	doc, err = h.Undo(doc)
	require.NoError(t, err)
	assert.True(t, tree.Equal(editorDoc(), doc))
}

func TestPushHelpers_RequireBoundDoc(t *testing.T) {
	h := New(COWApplier{})

	_, err := h.PushSet(titlePath(), tree.String("a"), tree.String("b"))
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = h.PushListAppend(tree.Path{tree.Key("items")}, tree.Int(1))
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = h.PushListRemove(tree.Path{tree.Key("items")}, 0)
	assert.ErrorIs(t, err, ErrNoDocument)
}
