package history

import (
	"errors"
	"fmt"

	"github.com/bmerritt/revdoc/internal/tree"
)

var (
	// ErrBatchOpen is returned by BeginBatch when a batch is already open.
	ErrBatchOpen = errors.New("batch already open")

	// ErrNoBatch is returned by EndBatch when no batch is open.
	ErrNoBatch = errors.New("no open batch")

	// ErrNoDocument is returned by the push helpers when no document is
	// bound to the history.
	ErrNoDocument = errors.New("no document bound to history")
)

// MismatchError is the optimistic-check failure from PushSet: the
// caller's view of the old value disagrees with the document. It means
// the caller mutated state it no longer had an accurate view of, so it
// is fatal rather than retried.
type MismatchError struct {
	Path tree.Path
	Want tree.Value
	Got  tree.Value
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("stale value at %s: expected %v, found %v", e.Path, tree.ToAny(e.Want), tree.ToAny(e.Got))
}

// History records applied operations for undo/redo. It is owned by a
// single editing session and is not safe for concurrent use.
type History struct {
	applier Applier

	// Doc is the optional bound document used by the push helpers. It
	// tracks the latest root returned by Apply/Undo/Redo.
	Doc tree.Value

	undo []Entry
	redo []Entry

	batchOpen  bool
	batchLabel string
	batchOps   []*Operation
}

// New creates a history using the given applier strategy.
func New(applier Applier) *History {
	return &History{applier: applier}
}

// NewBound creates a history with a bound document, enabling the
// push helpers.
func NewBound(applier Applier, doc tree.Value) *History {
	return &History{applier: applier, Doc: doc}
}

// BeginBatch opens a grouping window. Until EndBatch, applied operations
// mutate the document immediately but are recorded into the batch
// instead of the undo stack.
func (h *History) BeginBatch(label string) error {
	if h.batchOpen {
		return ErrBatchOpen
	}
	h.batchOpen = true
	h.batchLabel = label
	h.batchOps = nil
	return nil
}

// EndBatch closes the grouping window. If any operations were recorded,
// the whole batch becomes a single undo entry and the redo stack is
// cleared.
func (h *History) EndBatch() error {
	if !h.batchOpen {
		return ErrNoBatch
	}
	if len(h.batchOps) > 0 {
		b := NewBatch(h.batchLabel)
		b.Ops = h.batchOps
		h.undo = append(h.undo, b)
		h.redo = nil
	}
	h.batchOpen = false
	h.batchLabel = ""
	h.batchOps = nil
	return nil
}

// Apply executes the operation against doc and records it. When the top
// of the undo stack is a single operation sharing the new operation's
// coalesce key, the top entry is replaced by a merged operation spanning
// both edits; a drag-style stream of edits then undoes in one step.
// Any recording clears the redo stack.
func (h *History) Apply(doc tree.Value, op *Operation) (tree.Value, error) {
	out, err := h.applier.Apply(doc, op)
	if err != nil {
		return nil, err
	}
	h.Doc = out

	if h.batchOpen {
		h.batchOps = append(h.batchOps, op)
		return out, nil
	}

	if op.CoalesceKey != "" && len(h.undo) > 0 {
		if last, ok := h.undo[len(h.undo)-1].(*Operation); ok && last.CoalesceKey == op.CoalesceKey {
			merged := last.clone()
			merged.After = op.After
			merged.Index = op.Index
			merged.FromIndex = op.FromIndex
			merged.ToIndex = op.ToIndex
			merged.Meta = op.Meta
			h.undo[len(h.undo)-1] = merged
			h.redo = nil
			return out, nil
		}
	}

	h.undo = append(h.undo, op)
	h.redo = nil
	return out, nil
}

// Undo reverts the most recent entry. A batch is undone by inverting and
// applying its operations in reverse order. With an empty undo stack the
// document is returned unchanged.
func (h *History) Undo(doc tree.Value) (tree.Value, error) {
	if len(h.undo) == 0 {
		return doc, nil
	}
	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	switch e := entry.(type) {
	case *Batch:
		for i := len(e.Ops) - 1; i >= 0; i-- {
			inv, err := h.applier.Invert(e.Ops[i])
			if err != nil {
				return nil, err
			}
			doc, err = h.applier.Apply(doc, inv)
			if err != nil {
				return nil, err
			}
		}
	case *Operation:
		inv, err := h.applier.Invert(e)
		if err != nil {
			return nil, err
		}
		doc, err = h.applier.Apply(doc, inv)
		if err != nil {
			return nil, err
		}
	}

	h.redo = append(h.redo, entry)
	h.Doc = doc
	return doc, nil
}

// Redo re-applies the most recently undone entry. Batch operations are
// re-applied in forward order.
func (h *History) Redo(doc tree.Value) (tree.Value, error) {
	if len(h.redo) == 0 {
		return doc, nil
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	switch e := entry.(type) {
	case *Batch:
		for _, op := range e.Ops {
			var err error
			doc, err = h.applier.Apply(doc, op)
			if err != nil {
				return nil, err
			}
		}
	case *Operation:
		var err error
		doc, err = h.applier.Apply(doc, e)
		if err != nil {
			return nil, err
		}
	}

	h.undo = append(h.undo, entry)
	h.Doc = doc
	return doc, nil
}

// Clear drops both stacks and any open batch.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.batchOpen = false
	h.batchLabel = ""
	h.batchOps = nil
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undo entries.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redo entries.
func (h *History) RedoDepth() int { return len(h.redo) }

// LastEntry returns the top of the undo stack, or nil when empty.
func (h *History) LastEntry() Entry {
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}

func (h *History) requireDoc() (tree.Value, error) {
	if h.Doc == nil {
		return nil, ErrNoDocument
	}
	return h.Doc, nil
}

// PushListAppend appends item to the array at path by recording and
// applying an insert operation against the bound document.
func (h *History) PushListAppend(path tree.Path, item tree.Value) (tree.Value, error) {
	doc, err := h.requireDoc()
	if err != nil {
		return nil, err
	}
	arr, err := resolveArray(doc, path)
	if err != nil {
		return nil, err
	}

	op := NewInsert(path, len(arr), item)
	op.Meta.Source = "history"
	op.Meta.Reason = "push_list_append"
	return h.Apply(doc, op)
}

// PushListRemove removes the element at index from the array at path by
// recording and applying a remove operation against the bound document.
func (h *History) PushListRemove(path tree.Path, index int) (tree.Value, error) {
	doc, err := h.requireDoc()
	if err != nil {
		return nil, err
	}
	arr, err := resolveArray(doc, path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(arr) {
		return nil, &tree.PathError{Path: path.Clone(), Msg: fmt.Sprintf("remove index %d out of range (len %d)", index, len(arr))}
	}

	op := NewRemove(path, index, arr[index])
	op.Meta.Source = "history"
	op.Meta.Reason = "push_list_remove"
	return h.Apply(doc, op)
}

// PushSet sets the value at path by recording and applying a set
// operation against the bound document. old is checked against the
// current value first; a mismatch fails with *MismatchError.
func (h *History) PushSet(path tree.Path, old, new tree.Value) (tree.Value, error) {
	doc, err := h.requireDoc()
	if err != nil {
		return nil, err
	}
	cur, err := tree.Resolve(doc, path)
	if err != nil {
		return nil, err
	}
	if !tree.Equal(cur, old) {
		return nil, &MismatchError{Path: path.Clone(), Want: old, Got: cur}
	}

	op := NewSet(path, old, new)
	op.Meta.Source = "history"
	op.Meta.Reason = "push_set"
	return h.Apply(doc, op)
}

// PushSetCoalesced is PushSet with a coalescing key, for continuous edit
// streams (slider drags, typing) that should undo as one step.
func (h *History) PushSetCoalesced(path tree.Path, old, new tree.Value, key string) (tree.Value, error) {
	doc, err := h.requireDoc()
	if err != nil {
		return nil, err
	}
	cur, err := tree.Resolve(doc, path)
	if err != nil {
		return nil, err
	}
	if !tree.Equal(cur, old) {
		return nil, &MismatchError{Path: path.Clone(), Want: old, Got: cur}
	}

	op := NewSet(path, old, new)
	op.CoalesceKey = key
	op.Meta.Source = "history"
	op.Meta.Reason = "push_set"
	return h.Apply(doc, op)
}
