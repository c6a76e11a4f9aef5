// Package history implements the invertible operation model and the
// undo/redo stack for in-memory document trees. Operations carry both
// their before and after values so they invert exactly without
// re-reading the tree.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/bmerritt/revdoc/internal/tree"
)

// Kind identifies the mutation an Operation performs.
type Kind string

const (
	// KindSet replaces the value at path. An empty path replaces the
	// whole tree.
	KindSet Kind = "set"

	// KindReplace is semantically identical to KindSet; it exists so
	// callers can distinguish "edit a field" from "swap a subtree" in
	// audit trails.
	KindReplace Kind = "replace"

	// KindMerge shallow-merges After (an object) into the object at path.
	KindMerge Kind = "merge"

	// KindInsert inserts After into the array at path at Index.
	KindInsert Kind = "insert"

	// KindRemove removes the element at Index from the array at path.
	KindRemove Kind = "remove"

	// KindMove moves an element inside the array at path from FromIndex
	// to ToIndex.
	KindMove Kind = "move"

	// KindDelete deletes an object key at path. Deleting a missing key
	// is a no-op so deletions replay safely.
	KindDelete Kind = "del"
)

// noIndex marks an unset optional index field.
const noIndex = -1

// Meta carries provenance for an operation or batch. None of it affects
// apply/invert semantics.
type Meta struct {
	Time   time.Time
	Actor  string
	Source string // e.g. "ui/editor", "cli", "api"
	Reason string // e.g. "drag", "typing", "import"
	Note   string
	Extra  map[string]string
}

// NewMeta returns a Meta stamped with the current UTC time and default
// actor/source.
func NewMeta() Meta {
	return Meta{
		Time:   time.Now().UTC(),
		Actor:  "user",
		Source: "unknown",
	}
}

// Operation is a single invertible tree mutation.
//
// Index, FromIndex, and ToIndex are only meaningful for the list kinds
// and hold noIndex (-1) otherwise.
type Operation struct {
	Kind Kind
	Path tree.Path

	// Before and After make the operation invertible without consulting
	// the document. What each holds depends on Kind: for merge, Before
	// is the entire pre-merge object and After is the patch; for
	// insert/remove, the affected element rides in After/Before
	// respectively.
	Before tree.Value
	After  tree.Value

	Index     int
	FromIndex int
	ToIndex   int

	// CoalesceKey lets the history collapse a stream of operations
	// sharing the key (e.g. one slider drag) into a single undo step.
	CoalesceKey string

	ID   string
	Meta Meta
}

// Batch groups operations into one undo/redo unit.
type Batch struct {
	Label string
	Ops   []*Operation
	ID    string
	Meta  Meta
}

// Entry is a sealed sum over the two history stack entry shapes.
// Only *Operation and *Batch implement it.
type Entry interface {
	entry() // Sealed
}

func (*Operation) entry() {}
func (*Batch) entry()     {}

func newOp(kind Kind, path tree.Path) *Operation {
	return &Operation{
		Kind:      kind,
		Path:      path.Clone(),
		Index:     noIndex,
		FromIndex: noIndex,
		ToIndex:   noIndex,
		ID:        uuid.NewString(),
		Meta:      NewMeta(),
	}
}

// NewSet builds a set operation recording the old and new value at path.
func NewSet(path tree.Path, before, after tree.Value) *Operation {
	op := newOp(KindSet, path)
	op.Before = before
	op.After = after
	return op
}

// NewReplace builds a replace operation (set with subtree-swap intent).
func NewReplace(path tree.Path, before, after tree.Value) *Operation {
	op := newOp(KindReplace, path)
	op.Before = before
	op.After = after
	return op
}

// NewMerge builds a merge operation. before must be the entire pre-merge
// object at path; patch is the object shallow-merged into it.
func NewMerge(path tree.Path, before tree.Value, patch tree.Value) *Operation {
	op := newOp(KindMerge, path)
	op.Before = before
	op.After = patch
	return op
}

// NewInsert builds an insert of item at index into the array at path.
func NewInsert(path tree.Path, index int, item tree.Value) *Operation {
	op := newOp(KindInsert, path)
	op.After = item
	op.Index = index
	return op
}

// NewRemove builds a removal of the element at index from the array at
// path. removed is the element being removed (required for inversion).
func NewRemove(path tree.Path, index int, removed tree.Value) *Operation {
	op := newOp(KindRemove, path)
	op.Before = removed
	op.Index = index
	return op
}

// NewMove builds a move of an element inside the array at path.
func NewMove(path tree.Path, fromIndex, toIndex int) *Operation {
	op := newOp(KindMove, path)
	op.FromIndex = fromIndex
	op.ToIndex = toIndex
	return op
}

// NewDelete builds a deletion of the object key at path. before is the
// value currently stored there (required for inversion).
func NewDelete(path tree.Path, before tree.Value) *Operation {
	op := newOp(KindDelete, path)
	op.Before = before
	return op
}

// NewBatch builds an empty batch with the given label.
func NewBatch(label string) *Batch {
	return &Batch{
		Label: label,
		ID:    uuid.NewString(),
		Meta:  NewMeta(),
	}
}

// clone returns a shallow copy of the operation with the same identity.
// Inversion and coalescing derive new operations from existing ones
// without mutating them.
func (op *Operation) clone() *Operation {
	out := *op
	out.Path = op.Path.Clone()
	return &out
}
