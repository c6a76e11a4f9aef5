package history

import (
	"fmt"

	"github.com/bmerritt/revdoc/internal/tree"
)

// Applier executes and inverts operations against a document tree.
// TreeApplier mutates in place; COWApplier clones the containers along
// the affected path and shares everything else.
type Applier interface {
	Apply(doc tree.Value, op *Operation) (tree.Value, error)
	Invert(op *Operation) (*Operation, error)
}

// TreeApplier applies operations by mutating the document in place.
// Array length changes are written back through the array's parent
// because Go slices cannot grow through a shared header.
type TreeApplier struct{}

func (TreeApplier) Apply(doc tree.Value, op *Operation) (tree.Value, error) {
	switch op.Kind {
	case KindSet, KindReplace:
		return tree.Set(doc, op.Path, op.After)

	case KindMerge:
		merged, err := mergedObject(doc, op)
		if err != nil {
			return nil, err
		}
		return tree.Set(doc, op.Path, merged)

	case KindInsert:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := insertAt(arr, op.Index, op.After, op.Path)
		if err != nil {
			return nil, err
		}
		return tree.Set(doc, op.Path, out)

	case KindRemove:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := removeAt(arr, op.Index, op.Path)
		if err != nil {
			return nil, err
		}
		return tree.Set(doc, op.Path, out)

	case KindMove:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := moveWithin(arr, op.FromIndex, op.ToIndex, op.Path)
		if err != nil {
			return nil, err
		}
		return tree.Set(doc, op.Path, out)

	case KindDelete:
		return tree.Delete(doc, op.Path)

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

func (TreeApplier) Invert(op *Operation) (*Operation, error) {
	return invertOp(op)
}

// invertOp derives the inverse of an operation from its recorded
// before/after values alone. Shared by both applier strategies.
func invertOp(op *Operation) (*Operation, error) {
	switch op.Kind {
	case KindSet, KindReplace:
		out := op.clone()
		out.Before, out.After = op.After, op.Before
		return out, nil

	case KindMerge:
		// The inverse is a set restoring the recorded pre-merge object.
		// Its own Before is the post-merge object, computed from the
		// operation so the inverse stays invertible too.
		pre, ok := op.Before.(tree.Object)
		if !ok {
			return nil, fmt.Errorf("invert merge: Before is %T, want object", op.Before)
		}
		patch, ok := op.After.(tree.Object)
		if !ok {
			return nil, fmt.Errorf("invert merge: After is %T, want object", op.After)
		}
		out := op.clone()
		out.Kind = KindSet
		out.Before = shallowMerge(pre, patch)
		out.After = op.Before
		return out, nil

	case KindInsert:
		out := op.clone()
		out.Kind = KindRemove
		out.Before, out.After = op.After, op.Before
		return out, nil

	case KindRemove:
		out := op.clone()
		out.Kind = KindInsert
		out.Before, out.After = op.After, op.Before
		return out, nil

	case KindMove:
		out := op.clone()
		out.FromIndex, out.ToIndex = op.ToIndex, op.FromIndex
		out.Before, out.After = op.After, op.Before
		return out, nil

	case KindDelete:
		out := op.clone()
		out.Kind = KindSet
		out.Before = nil
		out.After = op.Before
		return out, nil

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// mergedObject computes the shallow merge of the object at op.Path with
// the patch in op.After. Both sides must be objects.
func mergedObject(doc tree.Value, op *Operation) (tree.Object, error) {
	cur, err := tree.Resolve(doc, op.Path)
	if err != nil {
		return nil, err
	}
	obj, ok := cur.(tree.Object)
	if !ok {
		return nil, &tree.PathError{Path: op.Path.Clone(), Msg: "merge target is not an object"}
	}
	patch, ok := op.After.(tree.Object)
	if !ok {
		return nil, &tree.PathError{Path: op.Path.Clone(), Msg: "merge patch is not an object"}
	}
	return shallowMerge(obj, patch), nil
}

func shallowMerge(base, patch tree.Object) tree.Object {
	out := make(tree.Object, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func resolveArray(doc tree.Value, path tree.Path) (tree.Array, error) {
	cur, err := tree.Resolve(doc, path)
	if err != nil {
		return nil, err
	}
	arr, ok := cur.(tree.Array)
	if !ok {
		return nil, &tree.PathError{Path: path.Clone(), Msg: "expected array"}
	}
	return arr, nil
}

// insertAt returns a new array with v inserted at index. index == len
// appends.
func insertAt(arr tree.Array, index int, v tree.Value, path tree.Path) (tree.Array, error) {
	if index < 0 || index > len(arr) {
		return nil, &tree.PathError{Path: path.Clone(), Msg: fmt.Sprintf("insert index %d out of range (len %d)", index, len(arr))}
	}
	out := make(tree.Array, 0, len(arr)+1)
	out = append(out, arr[:index]...)
	out = append(out, v)
	out = append(out, arr[index:]...)
	return out, nil
}

func removeAt(arr tree.Array, index int, path tree.Path) (tree.Array, error) {
	if index < 0 || index >= len(arr) {
		return nil, &tree.PathError{Path: path.Clone(), Msg: fmt.Sprintf("remove index %d out of range (len %d)", index, len(arr))}
	}
	out := make(tree.Array, 0, len(arr)-1)
	out = append(out, arr[:index]...)
	out = append(out, arr[index+1:]...)
	return out, nil
}

func moveWithin(arr tree.Array, from, to int, path tree.Path) (tree.Array, error) {
	if from < 0 || from >= len(arr) {
		return nil, &tree.PathError{Path: path.Clone(), Msg: fmt.Sprintf("move from %d out of range (len %d)", from, len(arr))}
	}
	if to < 0 || to >= len(arr) {
		return nil, &tree.PathError{Path: path.Clone(), Msg: fmt.Sprintf("move to %d out of range (len %d)", to, len(arr))}
	}
	item := arr[from]
	out, err := removeAt(arr, from, path)
	if err != nil {
		return nil, err
	}
	return insertAt(out, to, item, path)
}
