package history

import (
	"fmt"

	"github.com/bmerritt/revdoc/internal/tree"
)

// COWApplier applies operations copy-on-write: only the containers along
// the affected path are cloned, untouched subtrees are shared by
// reference with the input document. The input document is never
// mutated, which makes it safe to keep snapshots across time.
type COWApplier struct{}

func (COWApplier) Apply(doc tree.Value, op *Operation) (tree.Value, error) {
	switch op.Kind {
	case KindSet, KindReplace:
		return cowSet(doc, op.Path, op.After, op.Path)

	case KindMerge:
		merged, err := mergedObject(doc, op)
		if err != nil {
			return nil, err
		}
		return cowSet(doc, op.Path, merged, op.Path)

	case KindInsert:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := insertAt(arr, op.Index, op.After, op.Path)
		if err != nil {
			return nil, err
		}
		return cowSet(doc, op.Path, out, op.Path)

	case KindRemove:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := removeAt(arr, op.Index, op.Path)
		if err != nil {
			return nil, err
		}
		return cowSet(doc, op.Path, out, op.Path)

	case KindMove:
		arr, err := resolveArray(doc, op.Path)
		if err != nil {
			return nil, err
		}
		out, err := moveWithin(arr, op.FromIndex, op.ToIndex, op.Path)
		if err != nil {
			return nil, err
		}
		return cowSet(doc, op.Path, out, op.Path)

	case KindDelete:
		return cowDelete(doc, op.Path, op.Path)

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

func (COWApplier) Invert(op *Operation) (*Operation, error) {
	return invertOp(op)
}

// cowSet writes v at path without mutating doc, cloning each container
// it descends through. A missing final object key is created, matching
// tree.Set. full is the complete path, kept for error reporting.
func cowSet(doc tree.Value, path tree.Path, v tree.Value, full tree.Path) (tree.Value, error) {
	if len(path) == 0 {
		return v, nil
	}

	switch t := path[0].(type) {
	case tree.Key:
		obj, ok := doc.(tree.Object)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("expected object at key %q", string(t))}
		}
		child, present := obj[string(t)]
		if !present && len(path) > 1 {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("missing key %q", string(t))}
		}
		out := make(tree.Object, len(obj)+1)
		for k, elem := range obj {
			out[k] = elem
		}
		nv, err := cowSet(child, path[1:], v, full)
		if err != nil {
			return nil, err
		}
		out[string(t)] = nv
		return out, nil

	case tree.Index:
		arr, ok := doc.(tree.Array)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("expected array at index %d", int(t))}
		}
		if int(t) < 0 || int(t) >= len(arr) {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("index %d out of range (len %d)", int(t), len(arr))}
		}
		out := make(tree.Array, len(arr))
		copy(out, arr)
		nv, err := cowSet(arr[int(t)], path[1:], v, full)
		if err != nil {
			return nil, err
		}
		out[int(t)] = nv
		return out, nil

	default:
		return nil, &tree.PathError{Path: full.Clone(), Msg: "invalid path token"}
	}
}

// cowDelete removes an object key at path without mutating doc. Deleting
// a missing key still returns a fresh root so callers can rely on the
// no-mutation guarantee.
func cowDelete(doc tree.Value, path tree.Path, full tree.Path) (tree.Value, error) {
	if len(path) == 0 {
		return nil, &tree.PathError{Path: full.Clone(), Msg: "delete requires a non-empty path"}
	}

	if len(path) == 1 {
		key, ok := path[0].(tree.Key)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: "delete requires the last token to be a key"}
		}
		obj, ok := doc.(tree.Object)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("expected object at key %q", string(key))}
		}
		out := make(tree.Object, len(obj))
		for k, elem := range obj {
			if k != string(key) {
				out[k] = elem
			}
		}
		return out, nil
	}

	switch t := path[0].(type) {
	case tree.Key:
		obj, ok := doc.(tree.Object)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("expected object at key %q", string(t))}
		}
		child, present := obj[string(t)]
		if !present {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("missing key %q", string(t))}
		}
		out := make(tree.Object, len(obj))
		for k, elem := range obj {
			out[k] = elem
		}
		nv, err := cowDelete(child, path[1:], full)
		if err != nil {
			return nil, err
		}
		out[string(t)] = nv
		return out, nil

	case tree.Index:
		arr, ok := doc.(tree.Array)
		if !ok {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("expected array at index %d", int(t))}
		}
		if int(t) < 0 || int(t) >= len(arr) {
			return nil, &tree.PathError{Path: full.Clone(), Msg: fmt.Sprintf("index %d out of range (len %d)", int(t), len(arr))}
		}
		out := make(tree.Array, len(arr))
		copy(out, arr)
		nv, err := cowDelete(arr[int(t)], path[1:], full)
		if err != nil {
			return nil, err
		}
		out[int(t)] = nv
		return out, nil

	default:
		return nil, &tree.PathError{Path: full.Clone(), Msg: "invalid path token"}
	}
}
