package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Token is a sealed interface over the two path token kinds.
// Only Key and Index implement it.
type Token interface {
	token() // Sealed - only Key and Index implement it
}

// Key indexes into an Object by string key.
type Key string

func (Key) token() {}

// Index indexes into an Array by position.
type Index int

func (Index) token() {}

// Path locates a value inside a document tree. An empty path denotes
// the root.
type Path []Token

// String renders a path for error messages and logs: "zones[2].name".
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	var sb strings.Builder
	for i, tok := range p {
		switch t := tok.(type) {
		case Key:
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(string(t))
		case Index:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(int(t)))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// ParsePath converts a dotted-string shorthand into a path of key
// tokens. Integer indices cannot be expressed this way; build the path
// from tokens directly instead. Empty segments are dropped, and the
// empty string parses to the root path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	var p Path
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			continue
		}
		p = append(p, Key(seg))
	}
	return p
}

// PathError reports a structural mismatch between a path and the
// document it was resolved against: a wrong container kind, a missing
// key, or an out-of-range index. It indicates a caller bug or corrupt
// data, not transient state.
type PathError struct {
	Path Path
	Msg  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %s: %s", e.Path, e.Msg)
}

func pathErrorf(p Path, format string, args ...any) *PathError {
	return &PathError{Path: p.Clone(), Msg: fmt.Sprintf(format, args...)}
}

// typeName names a Value variant for error messages.
func typeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Resolve walks the tree token by token and returns the value at path.
func Resolve(root Value, path Path) (Value, error) {
	cur := root
	for _, tok := range path {
		switch t := tok.(type) {
		case Key:
			obj, ok := cur.(Object)
			if !ok {
				return nil, pathErrorf(path, "expected object at key %q, got %s", string(t), typeName(cur))
			}
			next, present := obj[string(t)]
			if !present {
				return nil, pathErrorf(path, "missing key %q", string(t))
			}
			cur = next
		case Index:
			arr, ok := cur.(Array)
			if !ok {
				return nil, pathErrorf(path, "expected array at index %d, got %s", int(t), typeName(cur))
			}
			if int(t) < 0 || int(t) >= len(arr) {
				return nil, pathErrorf(path, "index %d out of range (len %d)", int(t), len(arr))
			}
			cur = arr[int(t)]
		}
	}
	return cur, nil
}

// Exists reports whether the path fully resolves in the document.
func Exists(root Value, path Path) bool {
	_, err := Resolve(root, path)
	return err == nil
}

// Set writes a value at path, mutating containers in place, and returns
// the (possibly replaced) root. An empty path replaces the whole tree.
// Intermediate tokens must resolve; the final token may name a missing
// object key, which is created. A final array index must be in range.
func Set(root Value, path Path, v Value) (Value, error) {
	if len(path) == 0 {
		return v, nil
	}

	parent, err := Resolve(root, path[:len(path)-1])
	if err != nil {
		return nil, err
	}

	switch t := path[len(path)-1].(type) {
	case Key:
		obj, ok := parent.(Object)
		if !ok {
			return nil, pathErrorf(path, "expected object at key %q, got %s", string(t), typeName(parent))
		}
		obj[string(t)] = v
	case Index:
		arr, ok := parent.(Array)
		if !ok {
			return nil, pathErrorf(path, "expected array at index %d, got %s", int(t), typeName(parent))
		}
		if int(t) < 0 || int(t) >= len(arr) {
			return nil, pathErrorf(path, "index %d out of range (len %d)", int(t), len(arr))
		}
		arr[int(t)] = v
	}
	return root, nil
}

// Delete removes an object key at path, mutating in place, and returns
// the root. The last token must be a key (array elements are removed
// through the remove operation kind instead), and deleting a missing
// key is a no-op so deletions replay safely.
func Delete(root Value, path Path) (Value, error) {
	if len(path) == 0 {
		return nil, pathErrorf(path, "delete requires a non-empty path")
	}

	key, ok := path[len(path)-1].(Key)
	if !ok {
		return nil, pathErrorf(path, "delete requires the last token to be a key")
	}

	parent, err := Resolve(root, path[:len(path)-1])
	if err != nil {
		return nil, err
	}
	obj, ok := parent.(Object)
	if !ok {
		return nil, pathErrorf(path, "expected object at key %q, got %s", string(key), typeName(parent))
	}
	delete(obj, string(key))
	return root, nil
}
