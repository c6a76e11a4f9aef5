package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Value is a sealed interface over the JSON-compatible document tree.
// Only Null, Bool, Int, Float, String, Array, and Object implement it.
// Integers and floats are kept distinct so round-tripping a document
// never turns a revision counter into 2.0.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null.
// An explicit type (rather than a nil Value) keeps type switches total.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a non-integer numeric value.
type Float float64

func (Float) value() {}

// String represents a string value.
type String string

func (String) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Object represents a mapping of string keys to values.
type Object map[string]Value

func (Object) value() {}

// Decode parses JSON bytes into a Value. Numbers are decoded through
// json.Number so integral values become Int, everything else Float.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	// Trailing garbage after the first value is a corrupt document.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	return FromAny(raw)
}

// FromAny converts a generic decoded JSON tree (map[string]any, []any,
// json.Number, primitives) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Float(f), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		// Preserve integral float64 values coming from encoding/json
		// default decoding as Int so Equal stays predictable.
		if val == float64(int64(val)) {
			return Int(int64(val)), nil
		}
		return Float(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a Value back into a generic Go tree suitable for
// encoding/json or for handing to schema validators.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		panic(fmt.Sprintf("unknown tree.Value type: %T", v))
	}
}

// Encode marshals a Value to compact JSON with lexicographically sorted
// object keys (encoding/json map ordering).
func Encode(v Value) ([]byte, error) {
	return json.Marshal(ToAny(v))
}

// EncodeIndent marshals a Value to indented JSON for on-disk files.
func EncodeIndent(v Value) ([]byte, error) {
	return json.MarshalIndent(ToAny(v), "", "  ")
}

// Equal reports deep structural equality of two values.
// Int and Float never compare equal, matching decode behavior.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil, Null:
		_, isNull := b.(Null)
		return isNull || b == nil
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, present := bv[k]
			if !present || !Equal(elem, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of a value. Primitives are returned as-is;
// arrays and objects are copied recursively.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// SortedKeys returns an Object's keys in lexicographic (UTF-8) order.
// Canonical hashing uses canonicalKeys instead (UTF-16 code-unit order).
func (obj Object) SortedKeys() []string {
	return slices.Sorted(maps.Keys(obj))
}
