package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/bmerritt/revdoc/internal/tree"
)

// CUEValidator compiles a CUE schema source and returns a ValidateFunc
// that checks raw trees against it. The validated document is the raw
// tree itself; consumers that want typed documents wrap the returned
// function with their own decoding step.
//
// The schema is compiled once; the returned function is safe to call
// repeatedly but not concurrently (cue.Context is not synchronized).
func CUEValidator(source string) (ValidateFunc[tree.Value], error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(source)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE schema: %w", err)
	}

	return func(raw tree.Value) (tree.Value, error) {
		v := ctx.Encode(tree.ToAny(raw))
		if err := v.Err(); err != nil {
			return nil, &ValidationError{Msg: "encode document", Err: err}
		}

		unified := schema.Unify(v)
		if err := unified.Err(); err != nil {
			return nil, &ValidationError{Msg: "document does not match schema", Err: err}
		}
		if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
			return nil, &ValidationError{Msg: "document does not match schema", Err: err}
		}
		return raw, nil
	}, nil
}

// CUESchema builds a complete Schema[tree.Value] from a CUE source: the
// identity tree is used for dump, so raw trees flow through unchanged.
func CUESchema(name string, version int, source string) (Schema[tree.Value], error) {
	validate, err := CUEValidator(source)
	if err != nil {
		return Schema[tree.Value]{}, err
	}
	return Schema[tree.Value]{
		Name:     name,
		Version:  version,
		Validate: validate,
		Dump: func(doc tree.Value) (tree.Value, error) {
			return doc, nil
		},
	}, nil
}
