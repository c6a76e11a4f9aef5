// Package catalog provides the typed containers around a document tree:
// Catalog is an immutable, schema-validated snapshot; Editable is the
// raw, continuously-editable view. Schema validation itself is supplied
// by the caller as a pair of validate/dump functions; this package never
// interprets document contents.
package catalog

import (
	"errors"
	"fmt"

	"github.com/bmerritt/revdoc/internal/history"
	"github.com/bmerritt/revdoc/internal/tree"
)

// ValidateFunc turns a raw tree into a typed, trusted document or fails
// with a validation error.
type ValidateFunc[Doc any] func(raw tree.Value) (Doc, error)

// DumpFunc converts a typed document back into its raw tree form.
type DumpFunc[Doc any] func(doc Doc) (tree.Value, error)

// Schema binds validate/dump functions to a schema identity. The
// name/version pair is provenance for logs and audit trails; it is not
// embedded in the on-disk index.
type Schema[Doc any] struct {
	Name     string
	Version  int
	Validate ValidateFunc[Doc]
	Dump     DumpFunc[Doc]
}

// Tag returns a stable schema tag for logs, e.g. "zones@3".
func (s Schema[Doc]) Tag() string {
	return fmt.Sprintf("%s@%d", s.Name, s.Version)
}

// ValidationError wraps a schema/shape violation. Always recoverable by
// the caller; the underlying validator error is preserved verbatim.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Catalog is a validated, immutable document snapshot. It is produced
// only by Load; holding a Catalog means the document passed its schema.
type Catalog[Doc any] struct {
	Doc           Doc
	SchemaName    string
	SchemaVersion int
}

// Load validates a raw tree and wraps the result. This is the only path
// by which an unchecked tree becomes a trusted document.
func Load[Doc any](raw tree.Value, schema Schema[Doc]) (Catalog[Doc], error) {
	doc, err := schema.Validate(raw)
	if err != nil {
		return Catalog[Doc]{}, &ValidationError{Msg: "validate " + schema.Tag(), Err: err}
	}
	return Catalog[Doc]{
		Doc:           doc,
		SchemaName:    schema.Name,
		SchemaVersion: schema.Version,
	}, nil
}

// Dump converts the typed document back into a raw tree.
func (c Catalog[Doc]) Dump(schema Schema[Doc]) (tree.Value, error) {
	return schema.Dump(c.Doc)
}

// Tag returns the schema tag this catalog was validated against.
func (c Catalog[Doc]) Tag() string {
	return fmt.Sprintf("%s@%d", c.SchemaName, c.SchemaVersion)
}

// Editable is the raw, continuously-mutable view of a document,
// optionally wired to a History for undo/redo. It never validates
// automatically: re-validating on every micro-edit (one undo step, one
// drag tick) would be prohibitive, so validation happens only at the
// persistence boundary.
type Editable[Doc any] struct {
	Raw           tree.Value
	SchemaName    string
	SchemaVersion int
	History       *history.History
}

// NewEditable wraps a raw tree in an editable view.
func NewEditable[Doc any](raw tree.Value, schema Schema[Doc], h *history.History) Editable[Doc] {
	if h != nil && h.Doc == nil {
		h.Doc = raw
	}
	return Editable[Doc]{
		Raw:           raw,
		SchemaName:    schema.Name,
		SchemaVersion: schema.Version,
		History:       h,
	}
}

// FromCatalog round-trips a validated document back to its raw form via
// the schema's dump function and wraps it in an editable view.
func FromCatalog[Doc any](c Catalog[Doc], schema Schema[Doc], h *history.History) (Editable[Doc], error) {
	raw, err := schema.Dump(c.Doc)
	if err != nil {
		return Editable[Doc]{}, fmt.Errorf("dump %s: %w", schema.Tag(), err)
	}
	return NewEditable(raw, schema, h), nil
}

// Validate runs the schema over the current raw state.
func (e Editable[Doc]) Validate(schema Schema[Doc]) (Doc, error) {
	doc, err := schema.Validate(e.Raw)
	if err != nil {
		var zero Doc
		return zero, &ValidationError{Msg: "validate " + schema.Tag(), Err: err}
	}
	return doc, nil
}

// ToCatalog validates the current raw state and returns an immutable
// snapshot.
func (e Editable[Doc]) ToCatalog(schema Schema[Doc]) (Catalog[Doc], error) {
	return Load(e.Raw, schema)
}
