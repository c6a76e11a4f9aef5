// Package store binds a caller-supplied document schema to one persist
// domain, exposing the load/save/promote surface that editing sessions
// use. It owns no validation logic itself: schemas arrive as
// validate/dump function pairs and documents flow through as raw trees
// until a Catalog is requested.
package store

import (
	"context"
	"log/slog"

	"github.com/bmerritt/revdoc/internal/catalog"
	"github.com/bmerritt/revdoc/internal/history"
	"github.com/bmerritt/revdoc/internal/persist"
	"github.com/bmerritt/revdoc/internal/tree"
)

// SeedFunc produces the initial raw tree for an unseeded domain.
type SeedFunc func() tree.Value

// Loader couples a schema with a domain.
type Loader[Doc any] struct {
	domain *persist.Domain
	schema catalog.Schema[Doc]
	seed   SeedFunc
	log    *slog.Logger
}

// Option configures a Loader.
type Option[Doc any] func(*Loader[Doc])

// WithSeed sets the seed document for first touch of the domain.
// Without it, an empty object is seeded.
func WithSeed[Doc any](seed SeedFunc) Option[Doc] {
	return func(l *Loader[Doc]) { l.seed = seed }
}

// WithLogger overrides the default slog logger.
func WithLogger[Doc any](log *slog.Logger) Option[Doc] {
	return func(l *Loader[Doc]) { l.log = log }
}

// New builds a Loader for the given domain and schema.
func New[Doc any](domain *persist.Domain, schema catalog.Schema[Doc], opts ...Option[Doc]) *Loader[Doc] {
	l := &Loader[Doc]{
		domain: domain,
		schema: schema,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Domain returns the underlying persist domain handle.
func (l *Loader[Doc]) Domain() *persist.Domain { return l.domain }

// Schema returns the bound schema.
func (l *Loader[Doc]) Schema() catalog.Schema[Doc] { return l.schema }

func (l *Loader[Doc]) ensureSeeded(ctx context.Context) error {
	var seed tree.Value
	if l.seed != nil {
		seed = l.seed()
	}
	return l.domain.EnsureSeeded(ctx, seed)
}

// ActiveID returns the active revision id, seeding the domain first if
// it has never been touched.
func (l *Loader[Doc]) ActiveID(ctx context.Context) (string, error) {
	if err := l.ensureSeeded(ctx); err != nil {
		return "", err
	}
	idx, err := l.domain.ReadIndex()
	if err != nil {
		return "", err
	}
	return idx.ActiveID, nil
}

// LoadRevisionRaw loads a specific revision as a raw tree without
// promoting it.
func (l *Loader[Doc]) LoadRevisionRaw(ctx context.Context, docID string) (tree.Value, error) {
	if err := l.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	return l.domain.ReadDoc(docID)
}

// LoadRevisionCatalog loads and validates a specific revision into an
// immutable Catalog.
func (l *Loader[Doc]) LoadRevisionCatalog(ctx context.Context, docID string) (catalog.Catalog[Doc], error) {
	raw, err := l.LoadRevisionRaw(ctx, docID)
	if err != nil {
		return catalog.Catalog[Doc]{}, err
	}
	return catalog.Load(raw, l.schema)
}

// LoadRevisionEditable loads a specific revision into an editable view,
// optionally wired to a history. The revision is not promoted; this is
// the preview path.
func (l *Loader[Doc]) LoadRevisionEditable(ctx context.Context, docID string, h *history.History) (catalog.Editable[Doc], error) {
	raw, err := l.LoadRevisionRaw(ctx, docID)
	if err != nil {
		return catalog.Editable[Doc]{}, err
	}
	return catalog.NewEditable(raw, l.schema, h), nil
}

// LoadActiveRaw loads the active revision as a raw tree.
func (l *Loader[Doc]) LoadActiveRaw(ctx context.Context) (tree.Value, error) {
	id, err := l.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	return l.domain.ReadDoc(id)
}

// LoadActiveCatalog loads and validates the active revision.
func (l *Loader[Doc]) LoadActiveCatalog(ctx context.Context) (catalog.Catalog[Doc], error) {
	raw, err := l.LoadActiveRaw(ctx)
	if err != nil {
		return catalog.Catalog[Doc]{}, err
	}
	return catalog.Load(raw, l.schema)
}

// LoadActiveEditable loads the active revision into an editable view.
func (l *Loader[Doc]) LoadActiveEditable(ctx context.Context, h *history.History) (catalog.Editable[Doc], error) {
	raw, err := l.LoadActiveRaw(ctx)
	if err != nil {
		return catalog.Editable[Doc]{}, err
	}
	return catalog.NewEditable(raw, l.schema, h), nil
}

// SaveOptions controls SaveNewRevision.
type SaveOptions struct {
	// Note is recorded in the index audit trail.
	Note string

	// SkipValidate bypasses the pre-save schema validation. Useful for
	// checkpointing work-in-progress edits that are not yet valid.
	SkipValidate bool

	// MakeActive promotes the new revision after writing it.
	MakeActive bool
}

// DefaultSaveOptions validates before saving and promotes the result.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{MakeActive: true}
}

// SaveNewRevision persists the editable's raw tree as a fresh numbered
// revision: validate (unless skipped), allocate the id under the domain
// lock, atomically write the revision file, then optionally flip the
// active pointer. Each step is independently atomic; a crash between
// steps leaves at worst an orphaned revision or an advanced counter,
// both reconciled by persist.Repair.
func (l *Loader[Doc]) SaveNewRevision(ctx context.Context, editable catalog.Editable[Doc], opts SaveOptions) (string, error) {
	if err := l.ensureSeeded(ctx); err != nil {
		return "", err
	}

	if !opts.SkipValidate {
		if _, err := editable.Validate(l.schema); err != nil {
			return "", err
		}
	}

	docID, err := l.domain.AllocateNextID(ctx, opts.Note)
	if err != nil {
		return "", err
	}
	if err := l.domain.WriteDoc(docID, editable.Raw); err != nil {
		return "", err
	}

	if hash, err := tree.Hash(editable.Raw); err == nil {
		l.log.Debug("saved revision",
			"domain", l.domain.Name(), "doc_id", docID,
			"schema", l.schema.Tag(), "hash", hash)
	}

	if opts.MakeActive {
		note := "set active"
		if opts.Note != "" {
			note += ": " + opts.Note
		}
		if err := l.domain.SetActive(ctx, docID, note); err != nil {
			return "", err
		}
	}
	return docID, nil
}

// Promote flips the active pointer to an already-written revision
// without writing any content. The revision file must exist.
func (l *Loader[Doc]) Promote(ctx context.Context, docID, note string) error {
	if err := l.ensureSeeded(ctx); err != nil {
		return err
	}
	if _, err := l.domain.GetDocInfo(docID); err != nil {
		return err
	}
	return l.domain.SetActive(ctx, docID, note)
}

// ValidateDoc loads and validates a specific revision, returning the
// resulting Catalog.
func (l *Loader[Doc]) ValidateDoc(ctx context.Context, docID string) (catalog.Catalog[Doc], error) {
	return l.LoadRevisionCatalog(ctx, docID)
}
