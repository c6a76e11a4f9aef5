// Package persist implements the on-disk revisioned storage layer: a
// "domain" is a directory holding numbered, write-once revision files
// plus an index naming the active revision and the next id to allocate.
// Index updates are guarded by an advisory cross-process lock; all file
// writes are atomic (temp + fsync + rename).
//
// Layout:
//
//	<root>/<domain>/index.json
//	<root>/<domain>/<NNNN>.json
//	<root>/<domain>/.lock        (transient)
package persist

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmerritt/revdoc/internal/tree"
)

const (
	indexFileName = "index.json"
	lockFileName  = ".lock"
)

// Domain is a handle to one named revision collection under a persist
// root. The handle itself is cheap and stateless; all state lives on
// disk.
type Domain struct {
	root string
	name string
	lock LockOptions
	now  func() time.Time
	log  *slog.Logger
}

// Option configures a Domain handle.
type Option func(*Domain)

// WithLockOptions overrides lock acquisition timing.
func WithLockOptions(o LockOptions) Option {
	return func(d *Domain) { d.lock = o }
}

// WithClock overrides the time source for audit timestamps. Tests use
// this for deterministic index files.
func WithClock(now func() time.Time) Option {
	return func(d *Domain) { d.now = now }
}

// WithLogger overrides the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Domain) { d.log = log }
}

// Open returns a handle to <root>/<name>. Nothing is created on disk
// until a write operation (EnsureSeeded, AllocateNextID, ...) runs.
func Open(root, name string, opts ...Option) *Domain {
	d := &Domain{
		root: root,
		name: name,
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the persist root this domain lives under.
func (d *Domain) Root() string { return d.root }

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// Dir returns the domain directory path.
func (d *Domain) Dir() string { return filepath.Join(d.root, d.name) }

// IndexPath returns the index.json path.
func (d *Domain) IndexPath() string { return filepath.Join(d.Dir(), indexFileName) }

// DocPath returns the revision file path for a doc id.
func (d *Domain) DocPath(docID string) string {
	return filepath.Join(d.Dir(), docID+".json")
}

func (d *Domain) lockPath() string { return filepath.Join(d.Dir(), lockFileName) }

// nowISO formats the current time as UTC ISO8601 with second precision
// and a "Z" suffix, the on-disk timestamp form.
func (d *Domain) nowISO() string {
	return d.now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ReadIndex loads the domain index. A missing index yields the default
// (seeded) index; an unparsable one is a CORRUPT error.
func (d *Domain) ReadIndex() (Index, error) {
	data, err := os.ReadFile(d.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultIndex(), nil
		}
		return Index{}, domainErrorf(ErrCodeCorrupt, d.name, d.IndexPath(), "read index: %v", err)
	}
	idx, err := decodeIndex(data)
	if err != nil {
		return Index{}, &DomainError{Code: ErrCodeCorrupt, Domain: d.name, Path: d.IndexPath(), Msg: "parse index", Err: err}
	}
	return idx, nil
}

// WriteIndex atomically rewrites the domain index.
func (d *Domain) WriteIndex(idx Index) error {
	data, err := encodeIndex(idx)
	if err != nil {
		return &DomainError{Code: ErrCodeWriteFailed, Domain: d.name, Path: d.IndexPath(), Msg: "encode index", Err: err}
	}
	if err := atomicWrite(d.IndexPath(), data); err != nil {
		return &DomainError{Code: ErrCodeWriteFailed, Domain: d.name, Path: d.IndexPath(), Msg: "write index", Err: err}
	}
	return nil
}

// UpdateIndex runs a transaction-style read-mutate-write cycle on the
// index under the domain lock and returns the updated index.
func (d *Domain) UpdateIndex(ctx context.Context, mutate func(*Index) error) (Index, error) {
	var out Index
	err := d.WithLock(ctx, func() error {
		idx, err := d.ReadIndex()
		if err != nil {
			return err
		}
		if err := mutate(&idx); err != nil {
			return err
		}
		if err := d.WriteIndex(idx); err != nil {
			return err
		}
		out = idx
		return nil
	})
	return out, err
}

// EnsureSeeded transitions an untouched domain into the seeded state:
// one revision file (the given seed tree, or an empty object) and an
// index pointing at it. On an already seeded domain it verifies the
// active revision file still exists; a missing one is an error by
// design — use Repair to fix, not EnsureSeeded.
func (d *Domain) EnsureSeeded(ctx context.Context, seed tree.Value) error {
	return d.WithLock(ctx, func() error {
		if _, err := os.Stat(d.IndexPath()); err != nil {
			if !os.IsNotExist(err) {
				return domainErrorf(ErrCodeWriteFailed, d.name, d.IndexPath(), "stat index: %v", err)
			}

			if seed == nil {
				seed = tree.Object{}
			}
			if err := d.writeDoc(SeedDocID, seed); err != nil {
				return err
			}
			if err := d.WriteIndex(DefaultIndex()); err != nil {
				return err
			}
			d.log.Debug("seeded domain", "domain", d.name, "doc_id", SeedDocID)
			return nil
		}

		idx, err := d.ReadIndex()
		if err != nil {
			return err
		}
		if _, err := os.Stat(d.DocPath(idx.ActiveID)); err != nil {
			return domainErrorf(ErrCodeNotFound, d.name, d.DocPath(idx.ActiveID),
				"active revision %s missing; run repair", idx.ActiveID)
		}
		return nil
	})
}

// AllocateNextID reserves the next revision id under the domain lock and
// advances the index counter. No revision file is written; content
// writes are a separate step by design.
func (d *Domain) AllocateNextID(ctx context.Context, note string) (string, error) {
	var docID string
	_, err := d.UpdateIndex(ctx, func(idx *Index) error {
		docID = formatID(idx.NextID)
		idx.NextID++
		if note != "" {
			idx.History = append(idx.History, AuditEntry{
				DocID:     docID,
				CreatedAt: d.nowISO(),
				Note:      note,
			})
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	d.log.Debug("allocated revision id", "domain", d.name, "doc_id", docID)
	return docID, nil
}

// SetActive repoints the index's active revision and appends an audit
// entry when a note is given. Existence of the revision file is not
// checked here; use store.Loader.Promote for the checked variant.
func (d *Domain) SetActive(ctx context.Context, docID, note string) error {
	_, err := d.UpdateIndex(ctx, func(idx *Index) error {
		idx.ActiveID = docID
		if note != "" {
			idx.History = append(idx.History, AuditEntry{
				DocID:     docID,
				CreatedAt: d.nowISO(),
				Note:      note,
			})
		}
		return nil
	})
	return err
}

// SetActiveLatest repoints active at the highest existing revision id
// and returns it.
func (d *Domain) SetActiveLatest(ctx context.Context, note string) (string, error) {
	latest, err := d.ResolveDocID("latest")
	if err != nil {
		return "", err
	}
	if note == "" {
		note = "set active to latest"
	}
	if err := d.SetActive(ctx, latest, note); err != nil {
		return "", err
	}
	return latest, nil
}

// ResolveDocID maps a selector to a concrete doc id: "active" reads the
// index, "latest" is the highest existing revision id (falling back to
// the active id when no revision files exist), and anything else must
// be a well-formed 4-digit id. Only the format is validated for
// explicit ids, not existence.
func (d *Domain) ResolveDocID(selector string) (string, error) {
	switch selector {
	case "active":
		idx, err := d.ReadIndex()
		if err != nil {
			return "", err
		}
		return idx.ActiveID, nil
	case "latest":
		ids, err := d.ListDocIDs()
		if err != nil {
			return "", err
		}
		if len(ids) > 0 {
			return ids[len(ids)-1], nil
		}
		idx, err := d.ReadIndex()
		if err != nil {
			return "", err
		}
		return idx.ActiveID, nil
	default:
		if _, ok := parseDocID(selector); !ok {
			return "", domainErrorf(ErrCodeInvalidSelector, d.name, "", "invalid doc selector/id %q", selector)
		}
		return selector, nil
	}
}
