package persist

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmerritt/revdoc/internal/tree"
)

// DocInfo is per-revision inventory metadata for UIs and tooling.
type DocInfo struct {
	DocID      string
	Path       string
	IsActive   bool
	ModifiedAt time.Time
	SizeBytes  int64
	Note       string
}

// ReadDoc loads a revision file as a raw tree.
func (d *Domain) ReadDoc(docID string) (tree.Value, error) {
	p := d.DocPath(docID)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainErrorf(ErrCodeNotFound, d.name, p, "missing revision %s", docID)
		}
		return nil, domainErrorf(ErrCodeWriteFailed, d.name, p, "read revision: %v", err)
	}
	v, err := tree.Decode(data)
	if err != nil {
		return nil, &DomainError{Code: ErrCodeCorrupt, Domain: d.name, Path: p, Msg: "parse revision " + docID, Err: err}
	}
	return v, nil
}

// WriteDoc atomically writes a revision file. Revision files are
// write-once by convention; callers obtain fresh ids via AllocateNextID
// rather than rewriting existing ones.
func (d *Domain) WriteDoc(docID string, v tree.Value) error {
	return d.writeDoc(docID, v)
}

func (d *Domain) writeDoc(docID string, v tree.Value) error {
	p := d.DocPath(docID)
	data, err := tree.EncodeIndent(v)
	if err != nil {
		return &DomainError{Code: ErrCodeWriteFailed, Domain: d.name, Path: p, Msg: "encode revision " + docID, Err: err}
	}
	if err := atomicWrite(p, append(data, '\n')); err != nil {
		return &DomainError{Code: ErrCodeWriteFailed, Domain: d.name, Path: p, Msg: "write revision " + docID, Err: err}
	}
	d.log.Debug("wrote revision", "domain", d.name, "doc_id", docID)
	return nil
}

// ListDocIDs returns the sorted revision ids present in the domain
// directory. index.json and files without a 4-digit stem are ignored.
func (d *Domain) ListDocIDs() ([]string, error) {
	entries, err := os.ReadDir(d.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domainErrorf(ErrCodeWriteFailed, d.name, d.Dir(), "read domain dir: %v", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name() == indexFileName {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".json")
		if _, ok := parseDocID(stem); ok {
			ids = append(ids, stem)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// GetDocInfo returns inventory metadata for one revision.
func (d *Domain) GetDocInfo(docID string) (DocInfo, error) {
	idx, err := d.ReadIndex()
	if err != nil {
		return DocInfo{}, err
	}
	p := d.DocPath(docID)
	st, err := os.Stat(p)
	if err != nil {
		return DocInfo{}, domainErrorf(ErrCodeNotFound, d.name, p, "missing revision %s", docID)
	}
	return DocInfo{
		DocID:      docID,
		Path:       p,
		IsActive:   docID == idx.ActiveID,
		ModifiedAt: st.ModTime().UTC().Truncate(time.Second),
		SizeBytes:  st.Size(),
		Note:       latestNote(idx, docID),
	}, nil
}

// ListDocs returns inventory metadata for every revision, sorted by id.
// Revisions deleted while listing are skipped best-effort.
func (d *Domain) ListDocs() ([]DocInfo, error) {
	idx, err := d.ReadIndex()
	if err != nil {
		return nil, err
	}
	ids, err := d.ListDocIDs()
	if err != nil {
		return nil, err
	}

	infos := make([]DocInfo, 0, len(ids))
	for _, id := range ids {
		p := d.DocPath(id)
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		infos = append(infos, DocInfo{
			DocID:      id,
			Path:       p,
			IsActive:   id == idx.ActiveID,
			ModifiedAt: st.ModTime().UTC().Truncate(time.Second),
			SizeBytes:  st.Size(),
			Note:       latestNote(idx, id),
		})
	}
	return infos, nil
}

// latestNote returns the most recent audit note for a doc id, if any.
func latestNote(idx Index, docID string) string {
	for i := len(idx.History) - 1; i >= 0; i-- {
		if idx.History[i].DocID == docID && idx.History[i].Note != "" {
			return idx.History[i].Note
		}
	}
	return ""
}

// Prune deletes old revision files to bound growth, keeping the newest
// keepLast ids and, when keepActive is set, the current active revision
// regardless of age. Deletion is best-effort: already-missing files are
// not an error. The deleted ids are returned.
func (d *Domain) Prune(keepLast int, keepActive bool) ([]string, error) {
	idx, err := d.ReadIndex()
	if err != nil {
		return nil, err
	}
	ids, err := d.ListDocIDs()
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, keepLast+1)
	if keepLast > 0 {
		for _, id := range ids[max(0, len(ids)-keepLast):] {
			keep[id] = true
		}
	}
	if keepActive {
		keep[idx.ActiveID] = true
	}

	var deleted []string
	for _, id := range ids {
		if keep[id] {
			continue
		}
		if err := os.Remove(d.DocPath(id)); err != nil && !os.IsNotExist(err) {
			d.log.Warn("prune: remove failed", "domain", d.name, "doc_id", id, "error", err)
			continue
		}
		deleted = append(deleted, id)
	}
	if len(deleted) > 0 {
		d.log.Debug("pruned revisions", "domain", d.name, "deleted", len(deleted))
	}
	return deleted, nil
}

// DomainNames lists the domain directories under a persist root.
func DomainNames(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := os.Stat(filepath.Join(root, e.Name(), indexFileName)); err == nil {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
