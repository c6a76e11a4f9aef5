package persist

import (
	"context"
	"fmt"
	"os"

	"github.com/bmerritt/revdoc/internal/tree"
)

// Report is the result of a domain integrity check. Errors are
// violations a caller must act on (missing domain, missing active
// revision); warnings are inconsistencies Repair can fix silently
// (counter drift). Validate never fails so callers can decide between
// auto-repair and prompting a human.
type Report struct {
	Errors   []string
	Warnings []string
	Stats    map[string]any
}

// OK reports whether the check found no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

func (r Report) String() string {
	return fmt.Sprintf("errors=%d warnings=%d", len(r.Errors), len(r.Warnings))
}

// Validate checks domain integrity and returns a structured report. It
// never returns an error for the common failure modes; everything is
// folded into the report.
func (d *Domain) Validate() Report {
	report := Report{Stats: map[string]any{}}

	report.Stats["domain_dir"] = d.Dir()
	if _, err := os.Stat(d.Dir()); err != nil {
		report.Stats["domain_exists"] = false
		report.Errors = append(report.Errors, fmt.Sprintf("missing domain directory: %s", d.Dir()))
		return report
	}
	report.Stats["domain_exists"] = true
	report.Stats["index_path"] = d.IndexPath()

	idx := DefaultIndex()
	if _, err := os.Stat(d.IndexPath()); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("missing index.json: %s", d.IndexPath()))
	} else {
		loaded, err := d.ReadIndex()
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("index load failed: %v", err))
			return report
		}
		idx = loaded
	}

	report.Stats["active_id"] = idx.ActiveID
	report.Stats["next_id"] = idx.NextID

	ids, err := d.ListDocIDs()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list revisions failed: %v", err))
		return report
	}
	report.Stats["doc_count"] = len(ids)
	if len(ids) > 0 {
		report.Stats["max_doc_id"] = ids[len(ids)-1]
	}

	if _, err := os.Stat(d.DocPath(idx.ActiveID)); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("active revision missing: %s", d.DocPath(idx.ActiveID)))
	} else if doc, err := d.ReadDoc(idx.ActiveID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("active revision unreadable: %v", err))
	} else if hash, err := tree.Hash(doc); err == nil {
		report.Stats["active_hash"] = hash
	}

	if len(ids) > 0 {
		maxID, _ := parseDocID(ids[len(ids)-1])
		expectedNext := maxID + 1
		if idx.NextID < expectedNext {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("next_id too small: next_id=%d, expected>=%d", idx.NextID, expectedNext))
		}
		if idx.NextID > expectedNext+1000 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("next_id unusually large: next_id=%d, expected~=%d", idx.NextID, expectedNext))
		}
	}

	return report
}

// Repair conservatively fixes common integrity issues and returns the
// post-repair report. It seeds a revision if none exist, repoints
// active at the latest revision when the recorded one is missing, and
// raises NextID when it lags existing files. Each fix appends an audit
// entry. Revision files are never deleted here.
func (d *Domain) Repair(ctx context.Context) (Report, error) {
	if err := os.MkdirAll(d.Dir(), 0o755); err != nil {
		return Report{}, domainErrorf(ErrCodeWriteFailed, d.name, d.Dir(), "create domain dir: %v", err)
	}

	// Force an index into existence so UpdateIndex has something to
	// transact against.
	if _, err := os.Stat(d.IndexPath()); os.IsNotExist(err) {
		if err := d.WriteIndex(DefaultIndex()); err != nil {
			return Report{}, err
		}
	}

	_, err := d.UpdateIndex(ctx, func(idx *Index) error {
		ids, err := d.ListDocIDs()
		if err != nil {
			return err
		}

		if len(ids) == 0 {
			if err := d.writeDoc(SeedDocID, tree.Object{}); err != nil {
				return err
			}
			ids = []string{SeedDocID}
			d.log.Info("repair: seeded empty domain", "domain", d.name)
		}

		if _, err := os.Stat(d.DocPath(idx.ActiveID)); err != nil {
			idx.ActiveID = ids[len(ids)-1]
			idx.History = append(idx.History, AuditEntry{
				DocID:     idx.ActiveID,
				CreatedAt: d.nowISO(),
				Note:      "repair: set active to latest",
			})
			d.log.Info("repair: repointed active", "domain", d.name, "doc_id", idx.ActiveID)
		}

		maxID, _ := parseDocID(ids[len(ids)-1])
		if expected := maxID + 1; idx.NextID < expected {
			idx.NextID = expected
			idx.History = append(idx.History, AuditEntry{
				DocID:     idx.ActiveID,
				CreatedAt: d.nowISO(),
				Note:      fmt.Sprintf("repair: set next_id=%d", expected),
			})
			d.log.Info("repair: raised next_id", "domain", d.name, "next_id", expected)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	return d.Validate(), nil
}
