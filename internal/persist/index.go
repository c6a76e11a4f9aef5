package persist

import (
	"encoding/json"
	"strconv"
)

// SeedDocID is the revision id written when a domain is first seeded.
const SeedDocID = "0001"

// AuditEntry is one item of the index audit trail. The trail is
// user-visible provenance, not relied upon for correctness.
type AuditEntry struct {
	DocID     string `json:"doc_id"`
	CreatedAt string `json:"created_at"`
	Note      string `json:"note,omitempty"`
}

// Index is the per-domain on-disk index. ActiveID must name an existing
// revision file; NextID must exceed every existing numeric id. Both
// invariants are restored by Repair when violated.
//
// This is the canonical index schema: schema identity deliberately
// lives with the loader binding, not in the index.
type Index struct {
	ActiveID string       `json:"active_id"`
	NextID   int          `json:"next_id"`
	History  []AuditEntry `json:"history"`
}

// DefaultIndex returns the index of a freshly seeded domain: revision
// 0001 active, next allocation 2.
func DefaultIndex() Index {
	return Index{ActiveID: SeedDocID, NextID: 2, History: []AuditEntry{}}
}

func decodeIndex(data []byte) (Index, error) {
	idx := DefaultIndex()
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, err
	}
	if idx.History == nil {
		idx.History = []AuditEntry{}
	}
	return idx, nil
}

func encodeIndex(idx Index) ([]byte, error) {
	if idx.History == nil {
		idx.History = []AuditEntry{}
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// parseDocID parses a 4-digit doc id into its numeric value.
// "0001" -> 1; anything else (wrong length, non-digits) is rejected.
func parseDocID(stem string) (int, bool) {
	if len(stem) != 4 {
		return 0, false
	}
	for _, c := range stem {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatDocID renders a numeric id in the 4-digit on-disk form.
func FormatDocID(n int) string {
	return formatID(n)
}

func formatID(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
