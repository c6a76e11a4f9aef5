package persist

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes domain-layer failures.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a missing revision file or domain.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeLockTimeout indicates the domain lock could not be acquired
	// before the deadline. The caller decides whether to retry with
	// backoff or surface "busy".
	ErrCodeLockTimeout ErrorCode = "LOCK_TIMEOUT"

	// ErrCodeCorrupt indicates an index or revision file that exists but
	// does not parse. Use Repair for the index case.
	ErrCodeCorrupt ErrorCode = "CORRUPT"

	// ErrCodeWriteFailed indicates a durable-write failure; Path names
	// the file involved.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"

	// ErrCodeInvalidSelector indicates a doc selector that is neither
	// "active", "latest", nor a 4-digit id.
	ErrCodeInvalidSelector ErrorCode = "INVALID_SELECTOR"

	// ErrCodeInvalidArchive indicates a rejected archive import
	// (bad strategy, unsafe member path, missing file).
	ErrCodeInvalidArchive ErrorCode = "INVALID_ARCHIVE"

	// ErrCodeExists indicates a refused overwrite of an existing target.
	ErrCodeExists ErrorCode = "EXISTS"
)

// DomainError is the error type for all persist-layer failures. Code is
// a closed set; Path, when non-empty, names the file involved for
// diagnostics.
type DomainError struct {
	Code   ErrorCode
	Domain string
	Path   string
	Msg    string
	Err    error
}

func (e *DomainError) Error() string {
	s := fmt.Sprintf("%s: %s", e.Code, e.Msg)
	if e.Domain != "" {
		s += fmt.Sprintf(" (domain=%s)", e.Domain)
	}
	if e.Path != "" {
		s += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-revision/domain error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsLockTimeout reports whether err is a lock acquisition timeout.
func IsLockTimeout(err error) bool { return hasCode(err, ErrCodeLockTimeout) }

// IsCorrupt reports whether err is an unparsable index/revision error.
func IsCorrupt(err error) bool { return hasCode(err, ErrCodeCorrupt) }

func hasCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

func domainErrorf(code ErrorCode, domain, path string, format string, args ...any) *DomainError {
	return &DomainError{
		Code:   code,
		Domain: domain,
		Path:   path,
		Msg:    fmt.Sprintf(format, args...),
	}
}
