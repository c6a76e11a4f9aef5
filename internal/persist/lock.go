package persist

import (
	"context"
	"fmt"
	"os"
	"time"
)

// LockOptions controls domain lock acquisition.
type LockOptions struct {
	// Timeout bounds the total wait for the lock. Zero means the
	// default (10s).
	Timeout time.Duration

	// PollInterval is the fixed retry interval while the sentinel
	// exists. Zero means the default (100ms).
	PollInterval time.Duration
}

const (
	defaultLockTimeout = 10 * time.Second
	defaultLockPoll    = 100 * time.Millisecond
)

func (o LockOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultLockTimeout
	}
	return o.Timeout
}

func (o LockOptions) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return defaultLockPoll
	}
	return o.PollInterval
}

// acquireLock takes the domain's advisory lock by creating the sentinel
// file with O_EXCL, polling on a fixed interval until success, timeout,
// or context cancellation. The sentinel records pid and UTC time for
// manual diagnosis of contention.
//
// Known gap, preserved from the original protocol: a process that
// crashes while holding the lock leaves a stale sentinel that only the
// acquire timeout of later callers works around. There is no
// PID/heartbeat staleness check.
func (d *Domain) acquireLock(ctx context.Context) (release func(), err error) {
	if err := os.MkdirAll(d.Dir(), 0o755); err != nil {
		return nil, domainErrorf(ErrCodeWriteFailed, d.name, d.Dir(), "create domain dir: %v", err)
	}

	lockPath := d.lockPath()
	deadline := time.Now().Add(d.lock.timeout())

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			// Wall clock on purpose: the sentinel is contention
			// diagnostics, not part of the audit trail.
			utc := time.Now().UTC().Format("2006-01-02T15:04:05Z")
			fmt.Fprintf(f, "pid=%d utc=%s\n", os.Getpid(), utc)
			f.Close()
			return func() {
				// Best-effort: a failed removal must not mask the
				// caller's result; later waiters time out instead.
				os.Remove(lockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, domainErrorf(ErrCodeWriteFailed, d.name, lockPath, "create lock sentinel: %v", err)
		}

		if time.Now().After(deadline) {
			return nil, domainErrorf(ErrCodeLockTimeout, d.name, lockPath, "timed out waiting for domain lock after %s", d.lock.timeout())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.lock.pollInterval()):
		}
	}
}

// WithLock runs fn while holding the domain lock. The lock guards only
// the read-mutate-write cycle of index updates; History editing
// sessions are single-writer by contract and are not covered.
func (d *Domain) WithLock(ctx context.Context, fn func() error) error {
	release, err := d.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
