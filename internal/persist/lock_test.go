package persist

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLock_SentinelLifecycle(t *testing.T) {
	d := testDomain(t)
	ctx := context.Background()

	err := d.WithLock(ctx, func() error {
		_, statErr := os.Stat(d.lockPath())
		assert.NoError(t, statErr, "sentinel should exist while locked")
		return nil
	})
	require.NoError(t, err)

	_, statErr := os.Stat(d.lockPath())
	assert.True(t, os.IsNotExist(statErr), "sentinel should be removed after release")
}

func TestWithLock_Timeout(t *testing.T) {
	root := t.TempDir()
	d := Open(root, "demo", WithLockOptions(LockOptions{
		Timeout:      50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}))
	ctx := context.Background()

	// Simulate another holder by planting the sentinel directly.
	require.NoError(t, os.MkdirAll(d.Dir(), 0o755))
	require.NoError(t, os.WriteFile(d.lockPath(), []byte("pid=1 utc=x\n"), 0o644))

	err := d.WithLock(ctx, func() error { return nil })
	require.Error(t, err)
	assert.True(t, IsLockTimeout(err))
}

func TestWithLock_ContextCancel(t *testing.T) {
	root := t.TempDir()
	d := Open(root, "demo", WithLockOptions(LockOptions{
		Timeout:      time.Minute,
		PollInterval: 10 * time.Millisecond,
	}))

	require.NoError(t, os.MkdirAll(d.Dir(), 0o755))
	require.NoError(t, os.WriteFile(d.lockPath(), []byte("pid=1 utc=x\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.WithLock(ctx, func() error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAllocateNextID_ConcurrentNoDuplicates(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	seedDomain := Open(root, "demo")
	require.NoError(t, seedDomain.EnsureSeeded(ctx, nil))

	const goroutines = 8
	const perGoroutine = 5

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker uses its own handle, as separate processes would.
			d := Open(root, "demo", WithLockOptions(LockOptions{
				Timeout:      30 * time.Second,
				PollInterval: 2 * time.Millisecond,
			}))
			for j := 0; j < perGoroutine; j++ {
				id, err := d.AllocateNextID(ctx, "")
				assert.NoError(t, err)
				ids <- id
			}
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %s allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)

	idx, err := seedDomain.ReadIndex()
	require.NoError(t, err)
	assert.Equal(t, 2+goroutines*perGoroutine, idx.NextID)
}
