package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// buildLock serializes builds of one root across processes.
type buildLock struct {
	flock  *flock.Flock
	locked bool
}

func newBuildLock(root string) *buildLock {
	return &buildLock{flock: flock.New(LockPath(root))}
}

// Lock blocks until the lock is held or ctx is done.
func (l *buildLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire build lock: %s", l.flock.Path())
	}
	l.locked = true
	return nil
}

// TryLock acquires the lock without blocking.
func (l *buildLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire build lock: %w", err)
	}
	l.locked = ok
	return ok, nil
}

// Unlock is safe to call on an unlocked lock.
func (l *buildLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release build lock: %w", err)
	}
	return nil
}
