package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock is an advisory, inter-process file lock backed by platform flock
// primitives (unix.Flock / Windows LockFileEx, see lock_unix.go /
// lock_windows.go). It blocks other processes and goroutines targeting the
// same path, modeled on the shape of the pack's vendored
// go.podman.io/storage/pkg/lockfile, generalized to ToolchainKit's
// per-toolchain-id locking needs (§4.1 step 2, §5).
type Lock struct {
	path string
	file *os.File
}

// NewLock returns a Lock for the given path without acquiring it. The
// directory containing path is created if necessary.
func NewLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory for %s: %w", path, err)
	}
	return &Lock{path: path}, nil
}

// Acquire blocks until the lock is held, opening (creating if needed) the
// backing file. Every exit path — including a later panic during the
// critical section — is expected to call Release via defer.
func (l *Lock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file %s: %w", l.path, err)
	}
	if err := platformLockExclusive(f); err != nil {
		f.Close()
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	l.file = f
	return nil
}

// Release unlocks and closes the backing file. Safe to call on a Lock that
// was never successfully acquired.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	err := platformUnlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return closeErr
}

// WithLock acquires the named lock, runs fn, and releases the lock
// regardless of whether fn returns an error or panics.
func WithLock(path string, fn func() error) (err error) {
	lock, err := NewLock(path)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn()
}
