// Package runlock enforces the invariant that one run owns an output tree
// exclusively: no two concurrent invocations may write the same output
// location.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock holds the advisory file lock for one output tree.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes a non-blocking exclusive lock on the given lock file,
// creating parent directories as needed. It fails immediately when another
// run already owns the tree.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("output tree is locked by another run (%s)", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
