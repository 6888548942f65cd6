// Package runlock provides the per-task exclusive run lock. The lock is a
// filesystem advisory lock, one file per task, so mutual exclusion holds
// across independent supervisor processes started by launchd.
//
// Acquisition is always non-blocking: contention means a run of the same
// task is already in flight, and the correct response is to skip, never to
// queue or retry.
package runlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// RunLock guards one task's execution.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// New creates a run lock backed by the given lock file path.
func New(path string) *RunLock {
	return &RunLock{flock: flock.New(path), path: path}
}

// Path returns the lock file path.
func (l *RunLock) Path() string { return l.path }

// TryAcquire attempts to take the exclusive lock without blocking.
// It returns false when another process holds the lock, and an error only
// for infrastructure failures (unwritable lock file).
func (l *RunLock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release drops the lock. Safe to call whether or not the lock is held.
func (l *RunLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}

// Held probes whether the lock is currently held by some process. It
// acquires and immediately releases on a free lock, so it must never be
// called on a lock the caller intends to keep.
func Held(path string) (bool, error) {
	probe := flock.New(path)
	acquired, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock %s: %w", path, err)
	}
	if !acquired {
		return true, nil
	}
	if err := probe.Unlock(); err != nil {
		return false, fmt.Errorf("release probe lock %s: %w", path, err)
	}
	return false, nil
}
