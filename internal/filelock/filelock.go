// Package filelock provides advisory file locking for coordinating
// settings writes between concurrent checkboard processes.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	lockFileMode  = 0o600
	retryInterval = 10 * time.Millisecond
)

// ErrTimeout is returned when the lock could not be acquired before the
// context was done.
var ErrTimeout = errors.New("timed out waiting for lock")

// Lock acquires an exclusive advisory lock on the file at path, creating it
// if it does not exist. It waits without a deadline. The returned function
// releases the lock.
func Lock(path string) (unlock func() error, err error) {
	return LockContext(context.Background(), path)
}

// LockContext is Lock bounded by ctx. It polls with a non-blocking attempt
// so that a cancelled context is noticed promptly.
func LockContext(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, err
	}

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		case <-time.After(retryInterval):
		}
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
