package tokenstore

import (
	"fmt"
	"os"
	"time"
)

const (
	lockRetries    = 50
	lockRetryDelay = 100 * time.Millisecond

	// Locks older than this are left over from a crashed process.
	staleLockAge = 30 * time.Second
)

// fileLock is an exclusive lock held through a sibling ".lock" file.
type fileLock struct {
	file *os.File
	path string
}

// acquireFileLock locks path for writing, waiting for other processes
// that hold the lock and breaking stale locks.
func acquireFileLock(path string) (*fileLock, error) {
	lockPath := path + ".lock"

	for i := 0; i < lockRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d", os.Getpid())
			return &fileLock{file: f, path: lockPath}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			if rmErr := os.Remove(lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, fmt.Errorf("failed to remove stale lock %s: %w", lockPath, rmErr)
			}
			continue
		}

		time.Sleep(lockRetryDelay)
	}

	return nil, fmt.Errorf("timeout waiting for session lock after %v", lockRetries*lockRetryDelay)
}

func (l *fileLock) release() error {
	if l.file != nil {
		l.file.Close()
	}
	return os.Remove(l.path)
}
