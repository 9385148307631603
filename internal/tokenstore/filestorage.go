package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage is a Storage persisted as a JSON object of strings.
// The file is read once at open; every write rewrites it atomically
// under a lock file so concurrent processes do not corrupt it.
type FileStorage struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFileStorage loads the storage at path. A missing file is an empty
// storage; an unreadable or corrupt file is reported.
func OpenFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStorage) Path() string { return f.path }

// Get implements Storage.
func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Set implements Storage.
func (f *FileStorage) Set(key, value string) error {
	return f.update(func(values map[string]string) {
		values[key] = value
	})
}

// Remove implements Storage. When the storage becomes empty the file is
// deleted.
func (f *FileStorage) Remove(keys ...string) error {
	return f.update(func(values map[string]string) {
		for _, k := range keys {
			delete(values, k)
		}
	})
}

func (f *FileStorage) update(apply func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	lock, err := acquireFileLock(f.path)
	if err != nil {
		return err
	}
	defer lock.release()

	next := maps.Clone(f.values)
	if next == nil {
		next = make(map[string]string)
	}
	apply(next)

	if err := f.write(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileStorage) write(values map[string]string) error {
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			return fmt.Errorf("failed to rename temp file: %v; additionally failed to remove temp file: %w", err, rmErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
