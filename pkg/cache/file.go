package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// File is a cache store that keeps one JSON file per key under a directory.
// It is backed by an afero filesystem so tests can run against an in-memory
// filesystem.
type File struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFile creates a file-backed store rooted at dir, creating it if needed.
func NewFile(fs afero.Fs, dir string) (*File, error) {
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &File{
		fs:  fs,
		dir: dir,
		now: time.Now,
	}, nil
}

// Get returns the value for key, treating expired or unreadable entries as
// absent.
func (f *File) Get(key string) ([]byte, bool) {
	raw, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		return nil, false
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, false
	}
	if f.now().After(e.ExpiresAt) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key with the given TTL.
func (f *File) Set(key string, value []byte, ttl time.Duration) error {
	raw, err := json.Marshal(fileEntry{
		Value:     value,
		ExpiresAt: f.now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := afero.WriteFile(f.fs, f.path(key), raw, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes key from the store.
func (f *File) Delete(key string) error {
	err := f.fs.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// path maps a cache key to a file path. Keys are composed from resource
// types and identifiers; path separators are not expected but are replaced
// anyway so a hostile key cannot escape the cache directory.
func (f *File) path(key string) string {
	key = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, key+".json")
}
