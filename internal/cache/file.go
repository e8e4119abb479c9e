package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/sigil/internal/errors"
)

// filePrefix marks files owned by a FileCache.
const filePrefix = "cache_"

// FileCache stores one file per key in a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache in dir, creating the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.NewConfigError(errors.ErrCodeCacheBackend, "file cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeCacheBackend,
			fmt.Sprintf("file cache directory `%s` is unavailable", dir)).WithCause(err)
	}

	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, filePrefix+FriendlyName("", key))
}

// Add writes value to the key's file.
func (c *FileCache) Add(key string, value []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp_")
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	return os.Rename(tmp.Name(), c.path(key))
}

// Get reads the key's file.
func (c *FileCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	return data, true
}

// Delete removes the key's file. Missing keys are not an error.
func (c *FileCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Exists reports whether the key's file exists.
func (c *FileCache) Exists(key string) bool {
	_, err := os.Stat(c.path(key))

	return err == nil
}

// Clear removes every cache file in the directory.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}

	return nil
}
