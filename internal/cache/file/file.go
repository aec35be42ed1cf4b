// Package file is a durable cache backend storing one JSON file per entry.
//
// Files are named <key>.json inside the cache directory, which is created
// on first write. Writes go to a temporary file that is renamed into place,
// so readers never see a partial document. The file's modification time is
// the entry's build time.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mfenderov/jsonld/internal/cache"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store keeps entries as files under a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is not touched until the
// first Put.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.Entry{}, false, err
	}

	f, err := os.Open(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to stat cache file: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}

	return cache.Entry{Document: string(data), BuiltAt: info.ModTime()}, true, nil
}

// Put implements cache.Store.
func (s *Store) Put(ctx context.Context, key, document string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, document); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set cache file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}

	return nil
}

// IsStale implements cache.Store using the file's modification time.
func (s *Store) IsStale(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}

	info, err := os.Stat(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat cache file: %w", err)
	}

	return info.ModTime().Before(modifiedAt), nil
}

// Invalidate implements cache.Store.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}
