// Package registry persists compiled route registries. The compiler
// writes through a Store once per compile; serve hosts read through one
// at process start. Stores move opaque bytes: the registry wire format
// itself lives in pkg/router.
package registry

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsroute-dev/fsroute/internal/errors"
)

// Store reads and writes a serialized route registry.
type Store interface {
	// Save overwrites the stored registry with data.
	Save(ctx context.Context, data []byte) error

	// Load returns the stored registry bytes.
	Load(ctx context.Context) ([]byte, error)
}

// FileStore persists the registry as a local file.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the destination file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the registry via a temp file and rename, so a crashed
// compile never leaves a truncated registry behind for serve hosts.
func (s *FileStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New("E020").WithDetail("Cannot create " + dir).Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.New("E020").WithDetail("Cannot write to " + dir).Wrap(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.New("E020").Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.New("E020").Wrap(err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.New("E020").Wrap(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.New("E020").WithDetail("Cannot replace " + s.path).Wrap(err)
	}
	return nil
}

// Load reads the registry file.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.New("E021").
			WithDetail("Cannot read " + s.path).
			WithSuggestion("Run 'fsroute compile' to produce a registry").
			Wrap(err)
	}
	return data, nil
}
