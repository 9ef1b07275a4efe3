package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FileStore writes one JSON file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore prepares dir for use as a store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "open", Backend: "file", Err: err}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, &StorageError{Op: "get", Backend: "file", Key: key, Err: err}
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &StorageError{Op: "get", Backend: "file", Key: key, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "get", Backend: "file", Key: key, Err: err}
	}
	return data, nil
}

// Put replaces the file atomically so readers never observe a partial snapshot.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "file", Key: key, Err: err}
	}

	pending, err := renameio.NewPendingFile(s.path(key), renameio.WithPermissions(0o600))
	if err != nil {
		return &StorageError{Op: "put", Backend: "file", Key: key, Err: err}
	}
	defer pending.Cleanup()

	if _, err := pending.Write(value); err != nil {
		return &StorageError{Op: "put", Backend: "file", Key: key, Err: fmt.Errorf("write: %w", err)}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &StorageError{Op: "put", Backend: "file", Key: key, Err: fmt.Errorf("replace: %w", err)}
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "delete", Backend: "file", Key: key, Err: err}
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: "delete", Backend: "file", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
