// Package kv holds the key-value stores that mirror session state to local storage.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound indicates the key has no stored value.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey indicates the key cannot be stored by any backend.
	ErrInvalidKey = errors.New("invalid key")
)

// Store persists opaque values (UTF-8 JSON in practice) by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// StorageError describes a failed store operation.
type StorageError struct {
	Op      string
	Backend string
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// ValidateKey rejects keys that would escape a directory or table namespace.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
