package kv

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps values in an embedded badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a badger database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: "badger", Err: err}
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, &StorageError{Op: "get", Backend: "badger", Key: key, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "get", Backend: "badger", Key: key, Err: err}
	}
	return out, nil
}

func (s *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "badger", Key: key, Err: err}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &StorageError{Op: "put", Backend: "badger", Key: key, Err: err}
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &StorageError{Op: "delete", Backend: "badger", Key: key, Err: err}
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
