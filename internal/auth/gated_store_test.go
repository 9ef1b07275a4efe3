package auth

import (
	"context"
	"sync"

	"github.com/veotube/backend/internal/kv"
)

// gatedStore holds the first Put until release is closed.
type gatedStore struct {
	*kv.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: kv.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) Put(ctx context.Context, key string, value []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.MemoryStore.Put(ctx, key, value)
}
