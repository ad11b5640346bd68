// Package memory is an in-process store backend. Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
)

type Backend struct {
	mu sync.RWMutex
	kv map[string][]byte
}

func New() *Backend {
	return &Backend{kv: make(map[string][]byte)}
}

// NewStore is shorthand for store.New(memory.New(), opts...).
func NewStore(opts ...store.Option) store.Store {
	return store.New(New(), opts...)
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.kv[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.kv[key] = slices.Clone(value)
	return nil
}

func (b *Backend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		delete(b.kv, k)
	}
	return nil
}

func (b *Backend) ApplyMigrations() error     { return nil }
func (b *Backend) Ping(context.Context) error { return nil }
func (b *Backend) Close() error               { return nil }
