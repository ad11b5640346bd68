// Package redis keeps the client cache in Redis, so several hrdesk processes
// on one machine can share a session.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
)

const DefaultPrefix = "hrdesk:"

type Backend struct {
	client redis.UniversalClient
	prefix string
}

// NewBackend creates a backend using DefaultPrefix.
func NewBackend(client redis.UniversalClient) *Backend {
	return NewBackendWithPrefix(client, DefaultPrefix)
}

// NewBackendWithPrefix creates a backend with a custom key prefix.
func NewBackendWithPrefix(client redis.UniversalClient, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

// NewStore dials addr and wraps the connection in the typed store.
func NewStore(addr, password string, db int, opts ...store.Option) store.Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return store.New(NewBackend(client), opts...)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Set stores value without a TTL, expiry is the session manager's call.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, b.prefix+key, value, 0).Err()
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.prefix + k
	}
	return b.client.Del(ctx, full...).Err()
}

// ApplyMigrations is a no-op, there is no schema.
func (b *Backend) ApplyMigrations() error { return nil }

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error { return b.client.Close() }
