package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	_ "modernc.org/sqlite"
)

// Backend keeps the client cache in a single kv table.
type Backend struct {
	db  *sql.DB
	now func() time.Time
}

func NewBackend(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// WAL lets the daemon and one-shot commands share the file
	if _, err := db.ExecContext(context.Background(), `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Backend{
		db:  db,
		now: time.Now,
	}, nil
}

// NewStore opens dsn and wraps it in the typed store.
func NewStore(dsn string, opts ...store.Option) (store.Store, error) {
	b, err := NewBackend(dsn)
	if err != nil {
		return nil, err
	}
	return store.New(b, opts...), nil
}

func (b *Backend) Close() error { return b.db.Close() }

// Ping verifies the database connection is still alive.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return v, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, b.now().UnixMilli(),
	)
	return err
}

func (b *Backend) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
