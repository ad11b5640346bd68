package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the persisted client cache: token pair, profile and last activity.
// The backend stays the source of truth, so writes are last-write-wins and
// nothing here is transactional.
type Store interface {
	Tokens() Tokens
	Profiles() Profiles
	Activity() Activity

	ApplyMigrations() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type Tokens interface {
	// GetTokens returns ErrNotFound when nothing is stored.
	GetTokens(ctx context.Context) (domain.TokenPair, error)
	SaveTokens(ctx context.Context, p domain.TokenPair) error
	ClearTokens(ctx context.Context) error
}

type Profiles interface {
	GetUser(ctx context.Context) (domain.UserSession, error)
	SaveUser(ctx context.Context, u domain.UserSession) error

	GetEmployee(ctx context.Context) (domain.EmployeeDetails, error)
	SaveEmployee(ctx context.Context, e domain.EmployeeDetails) error

	// ClearProfiles removes both the user and employee records.
	ClearProfiles(ctx context.Context) error
}

type Activity interface {
	LastActivity(ctx context.Context) (time.Time, error)
	TouchActivity(ctx context.Context, at time.Time) error
	ClearActivity(ctx context.Context) error
}

// Backend is the raw key/value storage a driver provides.
type Backend interface {
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}
