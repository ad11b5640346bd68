package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/pkg/cryptox"
)

const (
	KeyTokens       = "auth.tokens"
	KeyUser         = "auth.user"
	KeyEmployee     = "auth.employee"
	KeyLastActivity = "auth.last_activity"
)

// ErrCorrupt is returned when a stored value can't be decoded (or opened).
var ErrCorrupt = errors.New("store: corrupt value")

type Option func(*kvStore)

// WithSealer encrypts the token pair at rest.
func WithSealer(s *cryptox.Sealer) Option {
	return func(k *kvStore) { k.sealer = s }
}

type kvStore struct {
	b      Backend
	sealer *cryptox.Sealer
}

// New layers the typed repositories over b.
func New(b Backend, opts ...Option) Store {
	k := &kvStore{b: b}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *kvStore) Tokens() Tokens                 { return tokensRepo{k} }
func (k *kvStore) Profiles() Profiles             { return profilesRepo{k} }
func (k *kvStore) Activity() Activity             { return activityRepo{k} }
func (k *kvStore) ApplyMigrations() error         { return k.b.ApplyMigrations() }
func (k *kvStore) Ping(ctx context.Context) error { return k.b.Ping(ctx) }
func (k *kvStore) Close() error                   { return k.b.Close() }

func (k *kvStore) getJSON(ctx context.Context, key string, sealed bool, v any) error {
	raw, err := k.b.Get(ctx, key)
	if err != nil {
		return err
	}

	if sealed && k.sealer != nil {
		raw, err = k.sealer.Open(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
		}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func (k *kvStore) setJSON(ctx context.Context, key string, sealed bool, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if sealed && k.sealer != nil {
		raw, err = k.sealer.Seal(raw)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
	}

	return k.b.Set(ctx, key, raw)
}

// ============================================================================
// Tokens
// ============================================================================

type tokensRepo struct{ k *kvStore }

func (r tokensRepo) GetTokens(ctx context.Context) (domain.TokenPair, error) {
	var p domain.TokenPair
	if err := r.k.getJSON(ctx, KeyTokens, true, &p); err != nil {
		return domain.TokenPair{}, err
	}
	return p, nil
}

func (r tokensRepo) SaveTokens(ctx context.Context, p domain.TokenPair) error {
	return r.k.setJSON(ctx, KeyTokens, true, p)
}

func (r tokensRepo) ClearTokens(ctx context.Context) error {
	return r.k.b.Delete(ctx, KeyTokens)
}

// ============================================================================
// Profiles
// ============================================================================

type profilesRepo struct{ k *kvStore }

func (r profilesRepo) GetUser(ctx context.Context) (domain.UserSession, error) {
	var u domain.UserSession
	if err := r.k.getJSON(ctx, KeyUser, false, &u); err != nil {
		return domain.UserSession{}, err
	}
	return u, nil
}

func (r profilesRepo) SaveUser(ctx context.Context, u domain.UserSession) error {
	return r.k.setJSON(ctx, KeyUser, false, u)
}

func (r profilesRepo) GetEmployee(ctx context.Context) (domain.EmployeeDetails, error) {
	var e domain.EmployeeDetails
	if err := r.k.getJSON(ctx, KeyEmployee, false, &e); err != nil {
		return domain.EmployeeDetails{}, err
	}
	return e, nil
}

func (r profilesRepo) SaveEmployee(ctx context.Context, e domain.EmployeeDetails) error {
	return r.k.setJSON(ctx, KeyEmployee, false, e)
}

func (r profilesRepo) ClearProfiles(ctx context.Context) error {
	return r.k.b.Delete(ctx, KeyUser, KeyEmployee)
}

// ============================================================================
// Activity
// ============================================================================

type activityRepo struct{ k *kvStore }

// Stored as unix milliseconds, same as the browser did.
func (r activityRepo) LastActivity(ctx context.Context) (time.Time, error) {
	var ms int64
	if err := r.k.getJSON(ctx, KeyLastActivity, false, &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (r activityRepo) TouchActivity(ctx context.Context, at time.Time) error {
	return r.k.setJSON(ctx, KeyLastActivity, false, at.UnixMilli())
}

func (r activityRepo) ClearActivity(ctx context.Context) error {
	return r.k.b.Delete(ctx, KeyLastActivity)
}
