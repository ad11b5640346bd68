package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store/drivers/memory"
	"github.com/aussiebroadwan/hrdesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	_, err := st.Tokens().GetTokens(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	pair := domain.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60}
	require.NoError(t, st.Tokens().SaveTokens(ctx, pair))

	got, err := st.Tokens().GetTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, pair, got)

	require.NoError(t, st.Tokens().ClearTokens(ctx))
	_, err = st.Tokens().GetTokens(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfilesAndActivity(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	user := domain.UserSession{ID: "1", Email: "ana@uni.edu", Roles: []string{"USER"}}
	emp := domain.EmployeeDetails{EmployeeID: 15, Email: "ana@uni.edu", ImmediateBossID: 3}
	require.NoError(t, st.Profiles().SaveUser(ctx, user))
	require.NoError(t, st.Profiles().SaveEmployee(ctx, emp))

	gotUser, err := st.Profiles().GetUser(ctx)
	require.NoError(t, err)
	require.Equal(t, user, gotUser)

	gotEmp, err := st.Profiles().GetEmployee(ctx)
	require.NoError(t, err)
	require.Equal(t, emp, gotEmp)

	at := time.UnixMilli(1_741_600_000_000)
	require.NoError(t, st.Activity().TouchActivity(ctx, at))
	last, err := st.Activity().LastActivity(ctx)
	require.NoError(t, err)
	require.True(t, at.Equal(last))

	require.NoError(t, st.Profiles().ClearProfiles(ctx))
	_, err = st.Profiles().GetUser(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Profiles().GetEmployee(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSealedTokens(t *testing.T) {
	ctx := context.Background()
	sealer, err := cryptox.NewSealer([]byte("cache-key-for-tests"))
	require.NoError(t, err)

	backend := memory.New()
	st := store.New(backend, store.WithSealer(sealer))

	pair := domain.TokenPair{AccessToken: "secret-access", RefreshToken: "secret-refresh"}
	require.NoError(t, st.Tokens().SaveTokens(ctx, pair))

	raw, err := backend.Get(ctx, store.KeyTokens)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-access")

	got, err := st.Tokens().GetTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, pair, got)

	// A different key can't open it
	other, err := cryptox.NewSealer([]byte("another-key"))
	require.NoError(t, err)
	_, err = store.New(backend, store.WithSealer(other)).Tokens().GetTokens(ctx)
	require.ErrorIs(t, err, store.ErrCorrupt)
}

func TestCorruptValue(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	require.NoError(t, backend.Set(ctx, store.KeyEmployee, []byte("{not json")))

	_, err := store.New(backend).Profiles().GetEmployee(ctx)
	require.ErrorIs(t, err, store.ErrCorrupt)
}
