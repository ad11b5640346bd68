package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/session"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store/drivers/memory"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
	"github.com/aussiebroadwan/hrdesk/pkg/jwtx"
)

// ============================================================================
// Password login
// ============================================================================

func TestLoginSuccess(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.signIn(t)

	s := h.m.State()
	require.True(t, s.IsAuthenticated)
	require.False(t, s.IsLoading)
	require.True(t, s.User.Equal(&anaUser))
	require.True(t, s.Employee.Equal(&anaEmployee))
	require.Equal(t, t0, h.m.LastActivity())

	emp, boss := h.m.Identity()
	require.Equal(t, int64(15), emp)
	require.Equal(t, int64(3), boss)

	n := h.lastNote(t)
	require.Equal(t, "Signed in", n.Title)
	require.Equal(t, "Welcome, Ana Pérez.", n.Description)
	require.Equal(t, notify.SeveritySuccess, n.Severity)

	stored, err := h.st.Tokens().GetTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, "refresh-1", stored.RefreshToken)
	_, err = h.st.Profiles().GetUser(context.Background())
	require.NoError(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.api.loginFn = func(string, string) (domain.TokenPair, error) {
		return domain.TokenPair{}, &hrsdk.APIError{StatusCode: 401, Code: hrsdk.ErrorCodeInvalidCredentials}
	}

	err := h.m.Login(context.Background(), "ana@uni.edu", "wrong")
	require.Error(t, err)
	require.True(t, hrsdk.IsInvalidCredentials(err))

	s := h.m.State()
	require.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	require.False(t, s.IsLoading)
	require.Zero(t, h.api.Calls("user"))

	_, err = h.st.Tokens().GetTokens(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.signIn(t)

	h.api.loginFn = func(string, string) (domain.TokenPair, error) {
		return domain.TokenPair{}, &hrsdk.NetworkError{Op: "POST /api/auth/login", Err: context.DeadlineExceeded}
	}
	err := h.m.Login(context.Background(), "ana@uni.edu", "pw")
	require.True(t, hrsdk.IsNetwork(err))
	require.Equal(t, domain.PhaseAuthenticated, h.m.State().Phase)
}

// ============================================================================
// Push login
// ============================================================================

func TestLoginEventApplied(t *testing.T) {
	h := newHarness(t, session.Config{})

	h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))

	s := h.m.State()
	require.Equal(t, domain.PhaseAuthenticated, s.Phase)
	require.Equal(t, "7", s.User.ID)
	require.Equal(t, "Ana Pérez", s.User.DisplayName)
	require.True(t, s.Employee.Equal(&anaEmployee))
	require.Equal(t, []string{session.RouteHome}, h.nav.All())
	require.Equal(t, "Signed in", h.lastNote(t).Title)

	live, err := h.m.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, "push-access", live.AccessToken)
}

func TestLoginEventAppliedOnce(t *testing.T) {
	cases := map[string]string{
		"explicit id":   "evt-1",
		"composite key": "",
	}

	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, session.Config{})

			h.m.HandleLoginEvent(context.Background(), loginEvent(id))
			h.m.HandleLoginEvent(context.Background(), loginEvent(id))

			require.Equal(t, 1, h.api.Calls("employee"))
			require.Equal(t, []string{session.RouteHome}, h.nav.All())
			require.Len(t, h.notes.All(), 1)
		})
	}
}

func TestLoginEventConcurrentRepeats(t *testing.T) {
	h := newHarness(t, session.Config{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, h.api.Calls("employee"))
	require.Equal(t, []string{session.RouteHome}, h.nav.All())
	require.Equal(t, domain.PhaseAuthenticated, h.m.State().Phase)
}

func TestLoginEventIgnored(t *testing.T) {
	cases := map[string]domain.LoginEvent{
		"other type": func() domain.LoginEvent {
			ev := loginEvent("evt-1")
			ev.EventType = "Notification"
			return ev
		}(),
		"no tokens": func() domain.LoginEvent {
			ev := loginEvent("evt-2")
			ev.Pair = domain.TokenPair{}
			return ev
		}(),
	}

	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, session.Config{})
			h.m.HandleLoginEvent(context.Background(), ev)

			require.Equal(t, domain.PhaseAuthenticating, h.m.State().Phase)
			require.Zero(t, h.api.Calls("employee"))
			require.Empty(t, h.nav.All())
			require.Empty(t, h.notes.All())
		})
	}
}

// ============================================================================
// Mutual exclusion
// ============================================================================

func TestLoginEventDroppedDuringPasswordLogin(t *testing.T) {
	h := newHarness(t, session.Config{})

	tok := accessToken(t, t0.Add(time.Hour))
	entered, release := make(chan struct{}), make(chan struct{})
	h.api.loginFn = func(string, string) (domain.TokenPair, error) {
		close(entered)
		<-release
		return domain.TokenPair{AccessToken: tok, RefreshToken: "refresh-1"}, nil
	}

	done := make(chan error, 1)
	go func() { done <- h.m.Login(context.Background(), "ana@uni.edu", "pw") }()
	<-entered

	h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
	close(release)
	require.NoError(t, <-done)

	s := h.m.State()
	require.True(t, s.User.Equal(&anaUser))
	require.Equal(t, 1, h.api.Calls("employee"))
	require.Empty(t, h.nav.All(), "the dropped push login never navigates")

	live, err := h.m.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, tok, live.AccessToken)
}

func TestPasswordLoginRejectedDuringLoginEvent(t *testing.T) {
	h := newHarness(t, session.Config{})

	entered, release := make(chan struct{}), make(chan struct{})
	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		close(entered)
		<-release
		return anaEmployee, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
	}()
	<-entered

	err := h.m.Login(context.Background(), "ana@uni.edu", "pw")
	require.ErrorIs(t, err, session.ErrLoginInProgress)
	require.Zero(t, h.api.Calls("login"))

	close(release)
	<-done

	s := h.m.State()
	require.Equal(t, domain.PhaseAuthenticated, s.Phase)
	require.Equal(t, "Ana Pérez", s.User.DisplayName)
	require.Equal(t, []string{session.RouteHome}, h.nav.All())
}

func TestLoginEventDroppedDuringStartupCheck(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.seed(t, domain.TokenPair{AccessToken: accessToken(t, t0.Add(-time.Minute)), RefreshToken: "r"}, &anaUser, nil)

	fresh := accessToken(t, t0.Add(time.Hour))
	entered, release := make(chan struct{}), make(chan struct{})
	h.api.refreshFn = func(string) (domain.TokenPair, error) {
		close(entered)
		<-release
		return domain.TokenPair{AccessToken: fresh}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.Start(context.Background())
	}()
	<-entered

	h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
	close(release)
	<-done

	require.Equal(t, domain.PhaseAuthenticated, h.m.State().Phase)
	require.Equal(t, 1, h.api.Calls("employee"))
	require.Empty(t, h.nav.All())

	live, err := h.m.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, fresh, live.AccessToken)
}

func TestStartupCheckSkippedDuringLoginEvent(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.seed(t, domain.TokenPair{AccessToken: accessToken(t, t0.Add(-time.Minute)), RefreshToken: "r"}, &anaUser, nil)

	entered, release := make(chan struct{}), make(chan struct{})
	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		close(entered)
		<-release
		return anaEmployee, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
	}()
	<-entered

	h.m.Start(context.Background())
	close(release)
	<-done

	require.Zero(t, h.api.Calls("refresh"))
	require.Equal(t, domain.PhaseAuthenticated, h.m.State().Phase)
	require.Equal(t, []string{session.RouteHome}, h.nav.All())

	live, err := h.m.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, "push-access", live.AccessToken)
}

func TestLogoutDuringApplyDiscardsLogin(t *testing.T) {
	h := newHarness(t, session.Config{})

	entered, release := make(chan struct{}), make(chan struct{})
	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		close(entered)
		<-release
		return anaEmployee, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.m.HandleLoginEvent(context.Background(), loginEvent("evt-1"))
	}()
	<-entered

	h.m.Logout(context.Background(), session.LogoutUser)
	close(release)
	<-done

	s := h.m.State()
	require.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	require.Nil(t, s.User)
	require.Equal(t, []string{session.RouteLogin}, h.nav.All())
	require.Len(t, h.notes.All(), 1)
	require.Equal(t, "Signed out", h.lastNote(t).Title)

	_, err := h.st.Tokens().GetTokens(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.m.TokenSource().Token()
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestLogoutWhilePersistingDiscardsLogin(t *testing.T) {
	tests := []struct {
		name   string
		before bool
	}{
		{"before tokens are written", true},
		{"after tokens are written", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &hookedStore{Store: memory.NewStore()}
			h := newHarnessWithStore(t, session.Config{}, st)

			var once sync.Once
			logout := func() {
				once.Do(func() { h.m.Logout(context.Background(), session.LogoutUser) })
			}
			if tc.before {
				st.beforeSave = logout
			} else {
				st.afterSave = logout
			}

			tok := accessToken(t, t0.Add(time.Hour))
			h.api.loginFn = func(string, string) (domain.TokenPair, error) {
				return domain.TokenPair{AccessToken: tok, RefreshToken: "refresh-1"}, nil
			}
			require.Error(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))

			ctx := context.Background()
			_, err := h.st.Tokens().GetTokens(ctx)
			require.ErrorIs(t, err, store.ErrNotFound)
			_, err = h.st.Profiles().GetUser(ctx)
			require.ErrorIs(t, err, store.ErrNotFound)
			_, err = h.st.Profiles().GetEmployee(ctx)
			require.ErrorIs(t, err, store.ErrNotFound)

			require.Equal(t, domain.PhaseUnauthenticated, h.m.State().Phase)
			for _, n := range h.notes.All() {
				require.NotEqual(t, "Signed in", n.Title)
			}
			require.Equal(t, "Signed out", h.lastNote(t).Title)
			for _, c := range h.changesSnapshot() {
				require.False(t, c.IsAuthenticated, "no authenticated state is published")
			}

			// The gate is released, a later login goes through
			st.beforeSave, st.afterSave = nil, nil
			h.signIn(t)
		})
	}
}

// ============================================================================
// Change notification
// ============================================================================

func TestEqualUpdatesDoNotNotify(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.signIn(t)
	base := h.Changes()
	require.Equal(t, 1, base)

	// Same user, same employee
	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))
	require.Equal(t, base, h.Changes())

	// Only the boss changed, which is not observable
	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		e := anaEmployee
		e.ImmediateBossID = 99
		return e, nil
	}
	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))
	require.Equal(t, base, h.Changes())
	_, boss := h.m.Identity()
	require.EqualValues(t, 99, boss, "the new boss is still taken over")

	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		e := anaEmployee
		e.Department = "Finanzas"
		return e, nil
	}
	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))
	require.Equal(t, base+1, h.Changes())
	require.Equal(t, "Finanzas", h.m.State().Employee.Department)
}

func TestEmployeeFetchFailureKeepsProfile(t *testing.T) {
	h := newHarness(t, session.Config{})
	h.signIn(t)

	h.api.employeeFn = func(string, string) (domain.EmployeeDetails, error) {
		return domain.EmployeeDetails{}, &hrsdk.APIError{StatusCode: 500, Code: hrsdk.ErrorCodeServerError}
	}
	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))
	require.True(t, h.m.State().Employee.Equal(&anaEmployee))
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t, session.Config{})

	var calls int
	unsubscribe := h.m.Subscribe(func(domain.AuthState) { calls++ })
	unsubscribe()

	h.signIn(t)
	require.Zero(t, calls)
}

// ============================================================================
// Current user
// ============================================================================

func TestLoginFallsBackToTokenClaims(t *testing.T) {
	h := newHarness(t, session.Config{})

	tok := claimsToken(t, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
		Email:       "ana@uni.edu",
		DisplayName: "Ana Pérez",
		UserType:    "EMPLOYEE",
		Roles:       []string{"USER"},
	})
	h.api.loginFn = func(string, string) (domain.TokenPair, error) {
		return domain.TokenPair{AccessToken: tok, RefreshToken: "refresh-1"}, nil
	}
	h.api.userFn = func(string) (domain.UserSession, error) {
		return domain.UserSession{}, &hrsdk.APIError{StatusCode: 500, Code: hrsdk.ErrorCodeServerError}
	}

	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))

	s := h.m.State()
	require.Equal(t, domain.PhaseAuthenticated, s.Phase)
	require.True(t, s.User.Equal(&anaUser), "got %+v", s.User)
	require.True(t, s.Employee.Equal(&anaEmployee))
	require.Equal(t, "Signed in", h.lastNote(t).Title)
}

func TestLoginClaimsFallbackRules(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwtx.Claims
		userErr error
	}{
		{
			name:    "rejected token",
			claims:  jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}, Email: "ana@uni.edu"},
			userErr: &hrsdk.APIError{StatusCode: 401, Code: hrsdk.ErrorCodeUnauthorized},
		},
		{
			name:    "claims without email",
			claims:  jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}},
			userErr: &hrsdk.APIError{StatusCode: 500, Code: hrsdk.ErrorCodeServerError},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, session.Config{})

			tc.claims.ExpiresAt = jwt.NewNumericDate(t0.Add(time.Hour))
			tok := claimsToken(t, tc.claims)
			h.api.loginFn = func(string, string) (domain.TokenPair, error) {
				return domain.TokenPair{AccessToken: tok}, nil
			}
			h.api.userFn = func(string) (domain.UserSession, error) {
				return domain.UserSession{}, tc.userErr
			}

			err := h.m.Login(context.Background(), "ana@uni.edu", "pw")
			require.ErrorIs(t, err, tc.userErr)
			require.Equal(t, domain.PhaseUnauthenticated, h.m.State().Phase)
		})
	}
}
