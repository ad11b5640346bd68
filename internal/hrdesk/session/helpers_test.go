package session_test

import (
	"context"
	"errors"
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
	"github.com/aussiebroadwan/hrdesk/pkg/idx"
	"github.com/aussiebroadwan/hrdesk/pkg/jwtx"
	"github.com/aussiebroadwan/hrdesk/pkg/slogx"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// ============================================================================
// Clock
// ============================================================================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// ============================================================================
// Navigator
// ============================================================================

type navRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (n *navRecorder) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// ============================================================================
// AuthAPI
// ============================================================================

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	loginFn    func(email, password string) (domain.TokenPair, error)
	refreshFn  func(refreshToken string) (domain.TokenPair, error)
	userFn     func(accessToken string) (domain.UserSession, error)
	employeeFn func(accessToken, email string) (domain.EmployeeDetails, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (domain.TokenPair, error) {
	f.count("login")
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	return domain.TokenPair{}, errors.New("login not configured")
}

func (f *fakeAPI) Refresh(_ context.Context, refreshToken string) (domain.TokenPair, error) {
	f.count("refresh")
	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return domain.TokenPair{}, &hrsdk.APIError{StatusCode: 401, Code: hrsdk.ErrorCodeUnauthorized}
}

func (f *fakeAPI) CurrentUser(_ context.Context, accessToken string) (domain.UserSession, error) {
	f.count("user")
	if f.userFn != nil {
		return f.userFn(accessToken)
	}
	return anaUser, nil
}

func (f *fakeAPI) EmployeeByEmail(_ context.Context, accessToken, email string) (domain.EmployeeDetails, error) {
	f.count("employee")
	if f.employeeFn != nil {
		return f.employeeFn(accessToken, email)
	}
	return anaEmployee, nil
}

// ============================================================================
// Store
// ============================================================================

// hookedStore runs beforeSave or afterSave around every SaveTokens call.
type hookedStore struct {
	store.Store
	beforeSave func()
	afterSave  func()
}

func (s *hookedStore) Tokens() store.Tokens { return hookedTokens{s.Store.Tokens(), s} }

type hookedTokens struct {
	store.Tokens
	s *hookedStore
}

func (t hookedTokens) SaveTokens(ctx context.Context, pair domain.TokenPair) error {
	if t.s.beforeSave != nil {
		t.s.beforeSave()
	}
	err := t.Tokens.SaveTokens(ctx, pair)
	if t.s.afterSave != nil {
		t.s.afterSave()
	}
	return err
}

// ============================================================================
// Fixtures
// ============================================================================

var (
	anaUser = domain.UserSession{
		ID:          "7",
		Email:       "ana@uni.edu",
		DisplayName: "Ana Pérez",
		UserType:    "EMPLOYEE",
		Roles:       []string{"USER"},
	}

	anaEmployee = domain.EmployeeDetails{
		EmployeeID:      15,
		Email:           "ana@uni.edu",
		FirstName:       "Ana",
		LastName:        "Pérez",
		Department:      "Sistemas",
		Faculty:         "Ingeniería",
		HasActiveSalary: true,
		ImmediateBossID: 3,
	}
)

// accessToken mints a JWT expiring at exp. Every call returns a distinct
// token.
func accessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        idx.New().String(),
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// claimsToken mints a JWT carrying c.
func claimsToken(t *testing.T, c jwtx.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func loginEvent(id string) domain.LoginEvent {
	return domain.LoginEvent{
		EventType: domain.LoginEventType,
		Data:      domain.LoginEventData{UserID: "7", Email: "ana@uni.edu", DisplayName: "Ana Pérez"},
		Pair:      domain.TokenPair{AccessToken: "push-access", RefreshToken: "push-refresh"},
		EventID:   id,
	}
}

// ============================================================================
// Harness
// ============================================================================

type harness struct {
	m     *session.Manager
	api   *fakeAPI
	st    store.Store
	clock *fakeClock
	notes *notify.Recorder
	nav   *navRecorder

	mu      sync.Mutex
	changes []domain.AuthState
}

func newHarness(t *testing.T, cfg session.Config, opts ...session.Option) *harness {
	t.Helper()
	return newHarnessWithStore(t, cfg, memory.NewStore(), opts...)
}

func newHarnessWithStore(t *testing.T, cfg session.Config, st store.Store, opts ...session.Option) *harness {
	t.Helper()

	h := &harness{
		api:   newFakeAPI(),
		st:    st,
		clock: &fakeClock{now: t0},
		notes: &notify.Recorder{},
		nav:   &navRecorder{},
	}

	base := []session.Option{
		session.WithClock(h.clock),
		session.WithNotifier(h.notes),
		session.WithNavigator(h.nav),
		session.WithLogger(slogx.Discard()),
	}
	h.m = session.NewManager(cfg, h.api, h.st, append(base, opts...)...)
	unsubscribe := h.m.Subscribe(func(s domain.AuthState) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.changes = append(h.changes, s)
	})

	t.Cleanup(func() {
		unsubscribe()
		h.m.Stop()
	})
	return h
}

func (h *harness) Changes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.changes)
}

func (h *harness) changesSnapshot() []domain.AuthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.AuthState(nil), h.changes...)
}

// seed stores a session as a previous run would have left it.
func (h *harness) seed(t *testing.T, pair domain.TokenPair, user *domain.UserSession, emp *domain.EmployeeDetails) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.st.Tokens().SaveTokens(ctx, pair))
	if user != nil {
		require.NoError(t, h.st.Profiles().SaveUser(ctx, *user))
	}
	if emp != nil {
		require.NoError(t, h.st.Profiles().SaveEmployee(ctx, *emp))
	}
}

// signIn runs a password login that succeeds with a token valid for an hour.
func (h *harness) signIn(t *testing.T) {
	t.Helper()
	tok := accessToken(t, h.clock.Now().Add(time.Hour))
	h.api.loginFn = func(string, string) (domain.TokenPair, error) {
		return domain.TokenPair{AccessToken: tok, RefreshToken: "refresh-1"}, nil
	}
	require.NoError(t, h.m.Login(context.Background(), "ana@uni.edu", "pw"))
	require.Equal(t, domain.PhaseAuthenticated, h.m.State().Phase)
}

func (h *harness) lastNote(t *testing.T) notify.Notification {
	t.Helper()
	n, ok := h.notes.Last()
	require.True(t, ok, "expected a notification")
	return n
}
