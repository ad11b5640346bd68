// Package session owns the signed-in state of the client: tokens, the user
// and their HR profile, refresh and the inactivity timeout.
//
// A Manager is created once per process and handed to whatever needs auth
// state. All state-applying flows (startup check, password login, push
// login, token refresh) pass through one gate; a flow that finds the gate
// taken is dropped rather than queued.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/push"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	"github.com/aussiebroadwan/hrdesk/pkg/jwtx"
)

var (
	ErrLoginInProgress  = errors.New("session: another login is being applied")
	ErrNotAuthenticated = errors.New("session: not authenticated")
)

const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

// ============================================================================
// Collaborators
// ============================================================================

// AuthAPI is the slice of the backend the manager needs. Calls take the
// access token explicitly since a login being applied isn't live yet.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (domain.UserSession, error)
	EmployeeByEmail(ctx context.Context, accessToken, email string) (domain.EmployeeDetails, error)
}

type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Deduper decides whether a push event is new. *push.Deduper satisfies it.
type Deduper interface {
	FirstSeen(ev domain.LoginEvent) bool
}

// Subscriber is a push channel. *push.Client satisfies it.
type Subscriber interface {
	Run(ctx context.Context, h push.Handler) error
}

// ============================================================================
// Config
// ============================================================================

type Config struct {
	InactivityTimeout       time.Duration
	InactivityCheckInterval time.Duration
	RefreshCheckInterval    time.Duration
	RefreshLeadTime         time.Duration
}

func DefaultConfig() Config {
	return Config{
		InactivityTimeout:       15 * time.Minute,
		InactivityCheckInterval: 30 * time.Second,
		RefreshCheckInterval:    time.Minute,
		RefreshLeadTime:         2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = d.InactivityTimeout
	}
	if c.InactivityCheckInterval <= 0 {
		c.InactivityCheckInterval = d.InactivityCheckInterval
	}
	if c.RefreshCheckInterval <= 0 {
		c.RefreshCheckInterval = d.RefreshCheckInterval
	}
	if c.RefreshLeadTime <= 0 {
		c.RefreshLeadTime = d.RefreshLeadTime
	}
	return c
}

// ============================================================================
// Manager
// ============================================================================

type Manager struct {
	cfg      Config
	api      AuthAPI
	store    store.Store
	notifier notify.Notifier
	nav      Navigator
	clock    Clock
	logger   *slog.Logger
	dedupe   Deduper
	push     Subscriber

	// applying is the single-apply gate
	applying atomic.Bool

	mu              sync.RWMutex
	state           domain.AuthState
	tokens          domain.TokenPair
	lastActivity    time.Time
	activitySavedAt time.Time
	// gen bumps on every logout; an apply that started under an older
	// generation doesn't commit
	gen uint64

	subsMu  sync.Mutex
	subs    map[int]func(domain.AuthState)
	nextSub int

	startupOnce sync.Once
	started     atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type Option func(*Manager)

func WithNotifier(n notify.Notifier) Option { return func(m *Manager) { m.notifier = n } }
func WithNavigator(n Navigator) Option      { return func(m *Manager) { m.nav = n } }
func WithClock(c Clock) Option              { return func(m *Manager) { m.clock = c } }
func WithLogger(l *slog.Logger) Option      { return func(m *Manager) { m.logger = l } }
func WithDeduper(d Deduper) Option          { return func(m *Manager) { m.dedupe = d } }

// WithPushChannel has Start subscribe to s and Stop tear it down.
func WithPushChannel(s Subscriber) Option { return func(m *Manager) { m.push = s } }

func NewManager(cfg Config, api AuthAPI, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg.withDefaults(),
		api:      api,
		store:    st,
		notifier: notify.NotifierFunc(func(context.Context, notify.Notification) {}),
		nav:      NavigatorFunc(func(string) {}),
		clock:    SystemClock{},
		logger:   slog.Default(),
		dedupe:   push.NewDeduper(push.DefaultIDTTL, push.DefaultKeyTTL),
		state: domain.AuthState{
			IsLoading: true,
			Phase:     domain.PhaseAuthenticating,
		},
		subs: make(map[int]func(domain.AuthState)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the current state.
func (m *Manager) State() domain.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Subscribe registers fn for state changes. fn only sees observable changes
// and must not block.
func (m *Manager) Subscribe(fn func(domain.AuthState)) (unsubscribe func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.subs, id)
	}
}

// Identity returns the signed-in employee id and their boss, zero when
// unknown.
func (m *Manager) Identity() (employeeID, bossID int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Employee == nil {
		return 0, 0
	}
	return m.state.Employee.EmployeeID, m.state.Employee.ImmediateBossID
}

// TokenSource hands out the live access token. It reads state on every
// call, so it stays valid across refreshes.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return liveTokens{m}
}

type liveTokens struct{ m *Manager }

func (t liveTokens) Token() (*oauth2.Token, error) {
	t.m.mu.RLock()
	pair, authed := t.m.tokens, t.m.state.IsAuthenticated
	t.m.mu.RUnlock()

	if !authed || pair.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	tok := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, err := jwtx.ExpiresAt(pair.AccessToken); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}

// update applies fn under the state lock and notifies subscribers when fn
// reports a change.
func (m *Manager) update(fn func(s *domain.AuthState) bool) {
	m.mu.Lock()
	changed := fn(&m.state)
	snap := m.state.Clone()
	m.mu.Unlock()

	if changed {
		m.publish(snap)
	}
}

func (m *Manager) publish(s domain.AuthState) {
	m.subsMu.Lock()
	fns := make([]func(domain.AuthState), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// setPhase moves to p. RefreshingToken leaves the flags alone: a startup
// refresh is still loading, a periodic one is still authenticated.
func (m *Manager) setPhase(p domain.Phase) {
	m.update(func(s *domain.AuthState) bool {
		return applyPhase(s, p)
	})
}

// setPhaseAt is setPhase, skipped when a logout happened since gen.
func (m *Manager) setPhaseAt(gen uint64, p domain.Phase) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	changed := applyPhase(&m.state, p)
	snap := m.state.Clone()
	m.mu.Unlock()

	if changed {
		m.publish(snap)
	}
}

func applyPhase(s *domain.AuthState, p domain.Phase) bool {
	if s.Phase == p {
		return false
	}
	s.Phase = p
	switch p {
	case domain.PhaseAuthenticated:
		s.IsAuthenticated, s.IsLoading = true, false
	case domain.PhaseUnauthenticated:
		s.IsAuthenticated, s.IsLoading = false, false
	case domain.PhaseAuthenticating:
		s.IsLoading = true
	}
	return true
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// setUser replaces the user unless u is field-equal to the current one.
func setUser(s *domain.AuthState, u *domain.UserSession) bool {
	if s.User.Equal(u) {
		return false
	}
	s.User = u.Clone()
	return true
}

// setEmployee replaces the employee unless e is field-equal. The boss is
// not part of that comparison, so a changed boss is taken over without
// reporting a change.
func setEmployee(s *domain.AuthState, e *domain.EmployeeDetails) bool {
	if s.Employee.Equal(e) {
		if e != nil && s.Employee.ImmediateBossID != e.ImmediateBossID {
			s.Employee.ImmediateBossID = e.ImmediateBossID
		}
		return false
	}
	s.Employee = e.Clone()
	return true
}
