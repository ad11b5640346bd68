package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
	"github.com/aussiebroadwan/hrdesk/pkg/jwtx"
)

var (
	errNoRefreshToken = errors.New("session: no refresh token")
	errStale          = errors.New("session: logged out while login was being applied")
)

// ============================================================================
// Startup check
// ============================================================================

// startupCheck restores a persisted session. It runs once per Manager; if
// another apply already holds the gate it does nothing and that apply
// settles the state.
func (m *Manager) startupCheck(ctx context.Context) {
	if !m.applying.CompareAndSwap(false, true) {
		m.logger.DebugContext(ctx, "startup_check_skipped", "reason", "apply_in_flight")
		return
	}
	defer m.applying.Store(false)

	err := m.restore(ctx, m.generation())
	if errors.Is(err, errStale) {
		return
	}
	if err != nil {
		m.logger.WarnContext(ctx, "session_restore_failed", "error", err)
		m.Logout(ctx, LogoutRefreshFailed)
	}
}

func (m *Manager) restore(ctx context.Context, gen uint64) error {
	pair, err := m.store.Tokens().GetTokens(ctx)
	if errors.Is(err, store.ErrNotFound) || (err == nil && pair.IsZero()) {
		m.setPhase(domain.PhaseUnauthenticated)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	claims, err := jwtx.ParseUnverified(pair.AccessToken)
	if err != nil {
		return fmt.Errorf("decode access token: %w", err)
	}

	if claims.Expired(m.clock.Now()) {
		if pair.RefreshToken == "" {
			return errNoRefreshToken
		}

		m.setPhaseAt(gen, domain.PhaseRefreshingToken)
		fresh, err := m.api.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		fresh = keepRefreshToken(fresh, pair)

		user, err := m.currentUser(ctx, fresh.AccessToken)
		if err != nil {
			return fmt.Errorf("current user: %w", err)
		}
		return m.establish(ctx, gen, applyInput{pair: fresh, user: user, activity: m.clock.Now()})
	}

	user, err := m.cachedUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		if user, err = m.currentUser(ctx, pair.AccessToken); err != nil {
			return fmt.Errorf("current user: %w", err)
		}
	}

	in := applyInput{pair: pair, user: user, activity: m.clock.Now()}
	if e, err := m.store.Profiles().GetEmployee(ctx); err == nil {
		in.employee = &e
	}
	if at, err := m.store.Activity().LastActivity(ctx); err == nil {
		in.activity = at
	}
	return m.establish(ctx, gen, in)
}

// currentUser asks the backend who owns accessToken. While the backend
// can't answer, the identity in the token claims stands in for it. A
// rejected token is returned as is.
func (m *Manager) currentUser(ctx context.Context, accessToken string) (*domain.UserSession, error) {
	u, err := m.api.CurrentUser(ctx, accessToken)
	if err == nil {
		return &u, nil
	}
	if hrsdk.IsUnauthorized(err) {
		return nil, err
	}

	claims, perr := jwtx.ParseUnverified(accessToken)
	if perr != nil || claims.Subject == "" || claims.Email == "" {
		return nil, err
	}
	m.logger.WarnContext(ctx, "current_user_from_claims", "user_id", claims.Subject, "error", err)
	return &domain.UserSession{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		UserType:    claims.UserType,
		Roles:       slices.Clone(claims.Roles),
	}, nil
}

func (m *Manager) cachedUser(ctx context.Context) (*domain.UserSession, error) {
	u, err := m.store.Profiles().GetUser(ctx)
	switch {
	case err == nil:
		return &u, nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCorrupt):
		return nil, nil
	default:
		return nil, fmt.Errorf("load user: %w", err)
	}
}

// ============================================================================
// Password login
// ============================================================================

// Login signs in with email and password. Errors come from the AuthAPI
// unchanged, so hrsdk.IsInvalidCredentials and hrsdk.IsNetwork work on them.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if !m.applying.CompareAndSwap(false, true) {
		return ErrLoginInProgress
	}
	defer m.applying.Store(false)

	gen := m.generation()

	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.InfoContext(ctx, "login_failed", "email", email, "error", err)
		m.settleUnauthenticated()
		return err
	}

	user, err := m.currentUser(ctx, pair.AccessToken)
	if err != nil {
		m.logger.WarnContext(ctx, "login_current_user_failed", "email", email, "error", err)
		m.settleUnauthenticated()
		return err
	}

	return m.applyLogin(ctx, gen, pair, user)
}

// settleUnauthenticated ends a pending startup state without touching an
// existing session.
func (m *Manager) settleUnauthenticated() {
	m.update(func(s *domain.AuthState) bool {
		if s.IsAuthenticated {
			return false
		}
		return applyPhase(s, domain.PhaseUnauthenticated)
	})
}

// ============================================================================
// Push login
// ============================================================================

// HandleLoginEvent applies a login delivered over the push channel. Each
// event is applied at most once; an event that arrives while another apply
// is running is dropped.
func (m *Manager) HandleLoginEvent(ctx context.Context, ev domain.LoginEvent) {
	log := m.logger.With("event_id", ev.EventID, "email", ev.Data.Email)

	if ev.EventType != domain.LoginEventType {
		log.DebugContext(ctx, "push_event_ignored", "event_type", ev.EventType)
		return
	}
	if ev.Pair.IsZero() {
		log.WarnContext(ctx, "push_login_without_tokens")
		return
	}
	if !m.dedupe.FirstSeen(ev) {
		log.DebugContext(ctx, "push_login_duplicate")
		return
	}
	if !m.applying.CompareAndSwap(false, true) {
		log.InfoContext(ctx, "push_login_dropped", "reason", "apply_in_flight")
		return
	}
	defer m.applying.Store(false)

	user := &domain.UserSession{
		ID:          ev.Data.UserID,
		Email:       ev.Data.Email,
		DisplayName: ev.Data.DisplayName,
	}
	if err := m.applyLogin(ctx, m.generation(), ev.Pair, user); err != nil {
		log.WarnContext(ctx, "push_login_failed", "error", err)
		m.settleUnauthenticated()
		return
	}
	m.nav.Navigate(RouteHome)
}

// ============================================================================
// Apply
// ============================================================================

// applyLogin is shared by password and push login.
func (m *Manager) applyLogin(ctx context.Context, gen uint64, pair domain.TokenPair, user *domain.UserSession) error {
	if err := m.establish(ctx, gen, applyInput{pair: pair, user: user, activity: m.clock.Now()}); err != nil {
		return err
	}

	name := user.DisplayName
	if name == "" {
		name = user.Email
	}
	m.notifier.Notify(ctx, notify.Success("Signed in", "Welcome, "+name+"."))
	m.logger.InfoContext(ctx, "login_applied", "user_id", user.ID, "email", user.Email)
	return nil
}

type applyInput struct {
	pair     domain.TokenPair
	user     *domain.UserSession
	employee *domain.EmployeeDetails // nil: fetch from the backend
	activity time.Time               // zero: keep the current value
}

// establish commits a session. Must be called holding the apply gate.
func (m *Manager) establish(ctx context.Context, gen uint64, in applyInput) error {
	if in.employee == nil {
		in.employee = m.fetchEmployee(ctx, in.pair.AccessToken, in.user.Email)
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return errStale
	}

	sameUser := m.state.User != nil && m.state.User.ID == in.user.ID
	m.tokens = in.pair
	if !in.activity.IsZero() {
		m.lastActivity = in.activity
	}

	changed := setUser(&m.state, in.user)
	// A failed employee fetch keeps what we had for the same user
	if in.employee != nil || !sameUser {
		changed = setEmployee(&m.state, in.employee) || changed
	}
	changed = applyPhase(&m.state, domain.PhaseAuthenticated) || changed
	snap := m.state.Clone()
	m.mu.Unlock()

	if err := m.persist(ctx, gen, in, snap); err != nil {
		return err
	}

	if changed {
		m.publish(snap)
	}
	return nil
}

// fetchEmployee is best effort: without details the user is still signed
// in, they just can't file justifications.
func (m *Manager) fetchEmployee(ctx context.Context, accessToken, email string) *domain.EmployeeDetails {
	if email == "" {
		return nil
	}
	e, err := m.api.EmployeeByEmail(ctx, accessToken, email)
	if err != nil {
		m.logger.WarnContext(ctx, "employee_details_failed", "email", email, "error", err)
		return nil
	}
	return &e
}

// persist writes the committed session to the store. Write failures are
// logged, the in-memory session stays valid. A logout that lands while the
// writes are running wins: whatever was written is cleared again and
// errStale is returned.
func (m *Manager) persist(ctx context.Context, gen uint64, in applyInput, snap domain.AuthState) error {
	writes := []func(){
		func() {
			if err := m.store.Tokens().SaveTokens(ctx, in.pair); err != nil {
				m.logger.WarnContext(ctx, "persist_tokens_failed", "error", err)
			}
		},
		func() {
			if snap.User == nil {
				return
			}
			if err := m.store.Profiles().SaveUser(ctx, *snap.User); err != nil {
				m.logger.WarnContext(ctx, "persist_user_failed", "error", err)
			}
		},
		func() {
			if snap.Employee == nil {
				return
			}
			if err := m.store.Profiles().SaveEmployee(ctx, *snap.Employee); err != nil {
				m.logger.WarnContext(ctx, "persist_employee_failed", "error", err)
			}
		},
		func() {
			if in.activity.IsZero() {
				return
			}
			if err := m.store.Activity().TouchActivity(ctx, in.activity); err != nil {
				m.logger.DebugContext(ctx, "persist_activity_failed", "error", err)
			}
		},
	}

	for _, write := range writes {
		write()
		if m.generation() != gen {
			m.logger.InfoContext(ctx, "persist_discarded", "reason", "logged_out")
			m.clearStore(ctx)
			return errStale
		}
	}
	return nil
}

// keepRefreshToken carries the old refresh token over when the backend
// didn't rotate it.
func keepRefreshToken(fresh, old domain.TokenPair) domain.TokenPair {
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	return fresh
}
