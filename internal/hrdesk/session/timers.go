package session

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
	"github.com/aussiebroadwan/hrdesk/pkg/jwtx"
)

// Activity is persisted at most this often, memory is always current.
const activityPersistEvery = 5 * time.Second

// ============================================================================
// Inactivity
// ============================================================================

// TouchActivity records a user interaction. Unknown kinds and interactions
// while signed out are ignored.
func (m *Manager) TouchActivity(ctx context.Context, kind domain.ActivityKind) {
	if !kind.Valid() {
		return
	}
	now := m.clock.Now()

	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	m.lastActivity = now
	save := now.Sub(m.activitySavedAt) >= activityPersistEvery
	if save {
		m.activitySavedAt = now
	}
	m.mu.Unlock()

	if save {
		if err := m.store.Activity().TouchActivity(ctx, now); err != nil {
			m.logger.DebugContext(ctx, "persist_activity_failed", "error", err)
		}
	}
}

// LastActivity returns when the user last interacted, zero if signed out.
func (m *Manager) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// CheckInactivity logs out with LogoutInactivity once now is at least
// InactivityTimeout past the last activity. Reports whether it did.
func (m *Manager) CheckInactivity(ctx context.Context, now time.Time) bool {
	m.mu.RLock()
	active := m.state.Phase == domain.PhaseAuthenticated
	idle := now.Sub(m.lastActivity)
	m.mu.RUnlock()

	if !active || idle < m.cfg.InactivityTimeout {
		return false
	}

	m.logger.InfoContext(ctx, "session_inactive", "idle", idle.String())
	m.Logout(ctx, LogoutInactivity)
	return true
}

// ============================================================================
// Refresh
// ============================================================================

// RefreshIfNeeded renews the access token when it expires within
// RefreshLeadTime. A network failure while the token is still valid is left
// for the next tick; any other failure logs out.
func (m *Manager) RefreshIfNeeded(ctx context.Context, now time.Time) error {
	m.mu.RLock()
	active := m.state.Phase == domain.PhaseAuthenticated
	pair := m.tokens
	user := m.state.User.Clone()
	gen := m.gen
	m.mu.RUnlock()

	if !active {
		return nil
	}

	claims, err := jwtx.ParseUnverified(pair.AccessToken)
	if err == nil && !claims.ExpiresWithin(now, m.cfg.RefreshLeadTime) {
		return nil
	}
	stillValid := err == nil && !claims.Expired(now)

	if pair.RefreshToken == "" {
		m.Logout(ctx, LogoutRefreshFailed)
		return errNoRefreshToken
	}

	if !m.applying.CompareAndSwap(false, true) {
		return nil
	}
	defer m.applying.Store(false)

	m.setPhaseAt(gen, domain.PhaseRefreshingToken)

	fresh, err := m.api.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		if hrsdk.IsNetwork(err) && stillValid {
			m.logger.WarnContext(ctx, "token_refresh_deferred", "error", err)
			m.setPhaseAt(gen, domain.PhaseAuthenticated)
			return err
		}
		m.logger.WarnContext(ctx, "token_refresh_failed", "error", err)
		m.Logout(ctx, LogoutRefreshFailed)
		return err
	}
	fresh = keepRefreshToken(fresh, pair)

	if user == nil {
		if user, err = m.currentUser(ctx, fresh.AccessToken); err != nil {
			m.Logout(ctx, LogoutRefreshFailed)
			return fmt.Errorf("current user: %w", err)
		}
	}

	if err := m.establish(ctx, gen, applyInput{pair: fresh, user: user}); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "token_refreshed")
	return nil
}
