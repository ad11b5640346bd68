package session

import (
	"context"
	"time"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
)

type LogoutReason int

const (
	LogoutUser LogoutReason = iota
	LogoutRefreshFailed
	LogoutInactivity
)

func (r LogoutReason) String() string {
	switch r {
	case LogoutUser:
		return "user"
	case LogoutRefreshFailed:
		return "refresh_failed"
	case LogoutInactivity:
		return "inactivity"
	default:
		return "unknown"
	}
}

func (r LogoutReason) notification() notify.Notification {
	switch r {
	case LogoutInactivity:
		return notify.Warning("Session expired", "You were signed out after a period of inactivity.")
	case LogoutRefreshFailed:
		return notify.Warning("Session ended", "Your session could not be renewed. Please sign in again.")
	default:
		return notify.Info("Signed out", "You have signed out.")
	}
}

// Logout clears the session from memory and the store, tells the user why
// and sends them to the login route. Any apply still in flight is
// discarded when it finishes.
func (m *Manager) Logout(ctx context.Context, reason LogoutReason) {
	m.mu.Lock()
	m.gen++
	m.tokens = domain.TokenPair{}
	m.lastActivity = time.Time{}
	m.activitySavedAt = time.Time{}

	prev := m.state
	m.state = domain.AuthState{Phase: domain.PhaseUnauthenticated}
	changed := prev.Phase != m.state.Phase || prev.IsLoading || prev.User != nil || prev.Employee != nil
	snap := m.state.Clone()
	m.mu.Unlock()

	m.clearStore(ctx)

	m.logger.InfoContext(ctx, "session_logout", "reason", reason.String())
	m.notifier.Notify(ctx, reason.notification())
	m.nav.Navigate(RouteLogin)

	if changed {
		m.publish(snap)
	}
}

// clearStore drops everything a session persisted. Failures are logged.
func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Tokens().ClearTokens(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear_tokens_failed", "error", err)
	}
	if err := m.store.Profiles().ClearProfiles(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear_profiles_failed", "error", err)
	}
	if err := m.store.Activity().ClearActivity(ctx); err != nil {
		m.logger.DebugContext(ctx, "clear_activity_failed", "error", err)
	}
}
