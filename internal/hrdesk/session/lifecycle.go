package session

import (
	"context"
	"errors"
	"time"
)

// Start runs the startup check, then starts the inactivity and refresh
// loops and the push subscription. It returns once the startup check is
// done. Calling Start again is a no-op.
func (m *Manager) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	// Subscribe first so a provider login racing the startup check meets
	// the apply gate instead of being missed.
	if m.push != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.push.Run(ctx, m.HandleLoginEvent); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.WarnContext(ctx, "push_channel_stopped", "error", err)
			}
		}()
	}

	m.startupOnce.Do(func() { m.startupCheck(ctx) })

	m.wg.Add(2)
	go m.every(ctx, m.cfg.InactivityCheckInterval, func(now time.Time) {
		m.CheckInactivity(ctx, now)
	})
	go m.every(ctx, m.cfg.RefreshCheckInterval, func(now time.Time) {
		_ = m.RefreshIfNeeded(ctx, now)
	})

	m.logger.InfoContext(ctx, "session manager started",
		"inactivity_timeout", m.cfg.InactivityTimeout.String(),
		"phase", m.State().Phase.String(),
	)
}

// Stop cancels the loops and the push subscription and waits for them to
// exit. Requests already in flight finish on their own timeout.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info("session manager stopped")
}

// every calls fn on each tick with the clock's time at fire time.
func (m *Manager) every(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn(m.clock.Now())
		case <-ctx.Done():
			return
		}
	}
}
