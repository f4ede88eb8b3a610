package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
	"github.com/casalinger/session-gateway/internal/pkg/metrics"
)

const (
	defaultIdleTimeout = 30 * time.Minute
	idleCheckInterval  = 15 * time.Second
)

// IdleOptions configures the inactivity monitor.
type IdleOptions struct {
	WarnAfter   time.Duration
	LogoutAfter time.Duration
}

// IdleMonitor logs an authenticated actor out after a period without
// activity, warning shortly before it does.
type IdleMonitor struct {
	resolver ports.SessionResolver
	opts     IdleOptions
	log      zerolog.Logger
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewIdleMonitor(resolver ports.SessionResolver, opts IdleOptions, log zerolog.Logger) *IdleMonitor {
	if opts.LogoutAfter <= 0 {
		opts.LogoutAfter = defaultIdleTimeout
	}
	if opts.WarnAfter <= 0 || opts.WarnAfter >= opts.LogoutAfter {
		opts.WarnAfter = opts.LogoutAfter - opts.LogoutAfter/6
	}
	return &IdleMonitor{
		resolver: resolver,
		opts:     opts,
		log:      log,
		now:      time.Now,
		last:     time.Now(),
	}
}

// Touch records user activity and dismisses any pending warning.
func (m *IdleMonitor) Touch() {
	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
}

func (m *IdleMonitor) State() ports.IdleState {
	m.mu.Lock()
	idle := m.now().Sub(m.last)
	m.mu.Unlock()

	expires := m.opts.LogoutAfter - idle
	if expires < 0 {
		expires = 0
	}
	return ports.IdleState{
		Warning:   idle >= m.opts.WarnAfter,
		IdleFor:   idle,
		ExpiresIn: expires,
	}
}

// Run checks for inactivity until ctx is cancelled. A newly committed actor
// counts as activity.
func (m *IdleMonitor) Run(ctx context.Context) {
	updates, unsubscribe := m.resolver.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(idleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			m.Touch()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check logs out an authenticated actor idle for longer than LogoutAfter and
// reports whether it did.
func (m *IdleMonitor) check(ctx context.Context) bool {
	if !domain.IsAuthenticated(m.resolver.Snapshot().Actor) {
		return false
	}
	state := m.State()
	if state.ExpiresIn > 0 {
		return false
	}

	if err := m.resolver.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("idle logout failed")
		return false
	}
	metrics.IdleLogoutsTotal.Inc()
	m.log.Info().Dur("idle_for", state.IdleFor).Msg("session ended after inactivity")
	m.Touch()
	return true
}
