package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
	"github.com/casalinger/session-gateway/internal/pkg/metrics"
)

const defaultGuardTimeout = 15 * time.Second

// GuardOptions tunes the route guard.
type GuardOptions struct {
	// Timeout bounds how long Await waits for a pending resolution.
	Timeout time.Duration
	// LenientAdmin lets a cached admin actor pass the guard before the live
	// session has been re-validated. Off by default: a stale cache could
	// otherwise keep granting admin access after the session was revoked.
	LenientAdmin bool
}

type routeGuard struct {
	resolver ports.SessionResolver
	opts     GuardOptions
	log      zerolog.Logger
}

// NewRouteGuard returns a guard reading the current actor from resolver.
func NewRouteGuard(resolver ports.SessionResolver, opts GuardOptions, log zerolog.Logger) ports.RouteGuard {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGuardTimeout
	}
	return &routeGuard{resolver: resolver, opts: opts, log: log}
}

// Authorize decides path for actor without consulting the resolver.
func (g *routeGuard) Authorize(path string, actor domain.Actor) domain.Decision {
	return Authorize(path, actor)
}

// Authorize is the pure route rule:
//   - authenticated actors pass, except non-admins on the admin prefix;
//   - guests go to the login page matching the path prefix.
//
// Redirects carry the requested path for the post-login return.
func Authorize(path string, actor domain.Actor) domain.Decision {
	role, ok := domain.RoleOf(actor)
	if ok {
		if strings.HasPrefix(path, domain.AdminPathPrefix) && role != domain.RoleAdmin {
			return domain.Redirect(domain.AdminLoginPath, path)
		}
		return domain.Allow()
	}

	switch {
	case strings.HasPrefix(path, domain.AgentPathPrefix):
		return domain.Redirect(domain.AgentLoginPath, path)
	case strings.HasPrefix(path, domain.AdminPathPrefix):
		return domain.Redirect(domain.AdminLoginPath, path)
	default:
		return domain.Redirect(domain.LoginPath, path)
	}
}

// Check decides path from the resolver's current state. Until a live
// resolution has committed it answers DecisionPending instead of redirecting,
// and starts a resolution if none is running.
func (g *routeGuard) Check(ctx context.Context, path string) domain.Decision {
	snap := g.resolver.Snapshot()
	if snap.Settled {
		return record(Authorize(path, snap.Actor))
	}
	if g.opts.LenientAdmin && snap.HasHint {
		if role, ok := domain.RoleOf(snap.Hint); ok && role == domain.RoleAdmin {
			return record(Authorize(path, snap.Hint))
		}
	}
	if !snap.Resolving {
		go g.refresh(context.WithoutCancel(ctx))
	}
	return record(domain.Decision{Kind: domain.DecisionPending, From: path})
}

// Await is Check, followed by a bounded wait for the pending resolution.
// Running out of time yields DecisionTimeout so the shell can offer a retry.
func (g *routeGuard) Await(ctx context.Context, path string) domain.Decision {
	updates, unsubscribe := g.resolver.Subscribe()
	defer unsubscribe()

	d := g.Check(ctx, path)
	if d.Kind != domain.DecisionPending {
		return d
	}

	timer := time.NewTimer(g.opts.Timeout)
	defer timer.Stop()
	for {
		select {
		case <-updates:
			if snap := g.resolver.Snapshot(); snap.Settled {
				return record(Authorize(path, snap.Actor))
			}
		case <-timer.C:
			g.log.Warn().Str("path", path).Dur("timeout", g.opts.Timeout).Msg("session resolution did not finish in time")
			return record(domain.Decision{Kind: domain.DecisionTimeout, From: path})
		case <-ctx.Done():
			return record(domain.Decision{Kind: domain.DecisionTimeout, From: path})
		}
	}
}

func (g *routeGuard) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	if _, err := g.resolver.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrResolutionSuperseded) {
		g.log.Warn().Err(err).Msg("guard-triggered session refresh failed")
	}
}

func record(d domain.Decision) domain.Decision {
	metrics.GuardDecisionsTotal.WithLabelValues(string(d.Kind)).Inc()
	return d
}
