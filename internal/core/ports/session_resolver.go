package ports

import (
	"context"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

// Snapshot is a consistent view of the resolver's state.
type Snapshot struct {
	// Actor is the last committed live resolution (Guest before the first).
	Actor domain.Actor `json:"actor"`
	// Hint is the actor read from the cache at startup, kept until the first
	// live resolution commits.
	Hint      domain.Actor `json:"hint"`
	HasHint   bool         `json:"has_hint"`
	Settled   bool         `json:"settled"`
	Resolving bool         `json:"resolving"`
}

// Outcome is the result of a resolution issued with Enqueue.
type Outcome struct {
	Actor domain.Actor
	Err   error
}

// SessionResolver owns the process-wide current actor.
type SessionResolver interface {
	Resolve(ctx context.Context, session *domain.ProviderSession) (domain.Actor, error)
	// Enqueue issues the resolution for event before returning and delivers
	// its outcome on the channel. Calls are ordered by issue time.
	Enqueue(event domain.SessionEvent) <-chan Outcome
	Refresh(ctx context.Context) (domain.Actor, error)
	Restore(ctx context.Context) (domain.Actor, bool)
	SetActor(ctx context.Context, actor domain.Actor) domain.Actor
	Logout(ctx context.Context) error
	Snapshot() Snapshot
	Subscribe() (<-chan domain.Actor, func())
	Wait(ctx context.Context) (domain.Actor, error)
}

// RouteGuard gates navigation on the current actor.
type RouteGuard interface {
	Authorize(path string, actor domain.Actor) domain.Decision
	Check(ctx context.Context, path string) domain.Decision
	Await(ctx context.Context, path string) domain.Decision
}
