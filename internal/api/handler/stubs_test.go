package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

type stubResolver struct {
	snapshot   ports.Snapshot
	refreshErr error
	logoutErr  error
	refreshes  int
	logouts    int
}

func (r *stubResolver) Resolve(context.Context, *domain.ProviderSession) (domain.Actor, error) {
	return r.snapshot.Actor, nil
}

func (r *stubResolver) Enqueue(domain.SessionEvent) <-chan ports.Outcome {
	out := make(chan ports.Outcome, 1)
	out <- ports.Outcome{Actor: r.snapshot.Actor}
	return out
}

func (r *stubResolver) Refresh(context.Context) (domain.Actor, error) {
	r.refreshes++
	return r.snapshot.Actor, r.refreshErr
}

func (r *stubResolver) Restore(context.Context) (domain.Actor, bool) {
	return r.snapshot.Hint, r.snapshot.HasHint
}

func (r *stubResolver) SetActor(_ context.Context, actor domain.Actor) domain.Actor {
	r.snapshot.Actor = actor
	return actor
}

func (r *stubResolver) Logout(context.Context) error {
	r.logouts++
	r.snapshot.Actor = domain.Guest()
	return r.logoutErr
}

func (r *stubResolver) Snapshot() ports.Snapshot { return r.snapshot }

func (r *stubResolver) Subscribe() (<-chan domain.Actor, func()) {
	return make(chan domain.Actor), func() {}
}

func (r *stubResolver) Wait(context.Context) (domain.Actor, error) {
	return r.snapshot.Actor, nil
}

type stubPublisher struct {
	events  []domain.SessionEvent
	err     error
	current *domain.ProviderSession
}

func (p *stubPublisher) CurrentSession(context.Context) (*domain.ProviderSession, error) {
	return p.current, nil
}

func (p *stubPublisher) Publish(_ context.Context, event domain.SessionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubIdle struct {
	touches int
	state   ports.IdleState
}

func (i *stubIdle) Touch()                 { i.touches++ }
func (i *stubIdle) State() ports.IdleState { return i.state }

type stubGuard struct {
	checks, awaits []string
	decision       domain.Decision
}

func (g *stubGuard) Authorize(string, domain.Actor) domain.Decision { return g.decision }

func (g *stubGuard) Check(_ context.Context, path string) domain.Decision {
	g.checks = append(g.checks, path)
	return g.decision
}

func (g *stubGuard) Await(_ context.Context, path string) domain.Decision {
	g.awaits = append(g.awaits, path)
	return g.decision
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func settledAs(actor domain.Actor) ports.Snapshot {
	return ports.Snapshot{Actor: actor, Settled: true}
}
