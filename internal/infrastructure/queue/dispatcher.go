package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// Dispatcher feeds auth-provider events to the session resolver. Events are
// issued in arrival order, but their resolutions complete independently so
// that a sign-out can supersede a sign-in that is still probing.
type Dispatcher struct {
	provider ports.AuthProvider
	resolver ports.SessionResolver
	log      zerolog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(provider ports.AuthProvider, resolver ports.SessionResolver, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{provider: provider, resolver: resolver, log: log}
}

// Start subscribes to the provider before returning, then dispatches until
// ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	events, unsubscribe := d.provider.Subscribe()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer unsubscribe()
		d.run(ctx, events)
	}()
}

// Wait blocks until the dispatch loop and every outstanding resolution it
// issued have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, events <-chan domain.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			outcome := d.resolver.Enqueue(event)
			d.wg.Add(1)
			go d.report(event, outcome)
		}
	}
}

func (d *Dispatcher) report(event domain.SessionEvent, outcome <-chan ports.Outcome) {
	defer d.wg.Done()
	out := <-outcome
	switch {
	case out.Err == nil:
		d.log.Debug().Str("event", string(event.Type)).Stringer("actor", out.Actor).Msg("session event resolved")
	case errors.Is(out.Err, domain.ErrResolutionSuperseded):
		d.log.Debug().Str("event", string(event.Type)).Msg("session event superseded by a newer one")
	default:
		d.log.Error().Err(out.Err).Str("event", string(event.Type)).Msg("session event resolution failed")
	}
}
