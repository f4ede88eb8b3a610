package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

type stubProvider struct {
	events       chan domain.SessionEvent
	unsubscribed chan struct{}
}

func (p *stubProvider) CurrentSession(context.Context) (*domain.ProviderSession, error) {
	return nil, nil
}

func (p *stubProvider) Subscribe() (<-chan domain.SessionEvent, func()) {
	return p.events, func() { close(p.unsubscribed) }
}

func (p *stubProvider) SignOut(context.Context) error { return nil }

// stubResolver records enqueued events and resolves each to Guest.
type stubResolver struct {
	ports.SessionResolver
	mu       sync.Mutex
	received []domain.SessionEventType
}

func (r *stubResolver) Enqueue(event domain.SessionEvent) <-chan ports.Outcome {
	r.mu.Lock()
	r.received = append(r.received, event.Type)
	r.mu.Unlock()
	out := make(chan ports.Outcome, 1)
	out <- ports.Outcome{Actor: domain.Guest()}
	return out
}

func (r *stubResolver) types() []domain.SessionEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionEventType(nil), r.received...)
}

func TestDispatcher_ForwardsEventsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	provider := &stubProvider{events: make(chan domain.SessionEvent), unsubscribed: make(chan struct{})}
	resolver := &stubResolver{}
	d := NewDispatcher(provider, resolver, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	sent := []domain.SessionEventType{domain.SessionSignedIn, domain.SessionTokenRefreshed, domain.SessionSignedOut}
	for _, typ := range sent {
		provider.events <- domain.SessionEvent{Type: typ}
	}

	cancel()
	d.Wait()

	select {
	case <-provider.unsubscribed:
	case <-time.After(time.Second):
		t.Fatalf("dispatcher did not unsubscribe")
	}

	got := resolver.types()
	if len(got) != len(sent) {
		t.Fatalf("forwarded %v, want %v", got, sent)
	}
	for i := range sent {
		if got[i] != sent[i] {
			t.Fatalf("forwarded %v, want %v", got, sent)
		}
	}
}
