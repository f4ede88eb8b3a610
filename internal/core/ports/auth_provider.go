package ports

import (
	"context"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

// AuthProvider is the external identity provider as seen by the resolver.
type AuthProvider interface {
	// CurrentSession returns the live provider session, or nil when signed out.
	CurrentSession(ctx context.Context) (*domain.ProviderSession, error)
	// Subscribe delivers sign-in, sign-out and token-refresh events until the
	// returned func is called.
	Subscribe() (<-chan domain.SessionEvent, func())
	SignOut(ctx context.Context) error
}
