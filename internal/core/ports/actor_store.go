package ports

import (
	"context"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

// ActorStore is durable key/value persistence for serialized values.
// Get returns found=false when the key is absent.
type ActorStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ActorCache is the single durable slot holding the last resolved actor.
// It is a hint for fast first paint, never the source of truth.
type ActorCache interface {
	Write(ctx context.Context, actor domain.Actor) error
	// Read never fails: missing or unreadable data reports ok=false.
	Read(ctx context.Context) (actor domain.Actor, ok bool)
	Clear(ctx context.Context) error
}
