package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// ActorStore keeps the durable actor slot in Redis. A zero ttl keeps the
// value until it is overwritten or deleted.
type ActorStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActorStore wraps the given Redis client.
func NewActorStore(client *redis.Client, ttl time.Duration) ports.ActorStore {
	return &ActorStore{client: client, ttl: ttl}
}

func (s *ActorStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: redis get %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return v, true, nil
}

// Set replaces the value with a single SET, so readers see either the old
// or the new value.
func (s *ActorStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *ActorStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: redis del %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *ActorStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
