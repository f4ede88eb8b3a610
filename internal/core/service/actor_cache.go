package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
	"github.com/casalinger/session-gateway/internal/pkg/metrics"
)

const (
	// ActorCacheKey is the fixed key of the durable actor slot.
	ActorCacheKey = "casalinger:current_actor"

	actorCacheVersion = 1
)

// cacheEnvelope versions the stored actor so an incompatible shape written by
// an older build reads as empty instead of as a wrong actor.
type cacheEnvelope struct {
	V     int             `json:"v"`
	Actor json.RawMessage `json:"actor"`
}

type actorCache struct {
	store ports.ActorStore
	key   string
	log   zerolog.Logger
}

// NewActorCache returns the single-slot actor cache backed by store.
func NewActorCache(store ports.ActorStore, log zerolog.Logger) ports.ActorCache {
	return &actorCache{store: store, key: ActorCacheKey, log: log}
}

// Write serializes actor fully before handing it to the store, so the slot is
// replaced by one assignment.
func (c *actorCache) Write(ctx context.Context, actor domain.Actor) error {
	raw, err := json.Marshal(actor)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("write", "error").Inc()
		return fmt.Errorf("encode actor: %w", err)
	}
	data, err := json.Marshal(cacheEnvelope{V: actorCacheVersion, Actor: raw})
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("write", "error").Inc()
		return fmt.Errorf("encode actor envelope: %w", err)
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("write", "error").Inc()
		return fmt.Errorf("write actor cache: %w", err)
	}
	metrics.CacheOperationsTotal.WithLabelValues("write", "ok").Inc()
	return nil
}

func (c *actorCache) Read(ctx context.Context) (domain.Actor, bool) {
	value, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("read", "error").Inc()
		c.log.Warn().Err(err).Msg("actor cache read failed, treating as empty")
		return domain.Guest(), false
	}
	if !found || value == "" {
		metrics.CacheOperationsTotal.WithLabelValues("read", "miss").Inc()
		return domain.Guest(), false
	}

	var env cacheEnvelope
	if err := json.Unmarshal([]byte(value), &env); err != nil || env.V != actorCacheVersion {
		metrics.CacheOperationsTotal.WithLabelValues("read", "corrupt").Inc()
		c.log.Debug().Err(err).Int("version", env.V).Msg("discarding unreadable actor cache entry")
		return domain.Guest(), false
	}
	var actor domain.Actor
	if err := json.Unmarshal(env.Actor, &actor); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("read", "corrupt").Inc()
		c.log.Debug().Err(err).Msg("discarding unreadable cached actor")
		return domain.Guest(), false
	}

	metrics.CacheOperationsTotal.WithLabelValues("read", "hit").Inc()
	return actor, true
}

func (c *actorCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("clear", "error").Inc()
		return fmt.Errorf("clear actor cache: %w", err)
	}
	metrics.CacheOperationsTotal.WithLabelValues("clear", "ok").Inc()
	return nil
}
