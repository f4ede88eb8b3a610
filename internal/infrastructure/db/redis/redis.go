package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

const dialTimeout = 5 * time.Second

// Config selects the Redis instance backing the actor cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialling and every command; dialTimeout when zero.
	Timeout time.Duration
	// TTL is the lifetime of each cached actor entry; zero keeps entries.
	TTL time.Duration
}

// Connect dials Redis and pings it. An unreachable instance is reported as
// domain.ErrStoreUnavailable so startup can tell it apart from bad config.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = dialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis %s: %w", domain.ErrStoreUnavailable, cfg.Addr, err)
	}
	return client, nil
}

// OpenActorStore connects to Redis and returns the actor store on it along
// with the function that releases the connection pool.
func OpenActorStore(ctx context.Context, cfg Config, log zerolog.Logger) (ports.ActorStore, func() error, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Dur("ttl", cfg.TTL).Msg("actor cache on redis")
	return NewActorStore(client, cfg.TTL), client.Close, nil
}
