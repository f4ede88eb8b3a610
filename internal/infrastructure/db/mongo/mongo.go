package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

const (
	selectTimeout = 10 * time.Second
	appName       = "session-gateway"
)

// Config selects the MongoDB deployment backing the actor cache.
type Config struct {
	URI      string
	Database string
	// Timeout bounds server selection and the startup ping; selectTimeout
	// when zero.
	Timeout time.Duration
}

func clientOptions(cfg Config) *options.ClientOptions {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = selectTimeout
	}
	return options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
}

// OpenActorStore connects to MongoDB, pings the deployment through the store
// and returns it with the function that disconnects the client.
func OpenActorStore(ctx context.Context, cfg Config, log zerolog.Logger) (ports.ActorStore, func(context.Context) error, error) {
	opts := clientOptions(cfg)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mongo connect: %w", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, *opts.ServerSelectionTimeout)
	defer cancel()

	store := NewActorStore(client.Database(cfg.Database))
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	log.Info().Str("database", cfg.Database).Str("collection", actorCollection).Msg("actor cache on mongo")
	return store, client.Disconnect, nil
}
