package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

const actorCollection = "actor_cache"

// ActorStore keeps each cache key in its own document of the actor_cache
// collection.
type ActorStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewActorStore creates an ActorStore on db.
func NewActorStore(db *mongo.Database) ports.ActorStore {
	return &ActorStore{db: db, coll: db.Collection(actorCollection)}
}

type mongoEntry struct {
	Key       string `bson:"_id"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *ActorStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e mongoEntry
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: find %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return e.Value, true, nil
}

// Set upserts the whole document in one write.
func (s *ActorStore) Set(ctx context.Context, key, value string) error {
	doc := mongoEntry{Key: key, Value: value, UpdatedAt: time.Now().Unix()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *ActorStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("%w: delete %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *ActorStore) Ping(ctx context.Context) error {
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
