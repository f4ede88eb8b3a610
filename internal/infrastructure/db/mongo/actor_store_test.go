package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

const actorNS = "test.actor_cache"

var badValue = mtest.CommandError{Code: 2, Name: "BadValue", Message: "bad value"}

func TestActorStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get returns the stored value", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, actorNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "casalinger:current_actor"},
			{Key: "value", Value: `{"v":1}`},
			{Key: "updated_at", Value: int64(1767225600)},
		}))

		value, found, err := store.Get(ctx, "casalinger:current_actor")
		if err != nil || !found || value != `{"v":1}` {
			mt.Fatalf("Get = %q, %v, %v", value, found, err)
		}
		if cmd := mt.GetStartedEvent(); cmd == nil || cmd.CommandName != "find" {
			mt.Fatalf("expected a find command, got %+v", cmd)
		}
	})

	mt.Run("get of a missing key is a miss", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, actorNS, mtest.FirstBatch))

		value, found, err := store.Get(ctx, "casalinger:current_actor")
		if err != nil || found || value != "" {
			mt.Fatalf("expected a clean miss, got %q, %v, %v", value, found, err)
		}
	})

	mt.Run("set upserts the whole document", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := store.Set(ctx, "casalinger:current_actor", `{"v":1}`); err != nil {
			mt.Fatalf("Set returned error: %v", err)
		}
		cmd := mt.GetStartedEvent()
		if cmd == nil || cmd.CommandName != "update" {
			mt.Fatalf("expected an update command, got %+v", cmd)
		}
		update := cmd.Command.Lookup("updates", "0")
		if !update.Document().Lookup("upsert").Boolean() {
			mt.Fatalf("expected upsert, got %s", update)
		}
		if got := update.Document().Lookup("u", "value").StringValue(); got != `{"v":1}` {
			mt.Fatalf("replacement value = %q", got)
		}
	})

	mt.Run("delete removes by key", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := store.Delete(ctx, "casalinger:current_actor"); err != nil {
			mt.Fatalf("Delete returned error: %v", err)
		}
		if cmd := mt.GetStartedEvent(); cmd == nil || cmd.CommandName != "delete" {
			mt.Fatalf("expected a delete command, got %+v", cmd)
		}
	})

	mt.Run("server errors are store unavailable", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(badValue),
			mtest.CreateCommandErrorResponse(badValue),
			mtest.CreateCommandErrorResponse(badValue),
			mtest.CreateCommandErrorResponse(badValue),
		)

		if _, _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrStoreUnavailable) {
			mt.Fatalf("Get: expected ErrStoreUnavailable, got %v", err)
		}
		if err := store.Set(ctx, "k", "v"); !errors.Is(err, domain.ErrStoreUnavailable) {
			mt.Fatalf("Set: expected ErrStoreUnavailable, got %v", err)
		}
		if err := store.Delete(ctx, "k"); !errors.Is(err, domain.ErrStoreUnavailable) {
			mt.Fatalf("Delete: expected ErrStoreUnavailable, got %v", err)
		}
		if err := store.Ping(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
			mt.Fatalf("Ping: expected ErrStoreUnavailable, got %v", err)
		}
	})

	mt.Run("ping", func(mt *mtest.T) {
		store := NewActorStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := store.Ping(ctx); err != nil {
			mt.Fatalf("Ping returned error: %v", err)
		}
	})
}
