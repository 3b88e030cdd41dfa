package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	Rev       int64     `bson:"rev"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore keeps one document per key in the given collection.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (m *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e mongoEntry
	if err := m.col.FindOne(ctx, bson.M{"_id": key}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e.Value, nil
}

func (m *MongoStore) Put(ctx context.Context, key string, value []byte) error {
	update := bson.M{
		"$set": bson.M{"value": value, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"rev": 1},
	}
	_, err := m.col.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	return err
}

// revFilter matches key at revision rev. Entries written before revisions
// existed carry no rev field and read as zero.
func revFilter(key string, rev int64) bson.M {
	if rev == 0 {
		return bson.M{"_id": key, "rev": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"_id": key, "rev": rev}
}

// Update is a compare-and-swap on the entry's rev field. A lost race
// re-reads the entry and runs fn again.
func (m *MongoStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var e mongoEntry
		err := m.col.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
		missing := errors.Is(err, mongo.ErrNoDocuments)
		if err != nil && !missing {
			return err
		}
		var current []byte
		if !missing {
			current = e.Value
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}

		now := time.Now().UTC()
		if missing {
			_, err = m.col.InsertOne(ctx, mongoEntry{Key: key, Value: next, Rev: 1, UpdatedAt: now})
			if err == nil {
				return nil
			}
			if !mongo.IsDuplicateKeyError(err) {
				return err
			}
		} else {
			res, err := m.col.UpdateOne(ctx, revFilter(key, e.Rev), bson.M{
				"$set": bson.M{"value": next, "updatedAt": now, "rev": e.Rev + 1},
			})
			if err != nil {
				return err
			}
			if res.MatchedCount == 1 {
				return nil
			}
		}
		if err := retryPause(ctx, attempt); err != nil {
			return err
		}
	}
	return fmt.Errorf("update %s: %w", key, ErrConflict)
}

func (m *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
