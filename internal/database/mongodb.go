package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
)

var log = logger.Named("database")

const appName = "legalmind-collab"

// ConnectMongo connects and pings, retrying up to attempts times with a
// doubling backoff so the service survives starting before its database.
// A malformed URI fails at once. Callers own client.Disconnect.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration, attempts int) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetAppName(appName).SetServerSelectionTimeout(timeout)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongo uri: %w", err)
	}
	if attempts < 1 {
		attempts = 1
	}

	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := pingMongo(ctx, opts, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		log.Warnf("mongo attempt %d/%d: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("mongo unreachable after %d attempts: %w", attempts, lastErr)
}

func pingMongo(ctx context.Context, opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
