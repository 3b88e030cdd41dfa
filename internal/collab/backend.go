// Package collab assembles the collaborative document engine: it opens the
// configured state backend and wires the stores, background workers and
// routes together.
package collab

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/legalmind/legalmind/backend/go-services/internal/config"
	"github.com/legalmind/legalmind/backend/go-services/internal/database"
	"github.com/legalmind/legalmind/backend/go-services/internal/document/service"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/internal/presence"
	"github.com/legalmind/legalmind/backend/go-services/internal/storage"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
)

var log = logger.Named("collab")

const mongoConnectAttempts = 5

// Backend is the opened persistence layer.
type Backend struct {
	Name      string
	KV        kv.Store
	Presence  presence.Repository
	Documents *service.Service
	// Redis is nil unless REDIS_HOST is set and reachable.
	Redis   *redis.Client
	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// OpenBackend connects to whatever cfg.Collab.Backend names. Redis, when
// reachable, also backs presence so editors on different instances see each
// other; Mongo, when configured, also backs the document registry.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Name: cfg.Collab.Backend}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if cfg.Collab.Backend == config.BackendRedis {
				return nil, fmt.Errorf("redis %s:%s: %w", cfg.Redis.Host, cfg.Redis.Port, err)
			}
			log.Warnf("redis %s:%s unreachable, presence stays in-process: %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			b.Redis = client
			b.closers = append(b.closers, func() { _ = client.Close() })
		}
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			if cfg.Collab.Backend == config.BackendMongo {
				return nil, err
			}
			log.Warnf("mongo unavailable, document registry stays in-process: %v", err)
		} else {
			mongoClient = client
			b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		}
	}

	switch cfg.Collab.Backend {
	case config.BackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("backend %q requires REDIS_HOST", cfg.Collab.Backend)
		}
		b.KV = kv.NewRedisStore(b.Redis, "")
	case config.BackendMongo:
		if mongoClient == nil {
			return nil, fmt.Errorf("backend %q requires MONGODB_URI", cfg.Collab.Backend)
		}
		b.KV = kv.NewMongoStore(mongoClient.Database(cfg.MongoDB.Database).Collection("collab_state"))
	case config.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("backend %q requires POSTGRES_DSN", cfg.Collab.Backend)
		}
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Timeout)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := database.MigratePostgres(ctx, db.DB); err != nil {
			return nil, err
		}
		b.KV = kv.NewPostgresStore(db)
	case config.BackendMinIO:
		if !cfg.MinIO.Enabled() {
			return nil, fmt.Errorf("backend %q requires MINIO_ENDPOINT", cfg.Collab.Backend)
		}
		objects, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		var locks kv.Locker
		if b.Redis != nil {
			locks = kv.NewRedisLease(b.Redis, "", kv.DefaultLeaseTTL)
		} else {
			log.Warnf("no redis configured: %s updates are serialized within this instance only", cfg.Collab.Backend)
		}
		b.KV = kv.NewObjectStore(objects, "", locks)
	default:
		b.KV = kv.NewMemoryStore()
	}

	if b.Redis != nil {
		b.Presence = presence.NewRedisRepo(b.Redis, "", 5*cfg.Collab.PresenceLivenessWindow)
	} else {
		b.Presence = presence.NewMemoryRepo()
	}

	if mongoClient != nil {
		docs, err := service.NewMongoService(ctx, mongoClient.Database(cfg.MongoDB.Database).Collection("documents"))
		if err != nil {
			return nil, fmt.Errorf("document registry: %w", err)
		}
		b.Documents = docs
	} else {
		b.Documents = service.NewMemoryService()
	}

	log.Infof("backend=%s redis=%v mongo=%v", b.Name, b.Redis != nil, mongoClient != nil)
	ok = true
	return b, nil
}
