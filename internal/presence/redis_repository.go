package presence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepo shares presence between service instances. Each document is a
// hash "<prefix><documentID>" of editorID -> JSON record. The key TTL only
// garbage-collects abandoned documents; liveness is still decided on read.
type RedisRepo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepo creates a Redis-backed presence repository. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string, ttl time.Duration) *RedisRepo {
	if prefix == "" {
		prefix = "presence:"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRepo{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepo) key(documentID string) string { return r.prefix + documentID }

func (r *RedisRepo) Upsert(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(rec.DocumentID), rec.EditorID, b)
	pipe.Expire(ctx, r.key(rec.DocumentID), r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepo) Get(ctx context.Context, documentID, editorID string) (Record, bool, error) {
	b, err := r.client.HGet(ctx, r.key(documentID), editorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// touchIfPresent rewrites an editor's record only while its field still
// exists, so a Remove racing a Touch is never undone.
var touchIfPresent = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

func (r *RedisRepo) Touch(ctx context.Context, documentID, editorID string, at time.Time) (bool, error) {
	rec, ok, err := r.Get(ctx, documentID, editorID)
	if err != nil || !ok {
		return false, err
	}
	rec.LastActiveAt = at
	b, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	n, err := touchIfPresent.Run(ctx, r.client, []string{r.key(documentID)}, editorID, b, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRepo) Remove(ctx context.Context, documentID, editorID string) error {
	return r.client.HDel(ctx, r.key(documentID), editorID).Err()
}

func (r *RedisRepo) List(ctx context.Context, documentID string) ([]Record, error) {
	raw, err := r.client.HGetAll(ctx, r.key(documentID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for _, v := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			// skip the damaged entry rather than hiding every editor
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
