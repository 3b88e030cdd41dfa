package kv

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants exclusive holds on keys. Acquire blocks until the key is free
// or ctx is done and returns the release func.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// KeyedMutex serializes read-modify-write sequences per key within one
// process. Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Acquire is Lock behind the Locker interface. It does not observe ctx.
func (k *KeyedMutex) Acquire(_ context.Context, key string) (func(), error) {
	return k.Lock(key), nil
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// DefaultLeaseTTL bounds how long a crashed holder can block a key.
const DefaultLeaseTTL = 30 * time.Second

var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a Locker shared by every instance pointed at the same Redis.
// A hold is a SET NX PX entry carrying a random token; release only deletes
// the entry while it still carries that token.
type RedisLease struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLease(client *redis.Client, prefix string, ttl time.Duration) *RedisLease {
	if prefix == "" {
		prefix = "collab:lease:"
	}
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &RedisLease{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLease) Acquire(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()
	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseLease.Run(rctx, l.client, []string{k}, token).Err(); err != nil {
					log.Warnf("release lease %s: %v", k, err)
				}
			}, nil
		}
		if err := retryPause(ctx, attempt); err != nil {
			return nil, err
		}
	}
}
