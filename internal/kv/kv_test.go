package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, CommentsKey("doc1"))
	require.ErrorIs(t, err, ErrNotFound)

	in := []item{{ID: "c1", Text: "first"}, {ID: "c2", Text: "second"}}
	require.NoError(t, SaveJSON(ctx, s, CommentsKey("doc1"), in))

	var out []item
	require.NoError(t, LoadJSON(ctx, s, CommentsKey("doc1"), &out))
	require.Equal(t, in, out)

	require.NoError(t, s.Delete(ctx, CommentsKey("doc1")))
	require.ErrorIs(t, LoadJSON(ctx, s, CommentsKey("doc1"), &out), ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, s.Delete(ctx, CommentsKey("missing")))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	s := NewRedisStore(client, "test:")
	exerciseStore(t, s)

	require.NoError(t, s.Put(context.Background(), NotificationsKey, []byte(`[]`)))
	require.True(t, m.Exists("test:notifications"))
}

func TestLoadJSON_Corrupt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, VersionsKey("doc1"), []byte("{not json")))

	var out []item
	err := LoadJSON(ctx, s, VersionsKey("doc1"), &out)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestKeys(t *testing.T) {
	require.Equal(t, "document_versions_d1", VersionsKey("d1"))
	require.Equal(t, "document_comments_d1", CommentsKey("d1"))
	require.Equal(t, "document_collaborators_d1", CollaboratorsKey("d1"))
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("doc1")
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Equal(t, 0, km.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked by lock on a")
	}
	unlockA()
}

func TestReadList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	list, err := ReadList[item](ctx, s, "missing")
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, s.Put(ctx, "null", []byte("null")))
	list, err = ReadList[item](ctx, s, "null")
	require.NoError(t, err)
	require.NotNil(t, list)

	require.NoError(t, s.Put(ctx, "bad", []byte("[{")))
	_, err = ReadList[item](ctx, s, "bad")
	require.ErrorIs(t, err, ErrCorrupt)
}

// appendConcurrently runs writers UpdateList calls, each appending one item,
// spread over the given stores.
func appendConcurrently(t *testing.T, key string, writers int, stores ...Store) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := stores[i%len(stores)]
			errs <- UpdateList(context.Background(), s, key, nil, func(list []item) ([]item, bool, error) {
				return append(list, item{ID: fmt.Sprint(i)}), true, nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestUpdateList_Memory(t *testing.T) {
	s := NewMemoryStore()
	appendConcurrently(t, CommentsKey("doc1"), 40, s)
	list, err := ReadList[item](context.Background(), s, CommentsKey("doc1"))
	require.NoError(t, err)
	require.Len(t, list, 40)
}

func TestUpdateList_RedisClientsShareKey(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	a := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:")
	b := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:")
	appendConcurrently(t, VersionsKey("doc1"), 30, a, b)

	list, err := ReadList[item](context.Background(), a, VersionsKey("doc1"))
	require.NoError(t, err)
	require.Len(t, list, 30)
}

func TestUpdateList_NoChangeSkipsWrite(t *testing.T) {
	s := NewMemoryStore()
	err := UpdateList(context.Background(), s, "untouched", nil, func(list []item) ([]item, bool, error) {
		return list, false, nil
	})
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "untouched")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateList_CorruptStartsEmpty(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "bad", []byte("[{")))

	var reported error
	err := UpdateList(ctx, s, "bad", func(err error) { reported = err }, func(list []item) ([]item, bool, error) {
		require.Empty(t, list)
		return append(list, item{ID: "fresh"}), true, nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, reported, ErrCorrupt)

	list, err := ReadList[item](ctx, s, "bad")
	require.NoError(t, err)
	require.Equal(t, []item{{ID: "fresh"}}, list)
}

func TestUpdateList_PropagatesFnError(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("duplicate")
	err := UpdateList(context.Background(), s, "k", nil, func(list []item) ([]item, bool, error) {
		return nil, false, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRedisLease_Exclusive(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	a := NewRedisLease(client, "lease:", time.Minute)
	b := NewRedisLease(redis.NewClient(&redis.Options{Addr: m.Addr()}), "lease:", time.Minute)
	ctx := context.Background()

	release, err := a.Acquire(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, m.Exists("lease:doc1"))

	// a second holder waits until the first releases
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = b.Acquire(waitCtx, "doc1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	require.False(t, m.Exists("lease:doc1"))

	releaseB, err := b.Acquire(ctx, "doc1")
	require.NoError(t, err)
	releaseB()
}

func TestRedisLease_ReleaseKeepsForeignHold(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	l := NewRedisLease(redis.NewClient(&redis.Options{Addr: m.Addr()}), "lease:", time.Second)
	release, err := l.Acquire(context.Background(), "doc1")
	require.NoError(t, err)

	// the hold expired and someone else took it
	m.FastForward(2 * time.Second)
	require.NoError(t, m.Set("lease:doc1", "other"))

	release()
	got, err := m.Get("lease:doc1")
	require.NoError(t, err)
	require.Equal(t, "other", got)
}
