package versions

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

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
)

var author = identity.Identity{ID: "u1", Name: "Ada Counsel"}

func countCurrent(list []Version) int {
	n := 0
	for _, v := range list {
		if v.IsCurrent {
			n++
		}
	}
	return n
}

func TestSaveVersion_DemotesPrevious(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()

	v1, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: "v1", Content: "hello"}, author)
	require.NoError(t, err)
	v2, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: "v2", Content: "world"}, author)
	require.NoError(t, err)

	list := l.ListVersions(ctx, "doc1")
	require.Len(t, list, 2)
	require.Equal(t, v1.ID, list[0].ID)
	require.Equal(t, "v1", list[0].Name)
	require.False(t, list[0].IsCurrent)
	require.Equal(t, v2.ID, list[1].ID)
	require.Equal(t, "world", list[1].Content)
	require.True(t, list[1].IsCurrent)
	require.Equal(t, "Ada Counsel", list[1].AuthorName)

	cur, ok := l.Current(ctx, "doc1")
	require.True(t, ok)
	require.Equal(t, v2.ID, cur.ID)
}

func TestSaveVersion_ExactlyOneCurrentAfterEachSave(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := l.SaveVersion(ctx, "doc1", SaveInput{Content: fmt.Sprint(i)}, author)
		require.NoError(t, err)
		require.Equal(t, 1, countCurrent(l.ListVersions(ctx, "doc1")))
	}
}

func TestSaveVersion_KeepOthersCurrent(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()
	_, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: "a"}, author)
	require.NoError(t, err)
	_, err = l.SaveVersion(ctx, "doc1", SaveInput{Name: "b", KeepOthersCurrent: true}, author)
	require.NoError(t, err)

	list := l.ListVersions(ctx, "doc1")
	require.Equal(t, 2, countCurrent(list))

	// Current picks the newest of the current records
	cur, ok := l.Current(ctx, "doc1")
	require.True(t, ok)
	require.Equal(t, "b", cur.Name)
}

func TestSaveVersion_DefaultName(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()
	v, err := l.SaveVersion(ctx, "doc1", SaveInput{Content: "x"}, author)
	require.NoError(t, err)
	require.Equal(t, "Version 1", v.Name)
}

func TestSaveVersion_Validation(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	_, err := l.SaveVersion(context.Background(), "", SaveInput{}, author)
	require.True(t, apperr.IsValidation(err))
	_, err = l.SaveVersion(context.Background(), "doc1", SaveInput{}, identity.Identity{})
	require.True(t, apperr.IsValidation(err))
}

func TestDocumentsAreIndependent(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()
	_, _ = l.SaveVersion(ctx, "doc1", SaveInput{Name: "a"}, author)
	_, _ = l.SaveVersion(ctx, "doc2", SaveInput{Name: "b"}, author)
	require.Len(t, l.ListVersions(ctx, "doc1"), 1)
	require.True(t, l.ListVersions(ctx, "doc1")[0].IsCurrent)
	require.True(t, l.ListVersions(ctx, "doc2")[0].IsCurrent)
}

func TestConcurrentSavesKeepSingleCurrent(t *testing.T) {
	l := NewLedger(kv.NewMemoryStore())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: fmt.Sprint(i)}, author)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()
	list := l.ListVersions(ctx, "doc1")
	require.Len(t, list, 25)
	require.Equal(t, 1, countCurrent(list))
	require.True(t, list[len(list)-1].IsCurrent)
}

func TestCorruptLedgerReadsAsEmpty(t *testing.T) {
	s := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, kv.VersionsKey("doc1"), []byte("not json")))

	l := NewLedger(s)
	require.Empty(t, l.ListVersions(ctx, "doc1"))
	_, ok := l.Current(ctx, "doc1")
	require.False(t, ok)

	v, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: "recovered"}, author)
	require.NoError(t, err)
	require.Equal(t, []Version{*v}, l.ListVersions(ctx, "doc1"))
}

type brokenStore struct{ kv.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("i/o timeout")
}

func (brokenStore) Update(context.Context, string, kv.UpdateFunc) error {
	return errors.New("i/o timeout")
}

func TestReadFailureIsSwallowedOnList(t *testing.T) {
	l := NewLedger(brokenStore{kv.NewMemoryStore()})
	require.Empty(t, l.ListVersions(context.Background(), "doc1"))

	_, err := l.SaveVersion(context.Background(), "doc1", SaveInput{}, author)
	require.Error(t, err)
	require.False(t, apperr.IsValidation(err))
}

func TestGetAndRestore(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLedger(kv.NewMemoryStore(), WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }))
	ctx := context.Background()
	v1, _ := l.SaveVersion(ctx, "doc1", SaveInput{Name: "draft", Content: "old"}, author)
	_, _ = l.SaveVersion(ctx, "doc1", SaveInput{Name: "final", Content: "new"}, author)

	got, ok := l.Get(ctx, "doc1", v1.ID)
	require.True(t, ok)
	require.Equal(t, "old", got.Content)

	restored, err := l.Restore(ctx, "doc1", v1.ID, author)
	require.NoError(t, err)
	require.Equal(t, "Restored: draft", restored.Name)
	require.Equal(t, "old", restored.Content)
	require.Equal(t, 1, countCurrent(l.ListVersions(ctx, "doc1")))

	missing, err := l.Restore(ctx, "doc1", "nope", author)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSaveVersion_Notifies(t *testing.T) {
	s := kv.NewMemoryStore()
	center := notifications.NewCenter(s)
	l := NewLedger(s, WithNotifier(center))
	ctx := context.Background()

	_, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: "Signed"}, author)
	require.NoError(t, err)

	list := center.List(ctx)
	require.Len(t, list, 1)
	require.Equal(t, notifications.KindDocument, list[0].Kind)
	require.Equal(t, "doc1", list[0].RelatedDocumentID)
	require.Contains(t, list[0].Message, `"Signed"`)
}

func TestSaveVersion_SharedRedisAcrossInstances(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	newInstance := func() *Ledger {
		client := redis.NewClient(&redis.Options{Addr: m.Addr()})
		t.Cleanup(func() { client.Close() })
		return NewLedger(kv.NewRedisStore(client, "test:"))
	}
	a, b := newInstance(), newInstance()
	ctx := context.Background()

	_, err = a.SaveVersion(ctx, "doc1", SaveInput{Name: "v0"}, author)
	require.NoError(t, err)

	const perInstance = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perInstance)
	for _, l := range []*Ledger{a, b} {
		for i := 0; i < perInstance; i++ {
			wg.Add(1)
			go func(l *Ledger, i int) {
				defer wg.Done()
				_, err := l.SaveVersion(ctx, "doc1", SaveInput{Name: fmt.Sprintf("save %d", i)}, author)
				errs <- err
			}(l, i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, l := range []*Ledger{a, b} {
		list := l.ListVersions(ctx, "doc1")
		require.Len(t, list, 2*perInstance+1)
		require.Equal(t, 1, countCurrent(list))
		require.Equal(t, "v0", list[0].Name)
	}
}
