package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
)

// steppingClock returns a clock advancing one second per call so creation
// order is observable in timestamps.
func steppingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newCenter() (*Center, *kv.MemoryStore) {
	s := kv.NewMemoryStore()
	return NewCenter(s, WithClock(steppingClock())), s
}

func create(t *testing.T, c *Center, title string) *Notification {
	t.Helper()
	n, err := c.Create(context.Background(), Input{Title: title, Message: "m", Kind: KindSystem})
	require.NoError(t, err)
	return n
}

func TestCreate_ListNewestFirst(t *testing.T) {
	c, _ := newCenter()
	first := create(t, c, "first")
	second := create(t, c, "second")

	require.False(t, first.Read)
	require.Equal(t, SeverityInfo, first.Severity)

	list := c.List(context.Background())
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestCreate_Validation(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()

	_, err := c.Create(ctx, Input{Title: "  ", Kind: KindSystem})
	require.True(t, apperr.IsValidation(err))

	_, err = c.Create(ctx, Input{Title: "x", Kind: "billing"})
	require.True(t, apperr.IsValidation(err))

	_, err = c.Create(ctx, Input{Title: "x", Kind: KindDocument, Severity: "loud"})
	require.True(t, apperr.IsValidation(err))

	require.Empty(t, c.List(ctx))
}

func TestUnreadCountTransitions(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()

	before := c.UnreadCount(ctx)
	a := create(t, c, "a")
	require.Equal(t, before+1, c.UnreadCount(ctx))

	require.NoError(t, c.MarkRead(ctx, a.ID))
	require.Equal(t, before, c.UnreadCount(ctx))

	// removing a read notification leaves the count unchanged
	require.NoError(t, c.Remove(ctx, a.ID))
	require.Equal(t, before, c.UnreadCount(ctx))

	// removing an unread one decrements it
	b := create(t, c, "b")
	require.Equal(t, before+1, c.UnreadCount(ctx))
	require.NoError(t, c.Remove(ctx, b.ID))
	require.Equal(t, before, c.UnreadCount(ctx))
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()
	create(t, c, "a")
	create(t, c, "b")

	for i := 0; i < 2; i++ {
		require.NoError(t, c.MarkAllRead(ctx))
		for _, n := range c.List(ctx) {
			require.True(t, n.Read)
		}
		require.Zero(t, c.UnreadCount(ctx))
	}
}

func TestUnknownIDsAreNoops(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()
	create(t, c, "a")

	require.NoError(t, c.MarkRead(ctx, "missing"))
	require.NoError(t, c.Remove(ctx, "missing"))
	require.Len(t, c.List(ctx), 1)
	require.Equal(t, 1, c.UnreadCount(ctx))
}

func TestClear(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()
	create(t, c, "a")
	create(t, c, "b")
	require.NoError(t, c.Clear(ctx))
	require.Empty(t, c.List(ctx))
}

func TestCorruptStoreReadsAsEmpty(t *testing.T) {
	c, s := newCenter()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, kv.NotificationsKey, []byte("{{{")))

	require.Empty(t, c.List(ctx))
	require.Zero(t, c.UnreadCount(ctx))

	// the next write replaces the unreadable value
	create(t, c, "fresh")
	require.Len(t, c.List(ctx), 1)
}

type failingStore struct{ kv.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Update(context.Context, string, kv.UpdateFunc) error {
	return errors.New("connection refused")
}

func TestReadFailureSwallowed(t *testing.T) {
	c := NewCenter(failingStore{kv.NewMemoryStore()})
	ctx := context.Background()
	require.Empty(t, c.List(ctx))
	require.Zero(t, c.UnreadCount(ctx))

	// writes refuse to overwrite data they could not read
	_, err := c.Create(ctx, Input{Title: "x", Kind: KindSystem})
	require.Error(t, err)
}
