package comments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
)

var ada = identity.Identity{ID: "u1", Name: "Ada Counsel"}

func tickingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func ids(list []Comment) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestAddAndList_InsertionOrder(t *testing.T) {
	th := NewThread(kv.NewMemoryStore(), WithClock(tickingClock()))
	ctx := context.Background()

	a, err := th.Add(ctx, "doc1", "first", ada)
	require.NoError(t, err)
	b, err := th.Add(ctx, "doc1", "second", ada)
	require.NoError(t, err)

	list := th.List(ctx, "doc1")
	require.Equal(t, []string{a.ID, b.ID}, ids(list))
	require.Equal(t, "Ada Counsel", list[0].AuthorName)
	require.Empty(t, th.List(ctx, "doc2"))
}

func TestAdd_Validation(t *testing.T) {
	th := NewThread(kv.NewMemoryStore())
	ctx := context.Background()

	_, err := th.Add(ctx, "doc1", "   ", ada)
	require.True(t, apperr.IsValidation(err))
	_, err = th.Add(ctx, "doc1", strings.Repeat("x", maxTextLength+1), ada)
	require.True(t, apperr.IsValidation(err))
	_, err = th.Add(ctx, "doc1", "hi", identity.Identity{})
	require.True(t, apperr.IsValidation(err))
	require.Empty(t, th.List(ctx, "doc1"))
}

func TestUpdate_RestampsButKeepsPosition(t *testing.T) {
	th := NewThread(kv.NewMemoryStore(), WithClock(tickingClock()))
	ctx := context.Background()
	a, _ := th.Add(ctx, "doc1", "first", ada)
	b, _ := th.Add(ctx, "doc1", "second", ada)

	got, err := th.Update(ctx, "doc1", a.ID, "first, revised")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Edited)
	require.True(t, got.CreatedAt.After(b.CreatedAt))

	list := th.List(ctx, "doc1")
	require.Equal(t, []string{a.ID, b.ID}, ids(list))
	require.Equal(t, "first, revised", list[0].Text)
}

func TestUpdate_UnknownIDIsNoop(t *testing.T) {
	th := NewThread(kv.NewMemoryStore())
	ctx := context.Background()
	a, _ := th.Add(ctx, "doc1", "first", ada)

	got, err := th.Update(ctx, "doc1", "missing", "x")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, "first", th.List(ctx, "doc1")[0].Text)
	require.Equal(t, a.ID, th.List(ctx, "doc1")[0].ID)
}

func TestDelete(t *testing.T) {
	th := NewThread(kv.NewMemoryStore())
	ctx := context.Background()
	a, _ := th.Add(ctx, "doc1", "a", ada)
	b, _ := th.Add(ctx, "doc1", "b", ada)
	c, _ := th.Add(ctx, "doc1", "c", ada)

	removed, err := th.Delete(ctx, "doc1", "missing")
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, []string{a.ID, b.ID, c.ID}, ids(th.List(ctx, "doc1")))

	removed, err = th.Delete(ctx, "doc1", b.ID)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []string{a.ID, c.ID}, ids(th.List(ctx, "doc1")))
}

func TestCorruptThreadReadsAsEmpty(t *testing.T) {
	s := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, kv.CommentsKey("doc1"), []byte("{oops")))

	th := NewThread(s)
	require.Empty(t, th.List(ctx, "doc1"))
	removed, err := th.Delete(ctx, "doc1", "anything")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestAdd_Notifies(t *testing.T) {
	s := kv.NewMemoryStore()
	center := notifications.NewCenter(s)
	th := NewThread(s, WithNotifier(center))
	ctx := context.Background()

	c, err := th.Add(ctx, "doc1", "Please review clause 4", ada)
	require.NoError(t, err)

	list := center.List(ctx)
	require.Len(t, list, 1)
	require.Equal(t, notifications.KindComment, list[0].Kind)
	require.Equal(t, "New comment from Ada Counsel", list[0].Title)
	require.Equal(t, "Please review clause 4", list[0].Message)
	require.Contains(t, list[0].Link, c.ID)
}
