package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalmind/legalmind/backend/go-services/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Create(ctx, &document.Document{ID: "d1", Title: "NDA", CaseID: "c1", UpdatedAt: at}))
	require.NoError(t, r.Create(ctx, &document.Document{ID: "d2", Title: "Lease", CaseID: "c2", UpdatedAt: at.Add(time.Hour)}))

	got, err := r.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "NDA", got.Title)

	list, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "d2", list[0].ID)

	list, err = r.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	content := "new terms"
	upd, err := r.Update(ctx, "d1", document.Patch{Content: &content}, at.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "new terms", upd.Content)
	require.Equal(t, "NDA", upd.Title)

	// returned copies do not alias the stored entry
	upd.Title = "changed"
	got, _ = r.Get(ctx, "d1")
	require.Equal(t, "NDA", got.Title)

	_, err = r.Update(ctx, "missing", document.Patch{}, at)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, "d1"))
	_, err = r.Get(ctx, "d1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "d1"), ErrNotFound)
}
