package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromClaims(t *testing.T) {
	id, ok := FromClaims(map[string]interface{}{"sub": "u1", "preferred_username": "jdoe", "email": "j@example.com"})
	require.True(t, ok)
	require.Equal(t, Identity{ID: "u1", Name: "jdoe", Email: "j@example.com"}, id)

	_, ok = FromClaims(map[string]interface{}{"email": "x@example.com"})
	require.False(t, ok)
}

func TestDisplayNameFallbacks(t *testing.T) {
	require.Equal(t, "Ann", Identity{ID: "1", Name: "Ann"}.DisplayName())
	require.Equal(t, "a@b.c", Identity{ID: "1", Email: "a@b.c"}.DisplayName())
	require.Equal(t, "1", Identity{ID: "1", Name: "  "}.DisplayName())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ID: "u2", Name: "Bo"})
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u2", got.ID)
}
