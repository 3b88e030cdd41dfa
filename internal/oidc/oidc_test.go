package oidc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
)

const secret = "test-secret-32-bytes-should-be-long-enough"

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v, err := NewHMACVerifier(secret)
	require.NoError(t, err)

	raw, err := v.Issue(identity.Identity{ID: "user-123", Name: "Test User", Email: "test@example.com"}, 2*time.Minute)
	require.NoError(t, err)

	tok, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))

	id, ok := identity.FromClaims(claims)
	require.True(t, ok)
	require.Equal(t, "user-123", id.ID)
	require.Equal(t, "Test User", id.Name)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	_, err := NewHMACVerifier("short")
	require.Error(t, err)

	v, err := NewHMACVerifier(secret)
	require.NoError(t, err)

	expired, err := v.Issue(identity.Identity{ID: "u"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	require.Error(t, err)

	other, _ := NewHMACVerifier(secret + "-other")
	foreign, err := other.Issue(identity.Identity{ID: "u"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), foreign)
	require.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noExp)
	require.Error(t, err)
}

func TestInsecureVerifier(t *testing.T) {
	unsigned := func(claims jwt.MapClaims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any key at all"))
		require.NoError(t, err)
		return raw
	}
	v := NewInsecureVerifier()
	ctx := context.Background()

	tok, err := v.Verify(ctx, unsigned(jwt.MapClaims{"sub": "dev", "name": "Dev"}))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	id, ok := identity.FromClaims(claims)
	require.True(t, ok)
	require.Equal(t, identity.Identity{ID: "dev", Name: "Dev"}, id)

	_, err = v.Verify(ctx, unsigned(jwt.MapClaims{"name": "No Subject"}))
	require.Error(t, err)

	_, err = v.Verify(ctx, unsigned(jwt.MapClaims{"sub": "dev", "exp": time.Now().Add(-time.Minute).Unix()}))
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = v.Verify(ctx, "garbage")
	require.Error(t, err)
}

func TestIssuerURL(t *testing.T) {
	require.Equal(t, "http://kc:8080/realms/legal", IssuerURL("http://kc:8080/", "legal"))
}
