package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "goodtoken":
		return &fakeToken{data: map[string]interface{}{"sub": "user1", "name": "Test User", "email": "test@example.com"}}, nil
	case "nosub":
		return &fakeToken{data: map[string]interface{}{"email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func serve(t *testing.T, g *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rw := serve(t, g, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	require.Equal(t, http.StatusUnauthorized, serve(t, g, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nosub")
	require.Equal(t, http.StatusUnauthorized, serve(t, g, req).Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		claims, ok := c.Get("claims")
		require.True(t, ok)
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		fromCtx, ok := identity.FromContext(c.Request.Context())
		require.True(t, ok)
		require.Equal(t, id, fromCtx)
		c.JSON(http.StatusOK, gin.H{"claims": claims, "identity": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw := serve(t, g, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got struct {
		Claims   map[string]interface{} `json:"claims"`
		Identity identity.Identity      `json:"identity"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got.Claims["sub"])
	require.Equal(t, identity.Identity{ID: "user1", Name: "Test User", Email: "test@example.com"}, got.Identity)
}

func TestAuthMiddleware_QueryTokenForWebsocket(t *testing.T) {
	g := gin.New()
	g.GET("/ws", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.String(http.StatusOK, id.ID)
	})

	rw := serve(t, g, httptest.NewRequest(http.MethodGet, "/ws?access_token=goodtoken", nil))
	require.Equal(t, http.StatusOK, rw.Code)
	require.Equal(t, "user1", rw.Body.String())
}

func TestAnonymousMiddleware(t *testing.T) {
	g := gin.New()
	g.GET("/", AnonymousMiddleware(), func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.ID)
	})

	rw := serve(t, g, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, identity.Anonymous.ID, rw.Body.String())
}
