package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
)

// IdentityKey is the gin context key holding the caller's identity.Identity.
const IdentityKey = "identity"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func bearer(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		// browsers cannot set headers on websocket upgrades
		if q := c.Query("access_token"); q != "" {
			return q, true
		}
		return "", false
	}
	var token string
	if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
		return "", false
	}
	return token, true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the
// provided verifier and stores both the raw claims and the derived identity.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" && c.Query("access_token") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		id, ok := identity.FromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set("claims", claims)
		setIdentity(c, id)
		c.Next()
	}
}

// AnonymousMiddleware attaches identity.Anonymous to every request. It is used
// when no verifier is configured.
func AnonymousMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setIdentity(c, identity.Anonymous)
		c.Next()
	}
}

func setIdentity(c *gin.Context, id identity.Identity) {
	c.Set(IdentityKey, id)
	c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
}

// CurrentIdentity returns the identity set by one of the auth middlewares.
func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(identity.Identity); ok {
			return id, true
		}
	}
	return identity.FromContext(c.Request.Context())
}

// rateKey prefers the authenticated subject and falls back to the client IP.
func rateKey(c *gin.Context) string {
	if id, ok := CurrentIdentity(c); ok && id.ID != "" && id != identity.Anonymous {
		return "sub:" + id.ID
	}
	if v, ok := c.Get("claims"); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
