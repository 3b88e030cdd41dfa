package oidc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/pkg/middleware"
)

// InsecureVerifier reads the claims of a JWT without checking its signature.
// It is only enabled by ALLOW_INSECURE_TOKEN=true for local runs and
// integration tests. The token must still name a subject, and an exp claim,
// when present, must lie in the future.
type InsecureVerifier struct {
	parser *jwt.Parser
	now    func() time.Time
}

func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{parser: jwt.NewParser(), now: time.Now}
}

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if _, ok := identity.FromClaims(claims); !ok {
		return nil, errors.New("token has no subject")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp != nil && !exp.After(v.now()) {
		return nil, jwt.ErrTokenExpired
	}
	return &claimsToken{claims: claims}, nil
}
