package identity

import (
	"context"
	"strings"
)

// Identity is the caller on whose behalf a store operation runs. It is
// supplied by the authentication layer and passed explicitly into every
// mutating operation.
type Identity struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// Anonymous is used when no authenticated caller is available.
var Anonymous = Identity{ID: "anonymous", Name: "Anonymous"}

// DisplayName falls back to the email and then the id when no name is known.
func (i Identity) DisplayName() string {
	if n := strings.TrimSpace(i.Name); n != "" {
		return n
	}
	if i.Email != "" {
		return i.Email
	}
	return i.ID
}

// FromClaims builds an identity from verified token claims (sub, name,
// preferred_username, email). Returns false when the subject is missing.
func FromClaims(claims map[string]interface{}) (Identity, bool) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, false
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	email, _ := claims["email"].(string)
	return Identity{ID: sub, Name: name, Email: email}, true
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
