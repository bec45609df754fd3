// Package auth authenticates callers of the modeler API. Bearer tokens are
// verified against an OIDC issuer; dev and disabled modes exist for local
// work. Interactive login flows are not handled here.
package auth

import (
	"context"
	"errors"
	"net/http"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok
}

// Authenticator resolves a request to an identity or ErrUnauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}
