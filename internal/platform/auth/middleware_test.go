package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticAuthenticator struct {
	identity Identity
	err      error
}

func (a staticAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	if a.err != nil {
		return Identity{}, a.err
	}
	return a.identity, nil
}

func TestMiddleware_InjectsIdentity(t *testing.T) {
	var got Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFromContext(r.Context())
	})
	h := Middleware{Authenticator: staticAuthenticator{identity: Identity{Subject: "alice"}}}.Wrap(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if !ok || got.Subject != "alice" {
		t.Fatalf("expected identity in context, got %+v ok=%v", got, ok)
	}
}

func TestMiddleware_RejectsUnauthenticated(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})
	h := Middleware{Authenticator: staticAuthenticator{err: ErrUnauthenticated}}.Wrap(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
}

func TestMiddleware_SkipsHealthEndpoints(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := Middleware{
		Authenticator: staticAuthenticator{err: ErrUnauthenticated},
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}.Wrap(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected skip prefix to bypass auth, called=%v status=%d", called, rec.Code)
	}
}

func TestMiddleware_NilAuthenticatorPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := Middleware{}.Wrap(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if !called {
		t.Fatalf("expected pass-through when auth is disabled")
	}
}

func TestDevAuthenticator(t *testing.T) {
	a := NewDevAuthenticator(Config{Mode: ModeDev, DevSubject: "dev-user", DevRoles: []string{"modeler"}})
	identity, err := a.Authenticate(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Authenticate() err=%v", err)
	}
	if identity.Subject != "dev-user" || len(identity.Roles) != 1 {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestFromConfig_DisabledReturnsNil(t *testing.T) {
	a, err := FromConfig(context.Background(), Config{Mode: ModeDisabled})
	if err != nil {
		t.Fatalf("FromConfig() err=%v", err)
	}
	if a != nil {
		t.Fatalf("expected nil authenticator for disabled mode")
	}
}
