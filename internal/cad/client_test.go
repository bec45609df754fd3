package cad

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestDoSendsBearerToken(t *testing.T) {
	var got string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}), WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"})))

	if err := client.Do(context.Background(), Request{Path: "/api/documents"}, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if got != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", got)
	}
}

func TestDoMapsUnauthorizedToAuthenticationError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		err := client.Do(context.Background(), Request{Path: "/api/documents"}, nil)
		var authErr *domain.AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("status %d: expected authentication error, got %v", status, err)
		}
	}
}

func TestDoMapsServerErrorToRemoteError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("kaboom"))
	}))
	err := client.Do(context.Background(), Request{Path: "/api/documents"}, nil)
	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500 carried in error, got %d", remoteErr.StatusCode)
	}
	if remoteErr.Body != "kaboom" {
		t.Fatalf("expected response body carried in error, got %q", remoteErr.Body)
	}
}

func TestDoMapsTransportFailureToNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	doErr := client.Do(context.Background(), Request{Path: "/api/documents"}, nil)
	var netErr *domain.NetworkError
	if !errors.As(doErr, &netErr) {
		t.Fatalf("expected network error, got %v", doErr)
	}
}

func TestDoMapsUndecodableBodyToRemoteError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	var out map[string]any
	err := client.Do(context.Background(), Request{Path: "/api/documents"}, &out)
	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestCreateElementPayload(t *testing.T) {
	var decoded map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/d/doc1/w/ws1/elements" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(Element{ID: "el1", Name: decoded["name"], ElementType: ElementTypePartStudio})
	}))

	el, err := client.CreateElement(context.Background(), "doc1", "ws1", "Part Studio 1")
	if err != nil {
		t.Fatalf("create element: %v", err)
	}
	if decoded["elementType"] != ElementTypePartStudio {
		t.Fatalf("expected part studio element type, got %q", decoded["elementType"])
	}
	if el.ID != "el1" {
		t.Fatalf("unexpected element: %+v", el)
	}
}

func TestPlanesPathRequestsCustomPlanes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("includeCustom") != "true" {
			t.Fatalf("expected includeCustom=true, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]Plane{{ID: "JHD", Name: "Top", Type: PlaneTypeStandard}})
	}))

	planes, err := client.Planes(context.Background(), ElementPath{DocumentID: "doc1", WorkspaceID: "ws1", ElementID: "el1"})
	if err != nil {
		t.Fatalf("planes: %v", err)
	}
	if len(planes) != 1 || planes[0].ID != "JHD" {
		t.Fatalf("unexpected planes: %+v", planes)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestDepthAndAngleFormatting(t *testing.T) {
	if got := DepthInches(2.5); got != "2.5 in" {
		t.Fatalf("unexpected depth expression: %q", got)
	}
	if got := AngleDegrees(360); got != "360 deg" {
		t.Fatalf("unexpected angle expression: %q", got)
	}
}
