package cad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

const (
	ElementTypePartStudio = "PARTSTUDIO"

	PlaneTypeStandard = "STANDARD"
	PlaneTypeCustom   = "CUSTOM"
)

// Wire types returned by the service's metadata endpoints.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

type Element struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ElementType string `json:"elementType"`
}

type Plane struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ElementPath addresses one part studio within the service's containment
// hierarchy. All feature endpoints hang off it.
type ElementPath struct {
	DocumentID  string
	WorkspaceID string
	ElementID   string
}

func (p ElementPath) base() string {
	return fmt.Sprintf("/api/documents/d/%s/w/%s/e/%s", p.DocumentID, p.WorkspaceID, p.ElementID)
}

func FeaturesPath(p ElementPath) string {
	return p.base() + "/features"
}

func SketchEntitiesPath(p ElementPath, sketchFeatureID string) string {
	return p.base() + "/sketches/" + sketchFeatureID + "/entities"
}

func SketchClosePath(p ElementPath, sketchFeatureID string) string {
	return p.base() + "/sketches/" + sketchFeatureID + "/close"
}

func FaceQueryPath(p ElementPath) string {
	return p.base() + "/query"
}

func PlanesPath(p ElementPath) string {
	return p.base() + "/planes?includeCustom=true"
}

// Client talks to the remote CAD modeling service. It performs no geometry
// computation; it only transmits well-formed requests and decodes responses.
type Client struct {
	baseURL string
	tokens  oauth2.TokenSource
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) CreateDocument(ctx context.Context, name string) (Document, error) {
	body := map[string]string{"name": name}
	var out Document
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/documents", Body: body}, &out); err != nil {
		return Document{}, err
	}
	return out, nil
}

func (c *Client) Workspaces(ctx context.Context, documentID string) ([]Workspace, error) {
	path := fmt.Sprintf("/api/documents/%s/workspaces", documentID)
	var out []Workspace
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Elements(ctx context.Context, documentID, workspaceID string) ([]Element, error) {
	path := fmt.Sprintf("/api/documents/d/%s/w/%s/elements", documentID, workspaceID)
	var out []Element
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateElement(ctx context.Context, documentID, workspaceID, name string) (Element, error) {
	path := fmt.Sprintf("/api/documents/d/%s/w/%s/elements", documentID, workspaceID)
	body := map[string]string{"name": name, "elementType": ElementTypePartStudio}
	var out Element
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, &out); err != nil {
		return Element{}, err
	}
	return out, nil
}

func (c *Client) Planes(ctx context.Context, p ElementPath) ([]Plane, error) {
	var out []Plane
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: PlanesPath(p)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Do transmits one request and decodes the response into out. Failures map
// onto the domain error taxonomy: transport errors become NetworkError,
// credential rejections become AuthenticationError, and any other
// non-success status or undecodable body becomes RemoteError.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	if strings.TrimSpace(r.Path) == "" {
		return errors.New("request path is required")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+r.Path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return &domain.AuthenticationError{Reason: err.Error()}
		}
		token.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return &domain.NetworkError{Err: err}
	}

	c.logger.Debug("cad call",
		"method", method,
		"path", r.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthenticationError{Reason: fmt.Sprintf("status=%d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &domain.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.RemoteError{StatusCode: resp.StatusCode, Body: "undecodable response: " + err.Error()}
	}
	return nil
}
