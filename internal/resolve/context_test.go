package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

func TestResolveContextCreatesDocumentWhenNoneSelected(t *testing.T) {
	gw := &fakeGateway{
		createDocument: func(ctx context.Context, name string) (cad.Document, error) {
			if name == "" {
				t.Fatalf("expected a generated document name")
			}
			return cad.Document{ID: "doc1", Name: name}, nil
		},
		workspaces: func(ctx context.Context, documentID string) ([]cad.Workspace, error) {
			return []cad.Workspace{{ID: "ws1", IsDefault: true}}, nil
		},
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			return []cad.Element{{ID: "el1", Name: "Part Studio 1", ElementType: cad.ElementTypePartStudio}}, nil
		},
	}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Document.ID != "doc1" || rc.Workspace.ID != "ws1" || rc.Element.ID != "el1" {
		t.Fatalf("unexpected context: %+v", rc)
	}
}

func TestResolveContextUsesSuppliedDocumentName(t *testing.T) {
	gw := &fakeGateway{
		createDocument: func(ctx context.Context, name string) (cad.Document, error) {
			if name != "Bracket" {
				t.Fatalf("expected supplied name, got %q", name)
			}
			return cad.Document{ID: "doc1", Name: name}, nil
		},
		workspaces: func(ctx context.Context, documentID string) ([]cad.Workspace, error) {
			return []cad.Workspace{{ID: "ws1", IsDefault: true}}, nil
		},
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			return []cad.Element{{ID: "el1", ElementType: cad.ElementTypePartStudio}}, nil
		},
	}
	r := newTestResolver(t, gw)

	if _, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{DocumentName: "Bracket"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestResolveContextPrefersDefaultWorkspace(t *testing.T) {
	gw := &fakeGateway{
		workspaces: func(ctx context.Context, documentID string) ([]cad.Workspace, error) {
			return []cad.Workspace{
				{ID: "ws-old"},
				{ID: "ws-main", IsDefault: true},
			}, nil
		},
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			return []cad.Element{{ID: "el1", ElementType: cad.ElementTypePartStudio}}, nil
		},
	}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document: &domain.DocumentRef{ID: "doc1"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Workspace.ID != "ws-main" || !rc.Workspace.IsDefault {
		t.Fatalf("expected default workspace, got %+v", rc.Workspace)
	}
}

func TestResolveContextNoWorkspaces(t *testing.T) {
	gw := &fakeGateway{
		workspaces: func(ctx context.Context, documentID string) ([]cad.Workspace, error) {
			return nil, nil
		},
	}
	r := newTestResolver(t, gw)

	_, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document: &domain.DocumentRef{ID: "doc1"},
	})
	var resErr *domain.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestResolveContextSuppliedWorkspaceSkipsListing(t *testing.T) {
	gw := &fakeGateway{
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			if workspaceID != "ws42" {
				t.Fatalf("expected supplied workspace, got %q", workspaceID)
			}
			return []cad.Element{{ID: "el1", ElementType: cad.ElementTypePartStudio}}, nil
		},
	}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document:    &domain.DocumentRef{ID: "doc1"},
		WorkspaceID: "ws42",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Workspace.ID != "ws42" {
		t.Fatalf("unexpected workspace: %+v", rc.Workspace)
	}
}

func TestResolveContextIgnoresElementFromAnotherDocument(t *testing.T) {
	gw := &fakeGateway{
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			return []cad.Element{{ID: "el-current", ElementType: cad.ElementTypePartStudio}}, nil
		},
	}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document:    &domain.DocumentRef{ID: "doc1"},
		WorkspaceID: "ws1",
		Element:     &domain.ElementRef{ID: "el-stale", DocumentID: "doc-other"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Element.ID != "el-current" {
		t.Fatalf("stale element must be ignored, got %+v", rc.Element)
	}
}

func TestResolveContextTrustsMatchingElement(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document:    &domain.DocumentRef{ID: "doc1"},
		WorkspaceID: "ws1",
		Element:     &domain.ElementRef{ID: "el1", DocumentID: "doc1"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Element.ID != "el1" {
		t.Fatalf("unexpected element: %+v", rc.Element)
	}
}

func TestResolveContextCreatesPartStudioWhenNoneExists(t *testing.T) {
	gw := &fakeGateway{
		elements: func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
			return []cad.Element{{ID: "el-drawing", ElementType: "DRAWING"}}, nil
		},
		createElement: func(ctx context.Context, documentID, workspaceID, name string) (cad.Element, error) {
			if name == "" {
				t.Fatalf("expected a generated element name")
			}
			return cad.Element{ID: "el-new", Name: name, ElementType: cad.ElementTypePartStudio}, nil
		},
	}
	r := newTestResolver(t, gw)

	rc, err := r.ResolveContext(context.Background(), domain.SelectionSnapshot{
		Document:    &domain.DocumentRef{ID: "doc1"},
		WorkspaceID: "ws1",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rc.Element.ID != "el-new" || rc.Element.DocumentID != "doc1" {
		t.Fatalf("unexpected element: %+v", rc.Element)
	}
}
