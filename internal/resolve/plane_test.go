package resolve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

var _ Gateway = (*cad.Client)(nil)

type fakeGateway struct {
	createDocument func(ctx context.Context, name string) (cad.Document, error)
	workspaces     func(ctx context.Context, documentID string) ([]cad.Workspace, error)
	elements       func(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error)
	createElement  func(ctx context.Context, documentID, workspaceID, name string) (cad.Element, error)
	planes         func(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error)

	planeCalls int
}

func (g *fakeGateway) CreateDocument(ctx context.Context, name string) (cad.Document, error) {
	if g.createDocument == nil {
		return cad.Document{}, errors.New("unexpected CreateDocument")
	}
	return g.createDocument(ctx, name)
}

func (g *fakeGateway) Workspaces(ctx context.Context, documentID string) ([]cad.Workspace, error) {
	if g.workspaces == nil {
		return nil, errors.New("unexpected Workspaces")
	}
	return g.workspaces(ctx, documentID)
}

func (g *fakeGateway) Elements(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error) {
	if g.elements == nil {
		return nil, errors.New("unexpected Elements")
	}
	return g.elements(ctx, documentID, workspaceID)
}

func (g *fakeGateway) CreateElement(ctx context.Context, documentID, workspaceID, name string) (cad.Element, error) {
	if g.createElement == nil {
		return cad.Element{}, errors.New("unexpected CreateElement")
	}
	return g.createElement(ctx, documentID, workspaceID, name)
}

func (g *fakeGateway) Planes(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error) {
	g.planeCalls++
	if g.planes == nil {
		return nil, errors.New("unexpected Planes")
	}
	return g.planes(ctx, p)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, gw Gateway) *Resolver {
	t.Helper()
	r, err := New(gw, DefaultPlaneTable(), testLogger())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func testPath() cad.ElementPath {
	return cad.ElementPath{DocumentID: "doc1", WorkspaceID: "ws1", ElementID: "el1"}
}

func TestResolvePlaneStandardByID(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{ID: "JHD"}, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.Kind != domain.PlaneStandard || ref.ID != "JHD" || ref.Name != "TOP" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
	if gw.planeCalls != 0 {
		t.Fatalf("expected no network calls, got %d", gw.planeCalls)
	}
}

func TestResolvePlaneStandardByName(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	for _, name := range []string{"front", "FRONT", "Front plane"} {
		ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{Name: name}, testPath())
		if err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
		if ref.Kind != domain.PlaneStandard || ref.ID != "JFD" {
			t.Fatalf("resolve %q: unexpected reference: %+v", name, ref)
		}
	}
}

func TestResolvePlaneSuffix(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	cases := map[string]string{
		"el1_TOP": "JHD",
		"el1_JFD": "JFD",
		"el1_jgd": "JGD",
	}
	for id, want := range cases {
		ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{ID: id}, testPath())
		if err != nil {
			t.Fatalf("resolve %q: %v", id, err)
		}
		if ref.Kind != domain.PlaneStandard || ref.ID != want {
			t.Fatalf("resolve %q: expected standard %s, got %+v", id, want, ref)
		}
	}
}

func TestResolvePlaneCompoundFace(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{ID: "JCC.face12"}, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.Kind != domain.PlaneFace {
		t.Fatalf("expected face plane, got %+v", ref)
	}
	if ref.ID != "JCC.face12" {
		t.Fatalf("face identifier must be preserved verbatim, got %q", ref.ID)
	}
}

func TestResolvePlanePlainCustom(t *testing.T) {
	gw := &fakeGateway{}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{ID: "JPP", Name: "Slanted"}, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.Kind != domain.PlaneCustom || ref.ID != "JPP" {
		t.Fatalf("expected custom plane, got %+v", ref)
	}
}

func TestResolvePlaneNameOnlyUnmatchedFallsThrough(t *testing.T) {
	gw := &fakeGateway{
		planes: func(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error) {
			return []cad.Plane{{ID: "JHD", Name: "Top", Type: cad.PlaneTypeStandard}}, nil
		},
	}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), &domain.PlaneSelection{Name: "something else"}, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if gw.planeCalls != 1 {
		t.Fatalf("expected the element's plane list to be consulted")
	}
	if ref.Kind != domain.PlaneStandard || ref.ID != "JHD" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
}

func TestResolvePlaneEmptySelectionUsesElementList(t *testing.T) {
	gw := &fakeGateway{
		planes: func(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error) {
			return []cad.Plane{
				{ID: "JXX", Name: "Custom", Type: cad.PlaneTypeCustom},
				{ID: "JHD", Name: "Top", Type: cad.PlaneTypeStandard},
			}, nil
		},
	}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), nil, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.Kind != domain.PlaneStandard || ref.ID != "JHD" {
		t.Fatalf("expected first standard plane from listing, got %+v", ref)
	}
}

func TestResolvePlaneNetworkFallbackIsDeterministic(t *testing.T) {
	gw := &fakeGateway{
		planes: func(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error) {
			return nil, &domain.NetworkError{Err: errors.New("connection refused")}
		},
	}
	r := newTestResolver(t, gw)

	first, err := r.ResolvePlane(context.Background(), nil, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := r.ResolvePlane(context.Background(), nil, testPath())
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatalf("fallback must be deterministic: %+v vs %+v", first, second)
	}
	if first.Kind != domain.PlaneStandard || first.ID != "el1_JHD" || first.Name != "TOP" {
		t.Fatalf("unexpected fallback selection: %+v", first)
	}
}

func TestFallbackPlanesSynthesizedIdentifiers(t *testing.T) {
	r := newTestResolver(t, &fakeGateway{})

	planes := r.FallbackPlanes("el9")
	if len(planes) != 3 {
		t.Fatalf("expected 3 synthesized planes, got %d", len(planes))
	}
	wantIDs := []string{"el9_JHD", "el9_JFD", "el9_JGD"}
	wantNames := []string{"TOP", "FRONT", "RIGHT"}
	for i, plane := range planes {
		if plane.ID != wantIDs[i] || plane.Name != wantNames[i] {
			t.Fatalf("plane %d: expected %s/%s, got %+v", i, wantIDs[i], wantNames[i], plane)
		}
		if plane.Kind != domain.PlaneStandard {
			t.Fatalf("plane %d: expected standard kind, got %s", i, plane.Kind)
		}
	}
}

func TestResolvePlaneNoStandardInListing(t *testing.T) {
	gw := &fakeGateway{
		planes: func(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error) {
			return []cad.Plane{{ID: "JXX", Name: "Custom", Type: cad.PlaneTypeCustom}}, nil
		},
	}
	r := newTestResolver(t, gw)

	ref, err := r.ResolvePlane(context.Background(), nil, testPath())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.ID != "el1_JHD" {
		t.Fatalf("expected synthesized fallback, got %+v", ref)
	}
}
