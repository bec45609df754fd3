package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

const defaultDocumentName = "Untitled part"

// ResolvedContext is a fully concrete document/workspace/element triple.
type ResolvedContext struct {
	Document  domain.DocumentRef
	Workspace domain.WorkspaceRef
	Element   domain.ElementRef
}

// Path addresses the resolved part studio on the service.
func (c ResolvedContext) Path() cad.ElementPath {
	return cad.ElementPath{
		DocumentID:  c.Document.ID,
		WorkspaceID: c.Workspace.ID,
		ElementID:   c.Element.ID,
	}
}

// ResolveContext fills the missing pieces of the caller's selection: it
// creates a document when none was chosen, picks the document's default
// workspace, and reuses or creates a part-studio element. Nothing is cached;
// every invocation re-resolves from the service. Failed creations are not
// retried here; retrying is the caller's call.
func (r *Resolver) ResolveContext(ctx context.Context, snapshot domain.SelectionSnapshot) (ResolvedContext, error) {
	document, err := r.resolveDocument(ctx, snapshot)
	if err != nil {
		return ResolvedContext{}, err
	}

	workspace, err := r.resolveWorkspace(ctx, document, snapshot.WorkspaceID)
	if err != nil {
		return ResolvedContext{}, err
	}

	element, err := r.resolveElement(ctx, document, workspace, snapshot.Element)
	if err != nil {
		return ResolvedContext{}, err
	}

	return ResolvedContext{Document: document, Workspace: workspace, Element: element}, nil
}

func (r *Resolver) resolveDocument(ctx context.Context, snapshot domain.SelectionSnapshot) (domain.DocumentRef, error) {
	if snapshot.Document != nil && strings.TrimSpace(snapshot.Document.ID) != "" {
		return *snapshot.Document, nil
	}
	name := strings.TrimSpace(snapshot.DocumentName)
	if name == "" {
		name = defaultDocumentName + " " + shortID()
	}
	created, err := r.gw.CreateDocument(ctx, name)
	if err != nil {
		return domain.DocumentRef{}, err
	}
	r.logger.Info("document created", "document_id", created.ID, "name", created.Name)
	return domain.DocumentRef{ID: created.ID, Name: created.Name}, nil
}

func (r *Resolver) resolveWorkspace(ctx context.Context, document domain.DocumentRef, workspaceID string) (domain.WorkspaceRef, error) {
	if id := strings.TrimSpace(workspaceID); id != "" {
		return domain.WorkspaceRef{ID: id}, nil
	}
	workspaces, err := r.gw.Workspaces(ctx, document.ID)
	if err != nil {
		return domain.WorkspaceRef{}, err
	}
	if len(workspaces) == 0 {
		return domain.WorkspaceRef{}, &domain.ResolutionError{What: "no workspace"}
	}
	for _, ws := range workspaces {
		if ws.IsDefault {
			return domain.WorkspaceRef{ID: ws.ID, IsDefault: true}, nil
		}
	}
	return domain.WorkspaceRef{ID: workspaces[0].ID}, nil
}

func (r *Resolver) resolveElement(ctx context.Context, document domain.DocumentRef, workspace domain.WorkspaceRef, supplied *domain.ElementRef) (domain.ElementRef, error) {
	// A caller-supplied element is only trusted when the document that
	// produced it is the active one.
	if supplied != nil && supplied.BelongsTo(document.ID) {
		return *supplied, nil
	}
	if supplied != nil && strings.TrimSpace(supplied.ID) != "" {
		r.logger.Warn("ignoring element from another document",
			"element_id", supplied.ID, "element_document_id", supplied.DocumentID,
			"document_id", document.ID)
	}

	elements, err := r.gw.Elements(ctx, document.ID, workspace.ID)
	if err != nil {
		return domain.ElementRef{}, err
	}
	for _, el := range elements {
		if el.ElementType == cad.ElementTypePartStudio {
			return domain.ElementRef{ID: el.ID, Name: el.Name, DocumentID: document.ID}, nil
		}
	}

	name := fmt.Sprintf("Part Studio %s", shortID())
	created, err := r.gw.CreateElement(ctx, document.ID, workspace.ID, name)
	if err != nil {
		return domain.ElementRef{}, err
	}
	r.logger.Info("part studio created", "element_id", created.ID, "document_id", document.ID)
	return domain.ElementRef{ID: created.ID, Name: created.Name, DocumentID: document.ID}, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
