// Package resolve turns ambiguous or partially-specified geometric
// references, such as a sketch plane, a workspace, or a part studio,
// into concrete service-recognized identifiers through layered fallback
// strategies.
package resolve

import (
	"context"
	"log/slog"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
)

// Gateway is the slice of the CAD client the resolvers consume.
type Gateway interface {
	CreateDocument(ctx context.Context, name string) (cad.Document, error)
	Workspaces(ctx context.Context, documentID string) ([]cad.Workspace, error)
	Elements(ctx context.Context, documentID, workspaceID string) ([]cad.Element, error)
	CreateElement(ctx context.Context, documentID, workspaceID, name string) (cad.Element, error)
	Planes(ctx context.Context, p cad.ElementPath) ([]cad.Plane, error)
}

type Resolver struct {
	gw     Gateway
	table  PlaneTable
	logger *slog.Logger
}

func New(gw Gateway, table PlaneTable, logger *slog.Logger) (*Resolver, error) {
	if gw == nil {
		return nil, errEmptyGateway
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{gw: gw, table: table, logger: logger}, nil
}

// Table returns the standard-plane table the resolver was built with.
func (r *Resolver) Table() PlaneTable {
	return r.table
}
