package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

var errEmptyGateway = errors.New("gateway is required")

// planeTier is one predicate→mapper pair. Tiers run in fixed order; the
// first that yields a reference wins and later tiers are never consulted.
type planeTier struct {
	name  string
	match func(sel domain.PlaneSelection, table PlaneTable) (domain.PlaneReference, bool)
}

var planeTiers = []planeTier{
	{name: "standard", match: matchStandard},
	{name: "suffix", match: matchSuffix},
	{name: "compound", match: matchCompound},
}

// ResolvePlane normalizes a caller-supplied plane selection into a canonical
// PlaneReference. A nil or empty selection is resolved from the element's
// plane list; if that listing fails, a synthesized standard-plane set keeps
// the pipeline available at the cost of plane-identifier accuracy.
func (r *Resolver) ResolvePlane(ctx context.Context, selection *domain.PlaneSelection, path cad.ElementPath) (domain.PlaneReference, error) {
	if selection != nil && !selection.IsZero() {
		for _, tier := range planeTiers {
			if ref, ok := tier.match(*selection, r.table); ok {
				r.logger.Debug("plane resolved", "tier", tier.name, "kind", string(ref.Kind), "id", ref.ID)
				return ref, nil
			}
		}
		// Name-only selections that match nothing fall through to the
		// element's plane list, same as an absent selection.
	}
	return r.planeFromElement(ctx, path)
}

// matchStandard resolves selections that directly denote a standard plane:
// a known service identifier, a name equal to a table entry, or a name
// containing "<entry> plane".
func matchStandard(sel domain.PlaneSelection, table PlaneTable) (domain.PlaneReference, bool) {
	id := strings.TrimSpace(sel.ID)
	name := strings.ToUpper(strings.TrimSpace(sel.Name))
	for _, entry := range table.Planes {
		if id != "" && id == entry.ID {
			return domain.StandardPlane(entry.ID, entry.Name), true
		}
		if name != "" {
			if strings.EqualFold(name, entry.Name) {
				return domain.StandardPlane(entry.ID, entry.Name), true
			}
			if strings.Contains(name, strings.ToUpper(entry.Name)+" PLANE") {
				return domain.StandardPlane(entry.ID, entry.Name), true
			}
		}
	}
	return domain.PlaneReference{}, false
}

// matchSuffix resolves identifiers that carry a recognizable standard-plane
// suffix token, such as "<element>_TOP" or "<element>_JHD".
func matchSuffix(sel domain.PlaneSelection, table PlaneTable) (domain.PlaneReference, bool) {
	id := strings.ToUpper(strings.TrimSpace(sel.ID))
	if id == "" {
		return domain.PlaneReference{}, false
	}
	for _, entry := range table.Planes {
		if strings.HasSuffix(id, "_"+strings.ToUpper(entry.Name)) ||
			strings.HasSuffix(id, "_"+strings.ToUpper(entry.ID)) {
			return domain.StandardPlane(entry.ID, entry.Name), true
		}
	}
	return domain.PlaneReference{}, false
}

// geometrySeparators are the characters that mark a compound geometry
// identifier. Recognized standard suffixes never reach this tier, so an
// underscore here always means feature-derived geometry.
const geometrySeparators = "_./"

// matchCompound classifies any remaining identifier: compound identifiers
// are faces produced by prior features, plain identifiers are non-standard
// reference planes. The identifier is preserved verbatim either way.
func matchCompound(sel domain.PlaneSelection, _ PlaneTable) (domain.PlaneReference, bool) {
	id := strings.TrimSpace(sel.ID)
	if id == "" {
		return domain.PlaneReference{}, false
	}
	if strings.ContainsAny(id, geometrySeparators) {
		return domain.FacePlane(id), true
	}
	return domain.CustomPlane(id, strings.TrimSpace(sel.Name)), true
}

func (r *Resolver) planeFromElement(ctx context.Context, path cad.ElementPath) (domain.PlaneReference, error) {
	planes, err := r.gw.Planes(ctx, path)
	if err != nil {
		// Read-only metadata being unreachable must not stall the
		// pipeline: synthesize the standard set and pick the first.
		r.logger.Warn("plane list unavailable, using synthesized standard planes",
			"element_id", path.ElementID, "error", err)
		return r.FallbackPlanes(path.ElementID)[0], nil
	}
	for _, plane := range planes {
		if plane.Type == cad.PlaneTypeStandard {
			return domain.StandardPlane(plane.ID, plane.Name), nil
		}
	}
	if len(r.table.Planes) == 0 {
		return domain.PlaneReference{}, &domain.ResolutionError{What: "no plane"}
	}
	return r.FallbackPlanes(path.ElementID)[0], nil
}

// FallbackPlanes synthesizes one Standard entry per table row with
// deterministic identifiers of the form "<elementID>_<planeID>". The first
// entry is the active selection.
func (r *Resolver) FallbackPlanes(elementID string) []domain.PlaneReference {
	out := make([]domain.PlaneReference, 0, len(r.table.Planes))
	for _, entry := range r.table.Planes {
		out = append(out, domain.StandardPlane(elementID+"_"+entry.ID, entry.Name))
	}
	return out
}
