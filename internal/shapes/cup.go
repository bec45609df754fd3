package shapes

import (
	"errors"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/pipeline"
)

type CupParams struct {
	Radius        float64
	Height        float64
	WallThickness float64
}

func (p CupParams) Validate() error {
	if p.Radius <= 0 {
		return errors.New("radius must be positive")
	}
	if p.Height <= 0 {
		return errors.New("height must be positive")
	}
	if p.WallThickness <= 0 {
		return errors.New("wall thickness must be positive")
	}
	if p.WallThickness >= p.Radius {
		return errors.New("wall thickness must be smaller than radius")
	}
	if p.WallThickness >= p.Height {
		return errors.New("wall thickness must be smaller than height")
	}
	return nil
}

// Cup extrudes an outer wall, finds its top face by geometric query, then
// sketches on that face and cuts the inner volume. The cut leaves the wall
// thickness on the sides and the bottom; it is the final feature.
func Cup(scope cad.ElementPath, plane domain.PlaneReference, p CupParams) (pipeline.Definition, error) {
	if err := p.Validate(); err != nil {
		return pipeline.Definition{}, &domain.ValidationError{Reason: "cup: " + err.Error()}
	}
	return pipeline.Definition{
		Shape: "cup",
		Scope: scope,
		Steps: []pipeline.Step{
			sketchStep("outer_sketch", scope, plane, "Cup outer sketch"),
			entitiesStep("outer_profile", "outer_sketch", scope, cad.Circle(p.Radius, 0, 0)),
			closeStep("outer_close", "outer_sketch", scope),
			extrudeStep("outer_extrude", "outer_sketch", scope, "Cup outer extrude", cad.OperationNew, p.Height),
			faceAboveStep("top_face", "outer_extrude", scope, p.Height-faceTolerance),
			sketchOnFaceStep("inner_sketch", "top_face", scope, "Cup inner sketch"),
			entitiesStep("inner_profile", "inner_sketch", scope, cad.Circle(p.Radius-p.WallThickness, 0, 0)),
			closeStep("inner_close", "inner_sketch", scope),
			extrudeStep("inner_cut", "inner_sketch", scope, "Cup inner cut", cad.OperationRemove, -(p.Height - p.WallThickness)),
		},
	}, nil
}
