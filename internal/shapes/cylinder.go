package shapes

import (
	"errors"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/pipeline"
)

type CylinderParams struct {
	Radius float64
	Height float64
}

func (p CylinderParams) Validate() error {
	if p.Radius <= 0 {
		return errors.New("radius must be positive")
	}
	if p.Height <= 0 {
		return errors.New("height must be positive")
	}
	return nil
}

// Cylinder sketches a circle on the resolved plane and extrudes it. The
// extrude is the final feature.
func Cylinder(scope cad.ElementPath, plane domain.PlaneReference, p CylinderParams) (pipeline.Definition, error) {
	if err := p.Validate(); err != nil {
		return pipeline.Definition{}, &domain.ValidationError{Reason: "cylinder: " + err.Error()}
	}
	return pipeline.Definition{
		Shape: "cylinder",
		Scope: scope,
		Steps: []pipeline.Step{
			sketchStep("sketch", scope, plane, "Cylinder sketch"),
			entitiesStep("profile", "sketch", scope, cad.Circle(p.Radius, 0, 0)),
			closeStep("close", "sketch", scope),
			extrudeStep("extrude", "sketch", scope, "Cylinder extrude", cad.OperationNew, p.Height),
		},
	}, nil
}
