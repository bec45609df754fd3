package shapes

import (
	"errors"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/pipeline"
)

type LampParams struct {
	BaseRadius  float64
	BaseHeight  float64
	StemRadius  float64
	StemHeight  float64
	ShadeRadius float64
	ShadeAngle  float64
}

func (p LampParams) Validate() error {
	if p.BaseRadius <= 0 || p.BaseHeight <= 0 {
		return errors.New("base dimensions must be positive")
	}
	if p.StemRadius <= 0 || p.StemHeight <= 0 {
		return errors.New("stem dimensions must be positive")
	}
	if p.StemRadius >= p.BaseRadius {
		return errors.New("stem radius must be smaller than base radius")
	}
	if p.ShadeRadius <= p.StemRadius {
		return errors.New("shade radius must exceed stem radius")
	}
	if p.ShadeAngle <= 0 || p.ShadeAngle > 360 {
		return errors.New("shade angle must be in (0, 360]")
	}
	return nil
}

// Lamp builds a base and a stem as chained extrudes, then revolves a shade
// profile around the vertical axis. Each modeling step depends only on the
// sketch immediately preceding it.
func Lamp(scope cad.ElementPath, plane domain.PlaneReference, p LampParams) (pipeline.Definition, error) {
	if err := p.Validate(); err != nil {
		return pipeline.Definition{}, &domain.ValidationError{Reason: "lamp: " + err.Error()}
	}

	stemTop := p.BaseHeight + p.StemHeight
	shadeDrop := (p.ShadeRadius - p.StemRadius) / 2

	return pipeline.Definition{
		Shape: "lamp",
		Scope: scope,
		Steps: []pipeline.Step{
			sketchStep("base_sketch", scope, plane, "Lamp base sketch"),
			entitiesStep("base_profile", "base_sketch", scope, cad.Circle(p.BaseRadius, 0, 0)),
			closeStep("base_close", "base_sketch", scope),
			extrudeStep("base_extrude", "base_sketch", scope, "Lamp base extrude", cad.OperationNew, p.BaseHeight),

			sketchStep("stem_sketch", scope, plane, "Lamp stem sketch"),
			entitiesStep("stem_profile", "stem_sketch", scope, cad.Circle(p.StemRadius, 0, 0)),
			closeStep("stem_close", "stem_sketch", scope),
			extrudeStep("stem_extrude", "stem_sketch", scope, "Lamp stem extrude", cad.OperationNew, stemTop),

			sketchStep("shade_sketch", scope, plane, "Lamp shade sketch"),
			entitiesStep("shade_profile", "shade_sketch", scope,
				cad.Line(p.StemRadius, stemTop, p.ShadeRadius, stemTop-shadeDrop),
				cad.Line(p.ShadeRadius, stemTop-shadeDrop, p.ShadeRadius, stemTop-shadeDrop-faceTolerance),
				cad.Line(p.ShadeRadius, stemTop-shadeDrop-faceTolerance, p.StemRadius, stemTop-faceTolerance),
				cad.Line(p.StemRadius, stemTop-faceTolerance, p.StemRadius, stemTop),
			),
			closeStep("shade_close", "shade_sketch", scope),
			revolveStep("shade_revolve", "shade_sketch", scope, "Lamp shade revolve", p.ShadeAngle),
		},
	}, nil
}
