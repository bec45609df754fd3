// Package shapes holds the declarative step templates for the shapes the
// system can build. Definitions only declare steps and dependencies; all
// reference resolution lives elsewhere.
package shapes

import (
	"encoding/json"
	"net/http"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/pipeline"
)

// faceTolerance is subtracted from an expected extrusion height when
// querying for its top face, so floating-point imprecision in the service's
// reported geometry cannot miss the face.
const faceTolerance = 0.1

// planeQueryType selects the query-type constant a sketch payload embeds
// for the active plane variant.
func planeQueryType(ref domain.PlaneReference) string {
	switch ref.Kind {
	case domain.PlaneFace:
		return cad.QueryTypeFace
	case domain.PlaneCustom:
		return cad.QueryTypePlane
	default:
		return cad.QueryTypeStandardPlane
	}
}

// sketchStep opens a sketch on a resolved plane.
func sketchStep(name string, scope cad.ElementPath, plane domain.PlaneReference, featureName string) pipeline.Step {
	return pipeline.Step{
		Name: name,
		Build: func(pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.FeaturesPath(scope),
				Body: cad.FeatureRequest{Feature: cad.Feature{
					Name:        featureName,
					FeatureType: cad.FeatureTypeSketch,
					Parameters: []any{
						cad.PlaneParameter{QueryType: planeQueryType(plane), DeterministicIDs: []string{plane.ID}},
						cad.ImprintingParameter{DisableImprinting: true},
					},
					Entities: []any{},
				}},
			}, nil
		},
	}
}

// sketchOnFaceStep opens a sketch on the first face selected by a prior
// face-query step.
func sketchOnFaceStep(name, faceDep string, scope cad.ElementPath, featureName string) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{faceDep},
		Build: func(in pipeline.Inputs) (cad.Request, error) {
			faceID := in.FirstFace(faceDep)
			if faceID == "" {
				return cad.Request{}, &domain.ResolutionError{What: "expected face not found"}
			}
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.FeaturesPath(scope),
				Body: cad.FeatureRequest{Feature: cad.Feature{
					Name:        featureName,
					FeatureType: cad.FeatureTypeSketch,
					Parameters: []any{
						cad.PlaneParameter{QueryType: cad.QueryTypeFace, DeterministicIDs: []string{faceID}},
						cad.ImprintingParameter{DisableImprinting: true},
					},
					Entities: []any{},
				}},
			}, nil
		},
	}
}

// entitiesStep appends drawing entities to an open sketch.
func entitiesStep(name, sketchDep string, scope cad.ElementPath, entities ...any) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{sketchDep},
		Build: func(in pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.SketchEntitiesPath(scope, in.FeatureID(sketchDep)),
				Body:   cad.EntitiesRequest{Entities: entities},
			}, nil
		},
	}
}

// closeStep closes an open sketch so its regions become solvable.
func closeStep(name, sketchDep string, scope cad.ElementPath) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{sketchDep},
		Build: func(in pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.SketchClosePath(scope, in.FeatureID(sketchDep)),
			}, nil
		},
	}
}

// extrudeStep extrudes the region produced by a sketch feature. A negative
// depth with OperationRemove cuts into existing material.
func extrudeStep(name, sketchDep string, scope cad.ElementPath, featureName, operation string, depth float64) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{sketchDep},
		Build: func(in pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.FeaturesPath(scope),
				Body: cad.FeatureRequest{Feature: cad.Feature{
					Name:        featureName,
					FeatureType: cad.FeatureTypeExtrude,
					Parameters: []any{
						cad.EntitiesParameter{Entities: cad.RegionQuery(in.FeatureID(sketchDep))},
						cad.BodyTypeParameter{BodyType: cad.BodyTypeSolid},
						cad.OperationParameter{OperationType: operation},
						cad.EndBoundParameter{EndBound: cad.EndBoundBlind},
						cad.DepthParameter{Depth: cad.DepthInches(depth)},
					},
				}},
			}, nil
		},
	}
}

// revolveStep revolves the region produced by a sketch feature around the
// vertical axis.
func revolveStep(name, sketchDep string, scope cad.ElementPath, featureName string, angle float64) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{sketchDep},
		Build: func(in pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.FeaturesPath(scope),
				Body: cad.FeatureRequest{Feature: cad.Feature{
					Name:        featureName,
					FeatureType: cad.FeatureTypeRevolve,
					Parameters: []any{
						cad.EntitiesParameter{Entities: cad.RegionQuery(in.FeatureID(sketchDep))},
						cad.AxisParameter{Axis: cad.DeterministicQuery(cad.QueryTypeAxis, cad.AxisZ)},
						cad.BodyTypeParameter{BodyType: cad.BodyTypeSolid},
						cad.OperationParameter{OperationType: cad.OperationNew},
						cad.AngleParameter{Angle: cad.AngleDegrees(angle)},
					},
				}},
			}, nil
		},
	}
}

// faceAboveStep queries the body's faces and keeps those whose minimum Z
// exceeds the threshold, failing the run when none match. The surviving
// faces are recorded for later steps; the first is the selection.
func faceAboveStep(name, extrudeDep string, scope cad.ElementPath, threshold float64) pipeline.Step {
	return pipeline.Step{
		Name:      name,
		DependsOn: []string{extrudeDep},
		Build: func(pipeline.Inputs) (cad.Request, error) {
			return cad.Request{
				Method: http.MethodPost,
				Path:   cad.FaceQueryPath(scope),
				Body:   cad.ZMinAbove(threshold),
			}, nil
		},
		Interpret: func(raw json.RawMessage) (pipeline.Output, error) {
			var resp cad.FaceQueryResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return pipeline.Output{}, &domain.RemoteError{Body: "undecodable face query response: " + err.Error()}
			}
			ids := resp.FaceIDs()
			if len(ids) == 0 {
				return pipeline.Output{}, &domain.ResolutionError{What: "expected face not found"}
			}
			return pipeline.Output{FaceIDs: ids}, nil
		},
	}
}
