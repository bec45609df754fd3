package cad

import "fmt"

// Query-type constants the service expects. The active PlaneReference kind
// selects which one a sketch payload embeds.
const (
	QueryTypeStandardPlane = "STANDARD_PLANE"
	QueryTypeFace          = "FACE"
	QueryTypePlane         = "PLANE"
	QueryTypeSketchRegion  = "SKETCH_REGION"
	QueryTypeAxis          = "AXIS"
)

// AxisZ is the service's fixed identifier for the global vertical axis.
const AxisZ = "Z_AXIS"

const (
	FeatureTypeSketch  = "newSketch"
	FeatureTypeExtrude = "extrude"
	FeatureTypeRevolve = "revolve"
)

const (
	BodyTypeSolid   = "SOLID"
	OperationNew    = "NEW"
	OperationRemove = "REMOVE"
	EndBoundBlind   = "BLIND"
)

// Request is one pending call against the CAD service. Steps build these;
// the gateway transmits them.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Query references geometry either by a list of known deterministic ids or
// by the region produced by a named feature. The two idioms are mutually
// exclusive.
type Query struct {
	QueryType        string   `json:"queryType"`
	DeterministicIDs []string `json:"deterministicIds,omitempty"`
	FeatureID        string   `json:"featureId,omitempty"`
}

// DeterministicQuery builds the known-ids idiom.
func DeterministicQuery(queryType string, ids ...string) Query {
	return Query{QueryType: queryType, DeterministicIDs: ids}
}

// RegionQuery builds the region-by-feature idiom: "the region produced by
// sketch feature X".
func RegionQuery(featureID string) Query {
	return Query{QueryType: QueryTypeSketchRegion, FeatureID: featureID}
}

// Feature is the body of a feature-creation request. Parameter entries are
// heterogeneous objects; the service matches them by field name.
type Feature struct {
	Name        string `json:"name"`
	FeatureType string `json:"featureType"`
	Parameters  []any  `json:"parameters"`
	Entities    []any  `json:"entities"`
}

type FeatureRequest struct {
	Feature Feature `json:"feature"`
}

type FeatureResponse struct {
	Feature struct {
		FeatureID string `json:"featureId"`
		Name      string `json:"name"`
	} `json:"feature"`
}

// Sketch feature parameter objects.
type PlaneParameter struct {
	QueryType        string   `json:"queryType"`
	DeterministicIDs []string `json:"deterministicIds"`
}

type ImprintingParameter struct {
	DisableImprinting bool `json:"disableImprinting"`
}

// Extrude/revolve parameter objects.
type EntitiesParameter struct {
	Entities Query `json:"entities"`
}

type BodyTypeParameter struct {
	BodyType string `json:"bodyType"`
}

type OperationParameter struct {
	OperationType string `json:"operationType"`
}

type EndBoundParameter struct {
	EndBound string `json:"endBound"`
}

type DepthParameter struct {
	Depth string `json:"depth"`
}

type AngleParameter struct {
	Angle string `json:"angle"`
}

type AxisParameter struct {
	Axis Query `json:"axis"`
}

// DepthInches renders a depth value the way the service parses it.
// OperationRemove combined with a negative depth cuts into existing material.
func DepthInches(v float64) string {
	return fmt.Sprintf("%g in", v)
}

// AngleDegrees renders a revolve sweep angle.
func AngleDegrees(v float64) string {
	return fmt.Sprintf("%g deg", v)
}

// Sketch entities.
type CircleEntity struct {
	Type    string  `json:"type"`
	Radius  float64 `json:"radius"`
	XCenter float64 `json:"xCenter"`
	YCenter float64 `json:"yCenter"`
}

type LineEntity struct {
	Type       string    `json:"type"`
	StartPoint []float64 `json:"startPoint"`
	EndPoint   []float64 `json:"endPoint"`
}

func Circle(radius, xCenter, yCenter float64) CircleEntity {
	return CircleEntity{Type: "circle", Radius: radius, XCenter: xCenter, YCenter: yCenter}
}

func Line(x1, y1, x2, y2 float64) LineEntity {
	return LineEntity{Type: "line", StartPoint: []float64{x1, y1}, EndPoint: []float64{x2, y2}}
}

type EntitiesRequest struct {
	Entities []any `json:"entities"`
}

// Face queries.
type FaceFilter struct {
	Property   string  `json:"property"`
	Comparison string  `json:"comparison"`
	Value      float64 `json:"value"`
}

type FaceQuery struct {
	QueryType string     `json:"queryType"`
	Filter    FaceFilter `json:"filter"`
}

type FaceQueryRequest struct {
	Queries []FaceQuery `json:"queries"`
}

// ZMinAbove queries faces whose minimum Z exceeds value.
func ZMinAbove(value float64) FaceQueryRequest {
	return FaceQueryRequest{Queries: []FaceQuery{{
		QueryType: QueryTypeFace,
		Filter:    FaceFilter{Property: "Z_MIN", Comparison: "GREATER_THAN", Value: value},
	}}}
}

type Face struct {
	ID string `json:"id"`
}

type FaceQueryResponse struct {
	Bodies []struct {
		Faces []Face `json:"faces"`
	} `json:"bodies"`
}

// FaceIDs flattens the response body list in service order.
func (r FaceQueryResponse) FaceIDs() []string {
	var ids []string
	for _, body := range r.Bodies {
		for _, face := range body.Faces {
			ids = append(ids, face.ID)
		}
	}
	return ids
}
