package domain

// PlaneKind discriminates the PlaneReference variants.
type PlaneKind string

const (
	// PlaneStandard is one of the service's fixed standard planes.
	PlaneStandard PlaneKind = "standard"
	// PlaneFace is a geometric face produced by a prior feature.
	PlaneFace PlaneKind = "face"
	// PlaneCustom is a non-standard reference-plane feature.
	PlaneCustom PlaneKind = "plane"
)

// PlaneReference is a resolved, service-recognized sketch plane. Exactly one
// kind is active; the kind selects the query-type constant embedded in
// generated payloads.
type PlaneReference struct {
	Kind PlaneKind
	ID   string
	Name string
}

func StandardPlane(id, name string) PlaneReference {
	return PlaneReference{Kind: PlaneStandard, ID: id, Name: name}
}

func FacePlane(id string) PlaneReference {
	return PlaneReference{Kind: PlaneFace, ID: id}
}

func CustomPlane(id, name string) PlaneReference {
	return PlaneReference{Kind: PlaneCustom, ID: id, Name: name}
}
