// Package pipeline executes a shape's ordered feature steps against the
// remote CAD gateway, threading identifiers returned by earlier steps into
// the payloads of later ones.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

// Gateway transmits one request and decodes the response. The engine treats
// it as an opaque remote operation.
type Gateway interface {
	Do(ctx context.Context, req cad.Request, out any) error
}

// Output is what one executed step contributed to the run: the feature id
// the service assigned and, for query steps, the geometry ids it selected.
type Output struct {
	FeatureID string
	FaceIDs   []string
}

// Inputs is the dependency-scoped view a step builds its request from. Only
// outputs of steps the reader declared in DependsOn are visible; reading
// anything else is a defect in the shape definition, not a runtime surprise.
type Inputs struct {
	outputs map[string]Output
}

// Get returns the output of a declared dependency.
func (in Inputs) Get(name string) (Output, bool) {
	out, ok := in.outputs[name]
	return out, ok
}

// FeatureID returns the feature id of a declared dependency, or "" when the
// dependency is not visible.
func (in Inputs) FeatureID(name string) string {
	return in.outputs[name].FeatureID
}

// FirstFace returns the first face id a declared query dependency selected.
func (in Inputs) FirstFace(name string) string {
	out := in.outputs[name]
	if len(out.FaceIDs) == 0 {
		return ""
	}
	return out.FaceIDs[0]
}

// Step is one feature-creation request template. Build may only read the
// outputs named in DependsOn. Interpret decodes the raw response into the
// step's output; when nil, the response is decoded as a standard
// feature-creation response.
type Step struct {
	Name      string
	DependsOn []string
	Build     func(in Inputs) (cad.Request, error)
	Interpret func(raw json.RawMessage) (Output, error)
}

// Definition is an ordered list of steps realizing one shape against one
// part studio. Defined once, executed many times; it carries no resolution
// logic of its own.
type Definition struct {
	Shape string
	Scope cad.ElementPath
	Steps []Step
}

// Validate checks the definition's internal consistency before anything is
// sent to the service: step names must be unique and non-empty, every
// dependency must name a strictly earlier step, and every step must build.
func (d Definition) Validate() error {
	if d.Shape == "" {
		return &domain.ValidationError{Reason: "shape name is required"}
	}
	if len(d.Steps) == 0 {
		return &domain.ValidationError{Reason: "at least one step is required"}
	}
	seen := make(map[string]bool, len(d.Steps))
	for _, step := range d.Steps {
		if step.Name == "" {
			return &domain.ValidationError{Reason: "step name is required"}
		}
		if seen[step.Name] {
			return &domain.ValidationError{Step: step.Name, Reason: "duplicate step name"}
		}
		if step.Build == nil {
			return &domain.ValidationError{Step: step.Name, Reason: "step has no request builder"}
		}
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return &domain.ValidationError{Step: step.Name, Reason: fmt.Sprintf("depends on %q which is not an earlier step", dep)}
			}
		}
		seen[step.Name] = true
	}
	return nil
}

// Context is the per-run accumulator mapping step names to the identifiers
// they produced. Append-only, owned by exactly one run.
type Context struct {
	order   []string
	outputs map[string]Output
}

func NewContext() *Context {
	return &Context{outputs: map[string]Output{}}
}

func (c *Context) record(name string, out Output) {
	c.order = append(c.order, name)
	c.outputs[name] = out
}

// Get returns the recorded output for a step name.
func (c *Context) Get(name string) (Output, bool) {
	out, ok := c.outputs[name]
	return out, ok
}

// Steps returns the names of executed steps in execution order.
func (c *Context) Steps() []string {
	return append([]string(nil), c.order...)
}

// scoped builds the restricted Inputs view for one step.
func (c *Context) scoped(deps []string) Inputs {
	visible := make(map[string]Output, len(deps))
	for _, dep := range deps {
		if out, ok := c.outputs[dep]; ok {
			visible[dep] = out
		}
	}
	return Inputs{outputs: visible}
}

// Error is a failed pipeline run. It names the step that failed and carries
// the partial context so the caller can render diagnostics; features created
// by earlier steps are not retracted.
type Error struct {
	Shape   string
	Step    string
	Context *Context
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s: step %q: %v", e.Shape, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is a completed run: the document and final feature id, plus the
// full context for callers that want the intermediate identifiers.
type Result struct {
	domain.PipelineResult
	Context *Context
}
