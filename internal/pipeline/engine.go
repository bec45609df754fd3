package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

// Engine runs definitions sequentially against a gateway. A run is
// single-shot: it is not resumable, and re-invoking it repeats every
// creation step on the service.
type Engine struct {
	gw     Gateway
	logger *slog.Logger
}

func New(gw Gateway, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{gw: gw, logger: logger}
}

// Run executes the definition's steps strictly in list order. Each step's
// response is recorded in the context before the next step's request is
// built. The first failure stops the run; no compensation is attempted for
// features already created.
func (e *Engine) Run(ctx context.Context, def Definition) (Result, error) {
	if err := def.Validate(); err != nil {
		return Result{}, err
	}

	pc := NewContext()
	for _, step := range def.Steps {
		for _, dep := range step.DependsOn {
			if _, ok := pc.Get(dep); !ok {
				return Result{}, &Error{
					Shape:   def.Shape,
					Step:    step.Name,
					Context: pc,
					Err:     &domain.ValidationError{Step: step.Name, Reason: fmt.Sprintf("dependency %q missing from context", dep)},
				}
			}
		}

		req, err := step.Build(pc.scoped(step.DependsOn))
		if err != nil {
			return Result{}, &Error{Shape: def.Shape, Step: step.Name, Context: pc, Err: err}
		}

		var raw json.RawMessage
		if err := e.gw.Do(ctx, req, &raw); err != nil {
			return Result{}, &Error{Shape: def.Shape, Step: step.Name, Context: pc, Err: err}
		}

		out, err := interpret(step, raw)
		if err != nil {
			return Result{}, &Error{Shape: def.Shape, Step: step.Name, Context: pc, Err: err}
		}
		pc.record(step.Name, out)
		e.logger.Debug("pipeline step complete",
			"shape", def.Shape, "step", step.Name, "feature_id", out.FeatureID)
	}

	final, _ := pc.Get(def.Steps[len(def.Steps)-1].Name)
	return Result{
		PipelineResult: domain.PipelineResult{
			DocumentID:     def.Scope.DocumentID,
			FinalFeatureID: final.FeatureID,
		},
		Context: pc,
	}, nil
}

func interpret(step Step, raw json.RawMessage) (Output, error) {
	if step.Interpret != nil {
		return step.Interpret(raw)
	}
	return FeatureOutput(raw)
}

// FeatureOutput decodes a standard feature-creation response.
func FeatureOutput(raw json.RawMessage) (Output, error) {
	if len(raw) == 0 {
		return Output{}, nil
	}
	var resp struct {
		Feature struct {
			FeatureID string `json:"featureId"`
		} `json:"feature"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Output{}, &domain.RemoteError{Body: "undecodable feature response: " + err.Error()}
	}
	return Output{FeatureID: resp.Feature.FeatureID}, nil
}
