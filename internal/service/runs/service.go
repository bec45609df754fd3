// Package runs orchestrates one shape-construction invocation end to end:
// resolve the caller's selection, execute the shape's feature pipeline, and
// journal what happened for diagnostics.
package runs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loftcad-labs/loftcad-go/internal/cad"
	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/pipeline"
	"github.com/loftcad-labs/loftcad-go/internal/repo"
	"github.com/loftcad-labs/loftcad-go/internal/resolve"
	"github.com/loftcad-labs/loftcad-go/internal/shapes"
)

// Gateway is the full slice of the CAD client the service needs: metadata
// operations for resolution plus the generic call the pipeline submits
// feature requests through.
type Gateway interface {
	resolve.Gateway
	Do(ctx context.Context, req cad.Request, out any) error
}

type Service struct {
	gw         Gateway
	resolver   *resolve.Resolver
	runs       repo.RunRepository
	transcript TranscriptExporter
	logger     *slog.Logger
}

func New(gw Gateway, resolver *resolve.Resolver, runRepo repo.RunRepository, transcript TranscriptExporter, logger *slog.Logger) (*Service, error) {
	if gw == nil {
		return nil, errors.New("gateway is required")
	}
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if runRepo == nil {
		return nil, errors.New("run repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gw:         gw,
		resolver:   resolver,
		runs:       runRepo,
		transcript: transcript,
		logger:     logger,
	}, nil
}

func (s *Service) BuildCylinder(ctx context.Context, actor string, snapshot domain.SelectionSnapshot, params shapes.CylinderParams) (domain.Run, error) {
	return s.execute(ctx, actor, "cylinder", snapshot, func(scope cad.ElementPath, plane domain.PlaneReference) (pipeline.Definition, error) {
		return shapes.Cylinder(scope, plane, params)
	})
}

func (s *Service) BuildCup(ctx context.Context, actor string, snapshot domain.SelectionSnapshot, params shapes.CupParams) (domain.Run, error) {
	return s.execute(ctx, actor, "cup", snapshot, func(scope cad.ElementPath, plane domain.PlaneReference) (pipeline.Definition, error) {
		return shapes.Cup(scope, plane, params)
	})
}

func (s *Service) BuildLamp(ctx context.Context, actor string, snapshot domain.SelectionSnapshot, params shapes.LampParams) (domain.Run, error) {
	return s.execute(ctx, actor, "lamp", snapshot, func(scope cad.ElementPath, plane domain.PlaneReference) (pipeline.Definition, error) {
		return shapes.Lamp(scope, plane, params)
	})
}

func (s *Service) GetRun(ctx context.Context, id string) (domain.Run, error) {
	return s.runs.GetRun(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	return s.runs.ListRuns(ctx, filter)
}

func (s *Service) ListSteps(ctx context.Context, runID string) ([]domain.RunStep, error) {
	return s.runs.ListSteps(ctx, runID)
}

type defineFunc func(scope cad.ElementPath, plane domain.PlaneReference) (pipeline.Definition, error)

// execute runs one shape pipeline. The selection snapshot is read exactly
// once, here; later selection changes belong to later runs. A failed run is
// journaled with its failing step and whatever the pipeline recorded before
// stopping; features already created on the service stay as they are.
func (s *Service) execute(ctx context.Context, actor, shape string, snapshot domain.SelectionSnapshot, define defineFunc) (domain.Run, error) {
	rc, err := s.resolver.ResolveContext(ctx, snapshot)
	if err != nil {
		return domain.Run{}, err
	}
	plane, err := s.resolver.ResolvePlane(ctx, snapshot.Plane, rc.Path())
	if err != nil {
		return domain.Run{}, err
	}
	def, err := define(rc.Path(), plane)
	if err != nil {
		return domain.Run{}, err
	}

	run := domain.Run{
		ID:          uuid.NewString(),
		Shape:       shape,
		DocumentID:  rc.Document.ID,
		WorkspaceID: rc.Workspace.ID,
		ElementID:   rc.Element.ID,
		PlaneKind:   plane.Kind,
		PlaneID:     plane.ID,
		Status:      domain.RunStateRunning,
		StartedAt:   time.Now().UTC(),
		CreatedBy:   actor,
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return domain.Run{}, err
	}

	recorder := &recordingGateway{inner: s.gw}
	result, runErr := pipeline.New(recorder, s.logger).Run(ctx, def)

	var executed *pipeline.Context
	if runErr == nil {
		executed = result.Context
	} else {
		var perr *pipeline.Error
		if errors.As(runErr, &perr) {
			executed = perr.Context
		}
	}
	s.journalSteps(ctx, run.ID, executed)

	transcriptKey := s.exportTranscript(ctx, run.ID, recorder.Transcript())

	finish := repo.RunResult{
		Status:        domain.RunStateSucceeded,
		TranscriptKey: transcriptKey,
		EndedAt:       time.Now().UTC(),
	}
	if runErr != nil {
		finish.Status = domain.RunStateFailed
		finish.Error = runErr.Error()
		var perr *pipeline.Error
		if errors.As(runErr, &perr) {
			finish.FailedStep = perr.Step
		}
	} else {
		finish.FinalFeatureID = result.FinalFeatureID
	}
	if err := s.runs.FinishRun(ctx, run.ID, finish); err != nil {
		s.logger.Error("finish run", "run_id", run.ID, "error", err)
	}

	run.Status = finish.Status
	run.FinalFeatureID = finish.FinalFeatureID
	run.FailedStep = finish.FailedStep
	run.Error = finish.Error
	run.TranscriptKey = transcriptKey

	if runErr != nil {
		s.logger.Warn("pipeline run failed",
			"run_id", run.ID, "shape", shape, "step", finish.FailedStep, "error", runErr)
		return run, runErr
	}
	s.logger.Info("pipeline run complete",
		"run_id", run.ID, "shape", shape, "feature_id", result.FinalFeatureID)
	return run, nil
}

func (s *Service) journalSteps(ctx context.Context, runID string, executed *pipeline.Context) {
	if executed == nil {
		return
	}
	for i, name := range executed.Steps() {
		out, _ := executed.Get(name)
		step := domain.RunStep{RunID: runID, Index: i, Name: name, FeatureID: out.FeatureID}
		if err := s.runs.AppendStep(ctx, step); err != nil {
			s.logger.Error("journal step", "run_id", runID, "step", name, "error", err)
			return
		}
	}
}

// exportTranscript is best-effort: a run's outcome does not depend on the
// diagnostic copy landing in object storage.
func (s *Service) exportTranscript(ctx context.Context, runID string, entries []TranscriptEntry) string {
	if s.transcript == nil || len(entries) == 0 {
		return ""
	}
	key, err := s.transcript.Export(ctx, runID, entries)
	if err != nil {
		s.logger.Warn("transcript export failed", "run_id", runID, "error", err)
		return ""
	}
	return key
}
