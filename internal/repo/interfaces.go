package repo

import (
	"context"
	"errors"
	"time"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
)

var ErrNotFound = errors.New("not found")

type RunFilter struct {
	Shape      string
	Status     string
	DocumentID string
	Limit      int
}

// RunResult closes out a journaled run.
type RunResult struct {
	Status         domain.RunState
	FinalFeatureID string
	FailedStep     string
	Error          string
	TranscriptKey  string
	EndedAt        time.Time
}

// RunRepository journals pipeline runs and the steps they executed. The
// journal is diagnostic; it never drives execution.
type RunRepository interface {
	CreateRun(ctx context.Context, run domain.Run) error
	GetRun(ctx context.Context, id string) (domain.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.Run, error)
	FinishRun(ctx context.Context, id string, result RunResult) error

	AppendStep(ctx context.Context, step domain.RunStep) error
	ListSteps(ctx context.Context, runID string) ([]domain.RunStep, error)
}
