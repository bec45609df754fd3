package domain

import (
	"errors"
	"strings"
	"time"
)

// RunState is the journaled lifecycle state of one pipeline run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateSucceeded RunState = "succeeded"
	RunStateFailed    RunState = "failed"
)

// NormalizeRunState maps free-form status text to a known RunState, or ""
// when unrecognized.
func NormalizeRunState(raw string) RunState {
	switch RunState(strings.ToLower(strings.TrimSpace(raw))) {
	case RunStateRunning:
		return RunStateRunning
	case RunStateSucceeded:
		return RunStateSucceeded
	case RunStateFailed:
		return RunStateFailed
	default:
		return ""
	}
}

// Run is the journal record of one pipeline invocation. The journal exists
// for diagnostics only; remote features created by a failed run are never
// retracted.
type Run struct {
	ID             string
	Shape          string
	DocumentID     string
	WorkspaceID    string
	ElementID      string
	PlaneKind      PlaneKind
	PlaneID        string
	Status         RunState
	FinalFeatureID string
	FailedStep     string
	Error          string
	TranscriptKey  string
	StartedAt      time.Time
	EndedAt        *time.Time
	CreatedBy      string
}

// RunStep records one executed pipeline step and the identifier it produced.
type RunStep struct {
	RunID     string
	Index     int
	Name      string
	FeatureID string
}

func (r Run) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(r.Shape) == "" {
		return errors.New("shape is required")
	}
	if strings.TrimSpace(r.DocumentID) == "" {
		return errors.New("document id is required")
	}
	if NormalizeRunState(string(r.Status)) == "" {
		return errors.New("status must be one of: running, succeeded, failed")
	}
	if r.StartedAt.IsZero() {
		return errors.New("started at is required")
	}
	return nil
}

// PipelineResult is what a successful pipeline run hands back to the caller.
type PipelineResult struct {
	DocumentID     string
	FinalFeatureID string
}
