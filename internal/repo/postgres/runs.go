package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loftcad-labs/loftcad-go/internal/domain"
	"github.com/loftcad-labs/loftcad-go/internal/repo"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type RunStore struct {
	db DB
}

func NewRunStore(db DB) *RunStore {
	if db == nil {
		return nil
	}
	return &RunStore{db: db}
}

func (s *RunStore) CreateRun(ctx context.Context, run domain.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	if err := run.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			run_id,
			shape,
			document_id,
			workspace_id,
			element_id,
			plane_kind,
			plane_id,
			status,
			started_at,
			created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		strings.TrimSpace(run.ID),
		strings.TrimSpace(run.Shape),
		strings.TrimSpace(run.DocumentID),
		strings.TrimSpace(run.WorkspaceID),
		strings.TrimSpace(run.ElementID),
		string(run.PlaneKind),
		strings.TrimSpace(run.PlaneID),
		string(run.Status),
		run.StartedAt.UTC(),
		strings.TrimSpace(run.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, id string) (domain.Run, error) {
	if s == nil || s.db == nil {
		return domain.Run{}, fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Run{}, fmt.Errorf("run id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT run_id, shape, document_id, workspace_id, element_id, plane_kind, plane_id,
		        status, final_feature_id, failed_step, error, transcript_key,
		        started_at, ended_at, created_by
		 FROM runs
		 WHERE run_id = $1`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		return domain.Run{}, handleNotFound(err)
	}
	return run, nil
}

func buildRunListQuery(filter repo.RunFilter) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if shape := strings.TrimSpace(filter.Shape); shape != "" {
		args = append(args, shape)
		clauses = append(clauses, fmt.Sprintf("shape = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if documentID := strings.TrimSpace(filter.DocumentID); documentID != "" {
		args = append(args, documentID)
		clauses = append(clauses, fmt.Sprintf("document_id = $%d", len(args)))
	}

	query := `SELECT run_id, shape, document_id, workspace_id, element_id, plane_kind, plane_id,
	                 status, final_feature_id, failed_step, error, transcript_key,
	                 started_at, ended_at, created_by
	          FROM runs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	return query, args
}

func (s *RunStore) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store not initialized")
	}
	query, args := buildRunListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *RunStore) FinishRun(ctx context.Context, id string, result repo.RunResult) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if domain.NormalizeRunState(string(result.Status)) == "" {
		return fmt.Errorf("unknown run status %q", result.Status)
	}
	endedAt := result.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
		 SET status = $2,
		     final_feature_id = $3,
		     failed_step = $4,
		     error = $5,
		     transcript_key = $6,
		     ended_at = $7
		 WHERE run_id = $1`,
		id,
		string(result.Status),
		nullString(result.FinalFeatureID),
		nullString(result.FailedStep),
		nullString(result.Error),
		nullString(result.TranscriptKey),
		endedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *RunStore) AppendStep(ctx context.Context, step domain.RunStep) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	if strings.TrimSpace(step.RunID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(step.Name) == "" {
		return fmt.Errorf("step name is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_steps (run_id, step_index, name, feature_id)
		 VALUES ($1,$2,$3,$4)`,
		strings.TrimSpace(step.RunID),
		step.Index,
		strings.TrimSpace(step.Name),
		nullString(step.FeatureID),
	)
	if err != nil {
		return fmt.Errorf("insert run step: %w", err)
	}
	return nil
}

func (s *RunStore) ListSteps(ctx context.Context, runID string) ([]domain.RunStep, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, step_index, name, feature_id
		 FROM run_steps
		 WHERE run_id = $1
		 ORDER BY step_index ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.RunStep
	for rows.Next() {
		var (
			step      domain.RunStep
			featureID sql.NullString
		)
		if err := rows.Scan(&step.RunID, &step.Index, &step.Name, &featureID); err != nil {
			return nil, err
		}
		step.FeatureID = featureID.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.Run, error) {
	var (
		run            domain.Run
		planeKind      string
		status         string
		finalFeatureID sql.NullString
		failedStep     sql.NullString
		errText        sql.NullString
		transcriptKey  sql.NullString
		endedAt        sql.NullTime
	)
	if err := row.Scan(
		&run.ID, &run.Shape, &run.DocumentID, &run.WorkspaceID, &run.ElementID,
		&planeKind, &run.PlaneID, &status, &finalFeatureID, &failedStep,
		&errText, &transcriptKey, &run.StartedAt, &endedAt, &run.CreatedBy,
	); err != nil {
		return domain.Run{}, err
	}
	run.PlaneKind = domain.PlaneKind(planeKind)
	run.Status = domain.RunState(status)
	run.FinalFeatureID = finalFeatureID.String
	run.FailedStep = failedStep.String
	run.Error = errText.String
	run.TranscriptKey = transcriptKey.String
	if endedAt.Valid {
		t := endedAt.Time
		run.EndedAt = &t
	}
	return run, nil
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
