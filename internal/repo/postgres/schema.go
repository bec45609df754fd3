package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id           TEXT PRIMARY KEY,
		shape            TEXT NOT NULL,
		document_id      TEXT NOT NULL,
		workspace_id     TEXT NOT NULL DEFAULT '',
		element_id       TEXT NOT NULL DEFAULT '',
		plane_kind       TEXT NOT NULL DEFAULT '',
		plane_id         TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		final_feature_id TEXT,
		failed_step      TEXT,
		error            TEXT,
		transcript_key   TEXT,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ,
		created_by       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at_idx ON runs (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS run_steps (
		run_id     TEXT NOT NULL REFERENCES runs (run_id),
		step_index INTEGER NOT NULL,
		name       TEXT NOT NULL,
		feature_id TEXT,
		PRIMARY KEY (run_id, step_index)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		event_id         BIGSERIAL PRIMARY KEY,
		occurred_at      TIMESTAMPTZ NOT NULL,
		actor            TEXT NOT NULL,
		action           TEXT NOT NULL,
		resource_type    TEXT NOT NULL,
		resource_id      TEXT NOT NULL,
		request_id       TEXT,
		payload          JSONB NOT NULL DEFAULT '{}'::jsonb,
		integrity_sha256 TEXT NOT NULL
	)`,
}

// EnsureSchema creates the journal tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
