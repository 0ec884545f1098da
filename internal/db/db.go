// Package db provides PostgreSQL persistence for run history and row results.
// Persistence is optional: the pipeline runs fine without a database and the
// roster itself remains the source of truth for row status.
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datacampus/certgen/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the run-history tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			roster_file_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			generated INT NOT NULL DEFAULT 0,
			skipped INT NOT NULL DEFAULT 0,
			failed INT NOT NULL DEFAULT 0,
			summary JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS row_results (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			row_index INT NOT NULL,
			company TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT,
			error_detail TEXT,
			needs_reconciliation BOOLEAN NOT NULL DEFAULT FALSE,
			artifact_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, row_index)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// CreateRun creates a new run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, rosterFileID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO runs (roster_file_id, status)
		 VALUES ($1, 'running')
		 RETURNING id`,
		rosterFileID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as completed and stores the final summary
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, summary *types.RunSummary) error {
	var summaryJSON []byte
	if summary != nil {
		var err error
		summaryJSON, err = json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE runs
		 SET status = $1, generated = $2, skipped = $3, failed = $4,
		     summary = $5, completed_at = NOW()
		 WHERE id = $6`,
		status, summaryCount(summary, types.OutcomeGenerated),
		summaryCount(summary, types.OutcomeSkipped),
		summaryCount(summary, types.OutcomeFailed),
		summaryJSON, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func summaryCount(summary *types.RunSummary, outcome types.Outcome) int {
	if summary == nil {
		return 0
	}
	switch outcome {
	case types.OutcomeGenerated:
		return summary.Generated
	case types.OutcomeSkipped:
		return summary.Skipped
	default:
		return summary.Failed
	}
}

// SaveRowResult stores the terminal outcome of one roster row
func (db *DB) SaveRowResult(ctx context.Context, runID uuid.UUID, result types.RowResult) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO row_results
		 (run_id, row_index, company, outcome, error_kind, error_detail, needs_reconciliation, artifact_name)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''))
		 ON CONFLICT (run_id, row_index) DO UPDATE
		 SET outcome = $4, error_kind = NULLIF($5, ''), error_detail = NULLIF($6, ''),
		     needs_reconciliation = $7, artifact_name = NULLIF($8, '')`,
		runID, result.RowIndex, result.Company, result.Outcome,
		result.ErrorKind, result.ErrorDetail, result.NeedsReconciliation, result.ArtifactName,
	)
	if err != nil {
		return fmt.Errorf("failed to save row result for row %d: %w", result.RowIndex, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, roster_file_id, status, generated, skipped, failed, created_at, completed_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.RosterFileID, &run.Status, &run.Generated, &run.Skipped, &run.Failed,
		&run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, roster_file_id, status, generated, skipped, failed, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.RosterFileID, &run.Status, &run.Generated, &run.Skipped,
			&run.Failed, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListRowResults retrieves the row results of a run in roster order
func (db *DB) ListRowResults(ctx context.Context, runID uuid.UUID) ([]types.RowResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT row_index, company, outcome,
		        COALESCE(error_kind, ''), COALESCE(error_detail, ''),
		        needs_reconciliation, COALESCE(artifact_name, '')
		 FROM row_results WHERE run_id = $1 ORDER BY row_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list row results: %w", err)
	}
	defer rows.Close()

	var results []types.RowResult
	for rows.Next() {
		var r types.RowResult
		if err := rows.Scan(&r.RowIndex, &r.Company, &r.Outcome, &r.ErrorKind, &r.ErrorDetail,
			&r.NeedsReconciliation, &r.ArtifactName); err != nil {
			return nil, fmt.Errorf("failed to scan row result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
