// Package db provides optional PostgreSQL persistence of run history.
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
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

// CreateRun creates a new pipeline run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, role string, platforms []string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (role, platforms, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		role, platforms,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a pipeline run as completed with its summary counts
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, scraped, applied, failed int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET status = $1, jobs_scraped = $2, jobs_applied = $3, jobs_failed = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, scraped, applied, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// RecordAttempt stores the terminal outcome of one job within a run
func (db *DB) RecordAttempt(ctx context.Context, runID uuid.UUID, jobID, status, strategy string, score int, durationMs int64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO application_attempts (run_id, job_id, status, strategy, score, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, jobID, status, strategy, score, durationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt for %s: %w", jobID, err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a job within a run
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, jobID, kind string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO artifacts (run_id, job_id, kind, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, job_id, kind) DO UPDATE SET content = $4, created_at = NOW()`,
		runID, jobID, kind, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s/%s: %w", jobID, kind, err)
	}
	return nil
}
