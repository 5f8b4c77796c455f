package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// ----- Ingest jobs -----

// CreateJob records a new ingestion job.
func (db *DB) CreateJob(ctx context.Context, job *types.IngestJob) error {
	if err := db.ensureUser(ctx, job.UserID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	_, err := db.exec(ctx,
		"INSERT INTO ingest_jobs (id, user_id, source, status, started_at) VALUES (?, ?, ?, ?, ?)",
		job.ID, job.UserID, job.Source, string(job.Status), job.StartedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// UpdateJob writes the job's status, error and counters.
func (db *DB) UpdateJob(ctx context.Context, job *types.IngestJob) error {
	var finished sql.NullInt64
	if job.FinishedAt != nil {
		finished = sql.NullInt64{Int64: job.FinishedAt.Unix(), Valid: true}
	}
	res, err := db.exec(ctx,
		"UPDATE ingest_jobs SET status = ?, error = ?, components = ?, design_files = ?, finished_at = ? WHERE id = ?",
		string(job.Status), job.Error, job.Components, job.DesignFile, finished, job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetJob retrieves a job by ID.
func (db *DB) GetJob(ctx context.Context, id string) (*types.IngestJob, error) {
	var j types.IngestJob
	var status string
	var startedAt int64
	var finished sql.NullInt64
	err := db.queryRow(ctx,
		"SELECT id, user_id, source, status, error, components, design_files, started_at, finished_at FROM ingest_jobs WHERE id = ?",
		id,
	).Scan(&j.ID, &j.UserID, &j.Source, &status, &j.Error, &j.Components, &j.DesignFile, &startedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	j.Status = types.JobStatus(status)
	j.StartedAt = time.Unix(startedAt, 0)
	if finished.Valid {
		t := time.Unix(finished.Int64, 0)
		j.FinishedAt = &t
	}
	return &j, nil
}
