package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// JobPostgres is a PostgreSQL implementation of repository.JobRepository.
// Every status transition is a single conditional statement so concurrent
// workers can never both win the same row.
type JobPostgres struct {
	db *sql.DB
}

// NewJobPostgres creates a new JobPostgres repository.
func NewJobPostgres(db *sql.DB) *JobPostgres {
	return &JobPostgres{db: db}
}

var _ repository.JobRepository = (*JobPostgres)(nil)

const jobColumns = `id, document_id, kind, status, attempts, max_attempts, COALESCE(last_error, ''), payload, result, created_at, started_at, completed_at`

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	var j model.Job
	if err := row.Scan(
		&j.ID,
		&j.DocumentID,
		&j.Kind,
		&j.Status,
		&j.Attempts,
		&j.MaxAttempts,
		&j.LastError,
		&j.Payload,
		&j.Result,
		&j.CreatedAt,
		&j.StartedAt,
		&j.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

// Insert enqueues a new job in status queued.
func (r *JobPostgres) Insert(ctx context.Context, j *model.Job) (*model.Job, error) {
	const q = `
		INSERT INTO document_jobs (id, document_id, kind, status, attempts, max_attempts, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + jobColumns
	row := r.db.QueryRowContext(ctx, q,
		j.ID,
		j.DocumentID,
		j.Kind,
		j.Status,
		j.Attempts,
		j.MaxAttempts,
		[]byte(j.Payload),
		j.CreatedAt,
	)
	return scanJob(row)
}

// FindByID fetches a single job by its ID.
func (r *JobPostgres) FindByID(ctx context.Context, id string) (*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM document_jobs WHERE id = $1`
	j, err := scanJob(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

// ListByDocument returns all jobs for one document, newest first.
func (r *JobPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Job, error) {
	const q = `
		SELECT ` + jobColumns + `
		FROM document_jobs
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *j)
	}
	return items, rows.Err()
}

// ClaimNext atomically claims the oldest queued job. FOR UPDATE SKIP LOCKED
// guarantees at most one worker wins the row under concurrent polling.
func (r *JobPostgres) ClaimNext(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	const q = `
		UPDATE document_jobs
		SET status = 'processing', attempts = attempts + 1, started_at = now()
		WHERE id = (
			SELECT id FROM document_jobs
			WHERE status = 'queued' AND ($1 = '' OR kind = $1)
			ORDER BY created_at ASC, id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns
	j, err := scanJob(r.db.QueryRowContext(ctx, q, string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

// Complete marks a processing job completed and applies the derived document
// fields in the same transaction.
func (r *JobPostgres) Complete(ctx context.Context, jobID string, result json.RawMessage, derived *repository.DocumentDerived) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const qJob = `
		UPDATE document_jobs
		SET status = 'completed', result = $2, completed_at = now()
		WHERE id = $1 AND status = 'processing'`
	res, err := tx.ExecContext(ctx, qJob, jobID, []byte(result))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("complete job %s: %w", jobID, apperr.ErrConflict)
	}

	if derived != nil {
		const qDoc = `
			UPDATE documents
			SET processing_status = COALESCE($2, processing_status),
			    extracted_text = COALESCE($3, extracted_text),
			    metadata = COALESCE($4, metadata),
			    thumbnail_path = COALESCE($5, thumbnail_path),
			    updated_at = now()
			WHERE id = (SELECT document_id FROM document_jobs WHERE id = $1)`
		var meta any
		if derived.Metadata != nil {
			meta = []byte(derived.Metadata)
		}
		if _, err := tx.ExecContext(ctx, qDoc, jobID,
			derived.Processing,
			derived.ExtractedText,
			meta,
			derived.ThumbnailPath,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Fail records the error and either requeues or terminally fails the job in
// one conditional statement.
func (r *JobPostgres) Fail(ctx context.Context, jobID, errMsg string) (*model.Job, error) {
	const q = `
		UPDATE document_jobs
		SET last_error = $2,
		    status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'queued' END,
		    completed_at = CASE WHEN attempts >= max_attempts THEN now() ELSE NULL END,
		    started_at = CASE WHEN attempts >= max_attempts THEN started_at ELSE NULL END
		WHERE id = $1 AND status = 'processing'
		RETURNING ` + jobColumns
	j, err := scanJob(r.db.QueryRowContext(ctx, q, jobID, errMsg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fail job %s: %w", jobID, apperr.ErrConflict)
		}
		return nil, err
	}
	return j, nil
}

// Cancel moves a queued or processing job to cancelled.
func (r *JobPostgres) Cancel(ctx context.Context, jobID string) error {
	const q = `
		UPDATE document_jobs
		SET status = 'cancelled', completed_at = now()
		WHERE id = $1 AND status IN ('queued', 'processing')`
	res, err := r.db.ExecContext(ctx, q, jobID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.FindByID(ctx, jobID); err != nil {
			return err
		}
		return fmt.Errorf("cancel job %s: %w", jobID, apperr.ErrConflict)
	}
	return nil
}

// RequeueStuck requeues processing jobs that exceeded the staleness window.
func (r *JobPostgres) RequeueStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
		UPDATE document_jobs
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'queued' END,
		    started_at = CASE WHEN attempts >= max_attempts THEN started_at ELSE NULL END,
		    last_error = 'requeued: processing deadline exceeded'
		WHERE status = 'processing' AND started_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCompletedBefore removes completed jobs finished before the cutoff.
// Queued, processing and failed jobs are never swept.
func (r *JobPostgres) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM document_jobs WHERE status = 'completed' AND completed_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
