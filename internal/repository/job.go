package repository

import (
	"context"
	"encoding/json"
	"time"

	"propcore/internal/model"
)

// DocumentDerived carries the parent document fields a completed job updates.
// Nil pointer fields are left untouched.
type DocumentDerived struct {
	Processing    *string
	ExtractedText *string
	Metadata      json.RawMessage
	ThumbnailPath *string
}

// JobRepository defines data access for the document job queue.
// Status transitions that must be safe under concurrent workers (ClaimNext,
// Fail) are single conditional statements, never read-then-write.
type JobRepository interface {
	// Insert enqueues a new job in status queued.
	Insert(ctx context.Context, j *model.Job) (*model.Job, error)

	// FindByID returns a job by its ID, or apperr.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// ListByDocument returns all jobs for one document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.Job, error)

	// ClaimNext atomically transitions the oldest queued job (optionally
	// filtered by kind; empty kind matches any) to processing, recording
	// started_at and incrementing attempts. Returns (nil, nil) when no
	// queued job is available.
	ClaimNext(ctx context.Context, kind model.JobKind) (*model.Job, error)

	// Complete marks a processing job completed with its result and applies
	// the derived document fields in the same transaction.
	Complete(ctx context.Context, jobID string, result json.RawMessage, derived *DocumentDerived) error

	// Fail records the error on a processing job and, in one conditional
	// statement, requeues it while attempts < max_attempts or leaves it
	// failed terminally. Returns the updated job.
	Fail(ctx context.Context, jobID, errMsg string) (*model.Job, error)

	// Cancel moves a queued or processing job to cancelled. Jobs already in
	// a terminal state return apperr.ErrConflict.
	Cancel(ctx context.Context, jobID string) error

	// RequeueStuck moves processing jobs whose started_at is older than the
	// cutoff back to queued, incrementing attempts. Returns how many rows
	// were requeued.
	RequeueStuck(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteCompletedBefore removes completed jobs finished before the cutoff
	// and returns how many rows were removed. Other statuses are never swept.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
