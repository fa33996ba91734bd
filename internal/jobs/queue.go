// Package jobs implements the document processing queue: durable jobs with
// bounded retries, atomic claiming for concurrent workers, a reaper for
// stuck jobs and a retention sweep for completed ones.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// Queue is the job-queue service. Safe for concurrent use.
type Queue struct {
	jobs        repository.JobRepository
	maxAttempts int
	metrics     *Metrics
	now         func() time.Time

	mu  sync.Mutex
	enc *json.Encoder
}

// NewQueue constructs the queue service. maxAttempts bounds automatic
// retries (default 3); metrics may be nil.
func NewQueue(jobs repository.JobRepository, maxAttempts int, metrics *Metrics) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Queue{
		jobs:        jobs,
		maxAttempts: maxAttempts,
		metrics:     metrics,
		now:         time.Now,
		enc:         json.NewEncoder(os.Stdout),
	}
}

// SetLogOutput redirects the JSON diagnostics stream; used by tests.
func (q *Queue) SetLogOutput(w io.Writer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enc = json.NewEncoder(w)
}

// Enqueue inserts one queued job for a document.
func (q *Queue) Enqueue(ctx context.Context, documentID string, kind model.JobKind, payload json.RawMessage) (*model.Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("enqueue: unknown job kind %q", kind)
	}
	j := &model.Job{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		Kind:        kind,
		Status:      model.JobQueued,
		Attempts:    0,
		MaxAttempts: q.maxAttempts,
		Payload:     payload,
		CreatedAt:   q.now().UTC(),
	}
	stored, err := q.jobs.Insert(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s for document %s: %w", kind, documentID, err)
	}
	return stored, nil
}

// EnqueueAll fans out every pipeline kind for a freshly uploaded document.
func (q *Queue) EnqueueAll(ctx context.Context, documentID string, payload json.RawMessage) ([]model.Job, error) {
	out := make([]model.Job, 0, len(model.AllJobKinds))
	for _, kind := range model.AllJobKinds {
		j, err := q.Enqueue(ctx, documentID, kind, payload)
		if err != nil {
			return out, err
		}
		out = append(out, *j)
	}
	return out, nil
}

// ClaimNext claims the oldest queued job of the given kind (empty kind
// matches any). Non-blocking: returns (nil, nil) when no work is available.
func (q *Queue) ClaimNext(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	return q.jobs.ClaimNext(ctx, kind)
}

// Complete marks a claimed job done, applying the derived document fields in
// the same logical operation.
func (q *Queue) Complete(ctx context.Context, job *model.Job, result json.RawMessage, derived *repository.DocumentDerived) error {
	if err := q.jobs.Complete(ctx, job.ID, result, derived); err != nil {
		return err
	}
	q.metrics.completed(job.Kind)
	return nil
}

// Fail records a processing failure. Below the retry ceiling the job is
// requeued automatically; at the ceiling it becomes terminally failed and the
// error wraps apperr.ErrJobTerminal for the monitoring surface.
func (q *Queue) Fail(ctx context.Context, job *model.Job, cause error) error {
	updated, err := q.jobs.Fail(ctx, job.ID, cause.Error())
	if err != nil {
		return err
	}
	if updated.Status == model.JobFailed {
		q.metrics.terminal(job.Kind)
		q.logJSON(map[string]any{
			"component":     "jobs",
			"event":         "job_failed_terminally",
			"status":        "error",
			"job_id":        job.ID,
			"job_kind":      string(job.Kind),
			"document_id":   job.DocumentID,
			"attempts":      updated.Attempts,
			"error_message": cause.Error(),
		})
		return fmt.Errorf("job %s (%s): %w", job.ID, job.Kind, apperr.ErrJobTerminal)
	}
	q.metrics.requeued(job.Kind)
	return nil
}

// Cancel moves a queued or processing job to cancelled. Cooperative: a worker
// already processing is not interrupted, the job just cannot be claimed again.
func (q *Queue) Cancel(ctx context.Context, jobID string) error {
	return q.jobs.Cancel(ctx, jobID)
}

// Get returns one job by ID.
func (q *Queue) Get(ctx context.Context, jobID string) (*model.Job, error) {
	return q.jobs.FindByID(ctx, jobID)
}

// ListByDocument returns all jobs for one document, newest first.
func (q *Queue) ListByDocument(ctx context.Context, documentID string) ([]model.Job, error) {
	return q.jobs.ListByDocument(ctx, documentID)
}

// ReapStuck requeues processing jobs whose claim outlived the staleness
// window (a worker crashed mid-job). Idempotent.
func (q *Queue) ReapStuck(ctx context.Context, window time.Duration) (int64, error) {
	n, err := q.jobs.RequeueStuck(ctx, q.now().UTC().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("reap stuck jobs: %w", err)
	}
	if n > 0 {
		q.logJSON(map[string]any{
			"component": "jobs",
			"event":     "stuck_jobs_requeued",
			"status":    "success",
			"count":     n,
		})
	}
	return n, nil
}

// SweepCompleted deletes completed jobs older than the retention window.
// Queued, processing and failed jobs are never swept. Idempotent.
func (q *Queue) SweepCompleted(ctx context.Context, retention time.Duration) (int64, error) {
	return q.jobs.DeleteCompletedBefore(ctx, q.now().UTC().Add(-retention))
}

func (q *Queue) logJSON(fields map[string]any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fields["ts"] = q.now().UTC().Format(time.RFC3339Nano)
	_ = q.enc.Encode(fields)
}
