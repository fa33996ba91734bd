package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// fakeJobRepo is an in-memory JobRepository with the same conditional-update
// semantics as the postgres implementation. Used for concurrency and
// state-machine tests that a statement-level mock cannot express.
type fakeJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	derived map[string]*repository.DocumentDerived
	seq     int
	clock   func() time.Time
}

var _ repository.JobRepository = (*fakeJobRepo)(nil)

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:    make(map[string]*model.Job),
		derived: make(map[string]*repository.DocumentDerived),
		clock:   time.Now,
	}
}

func (f *fakeJobRepo) Insert(_ context.Context, j *model.Job) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *j
	f.seq++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = f.clock()
	}
	// Preserve insertion order under identical timestamps.
	cp.CreatedAt = cp.CreatedAt.Add(time.Duration(f.seq) * time.Nanosecond)
	f.jobs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) ListByDocument(_ context.Context, documentID string) ([]model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Job, 0)
	for _, j := range f.jobs {
		if j.DocumentID == documentID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (f *fakeJobRepo) ClaimNext(_ context.Context, kind model.JobKind) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *model.Job
	for _, j := range f.jobs {
		if j.Status != model.JobQueued {
			continue
		}
		if kind != "" && j.Kind != kind {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	now := f.clock()
	oldest.Status = model.JobProcessing
	oldest.Attempts++
	oldest.StartedAt = &now
	cp := *oldest
	return &cp, nil
}

func (f *fakeJobRepo) Complete(_ context.Context, jobID string, result json.RawMessage, derived *repository.DocumentDerived) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobProcessing {
		return fmt.Errorf("complete job %s: %w", jobID, apperr.ErrConflict)
	}
	now := f.clock()
	j.Status = model.JobCompleted
	j.Result = result
	j.CompletedAt = &now
	if derived != nil {
		f.derived[j.DocumentID] = derived
	}
	return nil
}

func (f *fakeJobRepo) Fail(_ context.Context, jobID, errMsg string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != model.JobProcessing {
		return nil, fmt.Errorf("fail job %s: %w", jobID, apperr.ErrConflict)
	}
	j.LastError = errMsg
	if j.Attempts >= j.MaxAttempts {
		now := f.clock()
		j.Status = model.JobFailed
		j.CompletedAt = &now
	} else {
		j.Status = model.JobQueued
		j.StartedAt = nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) Cancel(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return apperr.ErrNotFound
	}
	if j.Status != model.JobQueued && j.Status != model.JobProcessing {
		return fmt.Errorf("cancel job %s: %w", jobID, apperr.ErrConflict)
	}
	now := f.clock()
	j.Status = model.JobCancelled
	j.CompletedAt = &now
	return nil
}

func (f *fakeJobRepo) RequeueStuck(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, j := range f.jobs {
		if j.Status != model.JobProcessing || j.StartedAt == nil || !j.StartedAt.Before(cutoff) {
			continue
		}
		j.Attempts++
		j.LastError = "requeued: processing deadline exceeded"
		if j.Attempts > j.MaxAttempts {
			j.Status = model.JobFailed
		} else {
			j.Status = model.JobQueued
			j.StartedAt = nil
		}
		n++
	}
	return n, nil
}

func (f *fakeJobRepo) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, j := range f.jobs {
		if j.Status == model.JobCompleted && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			delete(f.jobs, id)
			n++
		}
	}
	return n, nil
}
