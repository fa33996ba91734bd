package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"propcore/internal/model"
)

// Worker polls the queue and runs processors. Several workers (or several
// Run goroutines of one worker) may poll concurrently; claiming is atomic in
// the store, so a job is only ever processed by one of them.
type Worker struct {
	queue       *Queue
	procs       map[model.JobKind]Processor
	poll        time.Duration
	jobTimeout  time.Duration
	concurrency int

	mu  sync.Mutex
	enc *json.Encoder
}

// WorkerConfig tunes the polling loop.
type WorkerConfig struct {
	PollInterval time.Duration
	JobTimeout   time.Duration
	Concurrency  int
}

// NewWorker constructs a worker over the queue and the given processors.
func NewWorker(queue *Queue, procs []Processor, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	byKind := make(map[model.JobKind]Processor, len(procs))
	for _, p := range procs {
		byKind[p.Kind()] = p
	}
	return &Worker{
		queue:       queue,
		procs:       byKind,
		poll:        cfg.PollInterval,
		jobTimeout:  cfg.JobTimeout,
		concurrency: cfg.Concurrency,
		enc:         json.NewEncoder(os.Stdout),
	}
}

// SetLogOutput redirects the JSON diagnostics stream; used by tests.
func (w *Worker) SetLogOutput(out io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enc = json.NewEncoder(out)
}

// Run polls until ctx is cancelled. It blocks; callers usually run it in a
// goroutine per daemon.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		worked, err := w.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logJSON(map[string]any{
				"component":     "worker",
				"event":         "job_cycle_error",
				"status":        "error",
				"error_message": err.Error(),
			})
		}
		if worked {
			continue // drain available work before sleeping
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes at most one job. Returns whether a job was
// claimed. Claim errors are returned; processing failures are routed through
// the queue's retry policy and only terminal failures surface as errors.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.queue.ClaimNext(ctx, "")
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if job == nil {
		return false, nil
	}

	w.logJSON(map[string]any{
		"component":   "worker",
		"event":       "job_claimed",
		"status":      "in_progress",
		"job_id":      job.ID,
		"job_kind":    string(job.Kind),
		"document_id": job.DocumentID,
		"attempt":     job.Attempts,
	})

	proc, ok := w.procs[job.Kind]
	if !ok {
		return true, w.queue.Fail(ctx, job, fmt.Errorf("no processor registered for kind %q", job.Kind))
	}

	jctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	result, derived, err := proc.Process(jctx, job)
	if err != nil {
		return true, w.queue.Fail(ctx, job, err)
	}
	if err := w.queue.Complete(ctx, job, result, derived); err != nil {
		return true, fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	w.logJSON(map[string]any{
		"component": "worker",
		"event":     "job_completed",
		"status":    "success",
		"job_id":    job.ID,
		"job_kind":  string(job.Kind),
	})
	return true, nil
}

func (w *Worker) logJSON(fields map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	_ = w.enc.Encode(fields)
}
