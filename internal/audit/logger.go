// Package audit records mutations to protected entities as immutable,
// masked events. Persistence is best-effort: a failed write is retried
// asynchronously and never fails the business operation that triggered it.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"propcore/internal/model"
	"propcore/internal/repository"
)

// Logger appends audit events. Safe for concurrent use.
type Logger struct {
	repo  repository.AuditRepository
	retry chan *model.AuditEvent
	wg    sync.WaitGroup

	mu  sync.Mutex
	enc *json.Encoder

	now        func() time.Time
	retryDelay time.Duration
	closeOnce  sync.Once
}

// Option tweaks logger construction; used by tests.
type Option func(*Logger)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithRetryDelay overrides the pause between replay attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Logger) { l.retryDelay = d }
}

// WithLogOutput redirects the JSON diagnostics stream.
func WithLogOutput(w io.Writer) Option {
	return func(l *Logger) { l.enc = json.NewEncoder(w) }
}

// NewLogger constructs a Logger and starts the background replay worker.
// buffer bounds how many failed events wait for replay; beyond that, events
// are dropped with a diagnostic line (write availability over guaranteed
// audit coverage).
func NewLogger(repo repository.AuditRepository, buffer int, opts ...Option) *Logger {
	if buffer <= 0 {
		buffer = 256
	}
	l := &Logger{
		repo:       repo,
		retry:      make(chan *model.AuditEvent, buffer),
		enc:        json.NewEncoder(os.Stdout),
		now:        time.Now,
		retryDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.wg.Add(1)
	go l.replayLoop()
	return l
}

// Record masks both snapshots and appends one event. It never returns an
// error: a failed insert is queued for asynchronous replay.
func (l *Logger) Record(ctx context.Context, actorID string, action model.Action, entityType model.EntityType, entityID string, oldState, newState map[string]any) {
	ev := &model.AuditEvent{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldState:   MaskSnapshot(oldState),
		NewState:   MaskSnapshot(newState),
		CreatedAt:  l.now().UTC(),
	}

	if _, err := l.repo.Insert(ctx, ev); err != nil {
		l.logJSON(map[string]any{
			"component":     "audit",
			"event":         "audit_write_failed",
			"status":        "queued_for_replay",
			"audit_id":      ev.ID,
			"error_message": err.Error(),
		})
		select {
		case l.retry <- ev:
		default:
			l.logJSON(map[string]any{
				"component": "audit",
				"event":     "audit_event_dropped",
				"status":    "error",
				"audit_id":  ev.ID,
			})
		}
	}
}

// ListByEntity returns events for one entity, newest first.
func (l *Logger) ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, pq repository.PageQuery) (*repository.PageResult[model.AuditEvent], error) {
	return l.repo.ListByEntity(ctx, entityType, entityID, pq)
}

// SweepRetention deletes events older than the retention window.
// Idempotent; intended for a recurring external scheduler.
func (l *Logger) SweepRetention(ctx context.Context, retention time.Duration) (int64, error) {
	return l.repo.DeleteOlderThan(ctx, l.now().UTC().Add(-retention))
}

// Close stops accepting replays and drains the queue with one final attempt
// per event.
func (l *Logger) Close() {
	l.closeOnce.Do(func() { close(l.retry) })
	l.wg.Wait()
}

// replayLoop re-inserts failed events until the queue is closed and drained.
// Each event gets a bounded number of attempts before being dropped.
func (l *Logger) replayLoop() {
	defer l.wg.Done()
	const maxReplays = 5
	for ev := range l.retry {
		var err error
		for attempt := 1; attempt <= maxReplays; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_, err = l.repo.Insert(ctx, ev)
			cancel()
			if err == nil {
				break
			}
			l.logJSON(map[string]any{
				"component":     "audit",
				"event":         "audit_replay_failed",
				"status":        "retrying",
				"audit_id":      ev.ID,
				"attempt":       attempt,
				"error_message": err.Error(),
			})
			time.Sleep(l.retryDelay)
		}
		if err == nil {
			l.logJSON(map[string]any{
				"component": "audit",
				"event":     "audit_replay_ok",
				"status":    "success",
				"audit_id":  ev.ID,
			})
			continue
		}
		l.logJSON(map[string]any{
			"component": "audit",
			"event":     "audit_event_dropped",
			"status":    "error",
			"audit_id":  ev.ID,
		})
	}
}

func (l *Logger) logJSON(fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fields["ts"] = l.now().UTC().Format(time.RFC3339Nano)
	_ = l.enc.Encode(fields)
}
