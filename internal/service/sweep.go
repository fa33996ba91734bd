package service

import (
	"context"
	"time"

	"propcore/internal/audit"
	"propcore/internal/cache"
	"propcore/internal/jobs"
)

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	StuckJobsRequeued   int64 `json:"stuck_jobs_requeued"`
	CompletedJobsSwept  int64 `json:"completed_jobs_swept"`
	AuditEventsSwept    int64 `json:"audit_events_swept"`
	CacheEntriesFlagged int64 `json:"cache_entries_flagged"`
	CacheEntriesEvicted int64 `json:"cache_entries_evicted"`
}

// SweepService runs the recurring maintenance passes: the stuck-job reaper,
// the completed-job retention sweep, the audit retention sweep and the cache
// eviction sweep. Every pass is idempotent.
type SweepService interface {
	// ReapJobs requeues jobs whose claim outlived the staleness window.
	ReapJobs(ctx context.Context) (int64, error)

	// Run executes every sweep once and reports what moved.
	Run(ctx context.Context) (*SweepReport, error)
}

// SweepWindows carries the retention and staleness settings.
type SweepWindows struct {
	JobStaleness   time.Duration
	JobRetention   time.Duration
	AuditRetention time.Duration
}

type sweepService struct {
	queue    *jobs.Queue
	trail    *audit.Logger
	cacheSvc *cache.Service
	windows  SweepWindows
}

// NewSweepService constructs a SweepService.
func NewSweepService(queue *jobs.Queue, trail *audit.Logger, cacheSvc *cache.Service, windows SweepWindows) SweepService {
	if windows.JobStaleness <= 0 {
		windows.JobStaleness = 15 * time.Minute
	}
	if windows.JobRetention <= 0 {
		windows.JobRetention = 30 * 24 * time.Hour
	}
	if windows.AuditRetention <= 0 {
		windows.AuditRetention = 6 * 365 * 24 * time.Hour
	}
	return &sweepService{queue: queue, trail: trail, cacheSvc: cacheSvc, windows: windows}
}

func (s *sweepService) ReapJobs(ctx context.Context) (int64, error) {
	return s.queue.ReapStuck(ctx, s.windows.JobStaleness)
}

func (s *sweepService) Run(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	n, err := s.queue.ReapStuck(ctx, s.windows.JobStaleness)
	if err != nil {
		return report, err
	}
	report.StuckJobsRequeued = n

	n, err = s.queue.SweepCompleted(ctx, s.windows.JobRetention)
	if err != nil {
		return report, err
	}
	report.CompletedJobsSwept = n

	n, err = s.trail.SweepRetention(ctx, s.windows.AuditRetention)
	if err != nil {
		return report, err
	}
	report.AuditEventsSwept = n

	flagged, evicted, err := s.cacheSvc.Sweep(ctx)
	if err != nil {
		return report, err
	}
	report.CacheEntriesFlagged = flagged
	report.CacheEntriesEvicted = evicted

	return report, nil
}
