package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"propcore/internal/audit"
	"propcore/internal/cache"
	"propcore/internal/config"
	"propcore/internal/database"
	"propcore/internal/database/migration"
	"propcore/internal/jobs"
	"propcore/internal/otel"
	"propcore/internal/repository/postgres"
	"propcore/internal/service"
	"propcore/internal/storage"
)

// The worker daemon drains the document job queue and runs the recurring
// maintenance sweeps. It shares the API's schema and storage but serves no
// business routes, only /healthz and /metrics.
func main() {
	cfg := config.Load()
	loc := time.UTC

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	jobMetrics, err := jobs.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register job metrics: %v", err)
	}
	cacheMetrics, err := cache.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register cache metrics: %v", err)
	}

	trail := audit.NewLogger(postgres.NewAuditPostgres(db), cfg.Audit.RetryBuffer)
	defer trail.Close()

	queue := jobs.NewQueue(postgres.NewJobPostgres(db), cfg.Jobs.MaxAttempts, jobMetrics)
	cacheSvc := cache.NewService(postgres.NewCachePostgres(db), cfg.Cache.GraceFactor, cacheMetrics)

	sweeps := service.NewSweepService(queue, trail, cacheSvc, service.SweepWindows{
		JobStaleness:   time.Duration(cfg.Jobs.ReaperWindowMin) * time.Minute,
		JobRetention:   time.Duration(cfg.Jobs.RetentionDays) * 24 * time.Hour,
		AuditRetention: time.Duration(cfg.Audit.RetentionYears) * 365 * 24 * time.Hour,
	})

	worker := jobs.NewWorker(queue, []jobs.Processor{
		jobs.NewAVScanProcessor(objStore),
		jobs.NewOCRProcessor(objStore),
		jobs.NewMetadataProcessor(objStore),
		jobs.NewThumbnailProcessor(objStore),
	}, jobs.WorkerConfig{
		PollInterval: time.Duration(cfg.Jobs.PollIntervalSec) * time.Second,
		JobTimeout:   time.Duration(cfg.Jobs.JobTimeoutSec) * time.Second,
		Concurrency:  cfg.Jobs.Concurrency,
	})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Reaper: requeue claims that outlived the staleness window. Runs more
	// often than the window so a crashed worker's jobs do not wait a full
	// extra cycle.
	wg.Add(1)
	go func() {
		defer wg.Done()
		interval := time.Duration(cfg.Jobs.ReaperWindowMin) * time.Minute / 3
		if interval < time.Minute {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sweeps.ReapJobs(ctx); err != nil && ctx.Err() == nil {
					log.Printf("reap stuck jobs: %v", err)
				}
			}
		}
	}()

	// Retention sweeps: completed jobs, expired audit events, expired cache
	// entries. Each pass is idempotent.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(cfg.Jobs.SweepIntervalMin) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sweeps.Run(ctx); err != nil && ctx.Err() == nil {
					log.Printf("maintenance sweep: %v", err)
				}
			}
		}
	}()

	app := fiber.New()
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start worker server: %v", err)
	}

	wg.Wait()
}
