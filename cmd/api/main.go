package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"propcore/docs"
	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/cache"
	"propcore/internal/config"
	"propcore/internal/database"
	"propcore/internal/database/migration"
	handlers "propcore/internal/http/handler"
	"propcore/internal/http/middleware"
	"propcore/internal/jobs"
	"propcore/internal/otel"
	"propcore/internal/providers"
	"propcore/internal/repository/postgres"
	"propcore/internal/service"
	"propcore/internal/storage"
)

// @title Property Core API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tracing; degrades to a noop provider when the exporter is unreachable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Metrics registry shared by the HTTP middleware and the domain components
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	jobMetrics, err := jobs.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register job metrics: %v", err)
	}
	cacheMetrics, err := cache.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register cache metrics: %v", err)
	}

	// Repositories
	propRepo := postgres.NewPropertyPostgres(db)
	relRepo := postgres.NewRelationshipPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	noteRepo := postgres.NewNotePostgres(db)
	taskRepo := postgres.NewTaskPostgres(db)
	jobRepo := postgres.NewJobPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)
	cacheRepo := postgres.NewCachePostgres(db)

	// Cross-cutting components
	engine := authz.NewEngine(relRepo)
	trail := audit.NewLogger(auditRepo, cfg.Audit.RetryBuffer)
	defer trail.Close()
	queue := jobs.NewQueue(jobRepo, cfg.Jobs.MaxAttempts, jobMetrics)
	cacheSvc := cache.NewService(cacheRepo, cfg.Cache.GraceFactor, cacheMetrics)
	registry := providers.NewRegistry(cfg.Providers)

	// Services
	h := &handlers.Handler{
		DB:            db,
		Properties:    service.NewPropertyService(propRepo, relRepo, engine, trail),
		Relationships: service.NewRelationshipService(relRepo, propRepo, engine, trail),
		Documents:     service.NewDocumentService(docRepo, propRepo, objStore, queue, engine, trail),
		Notes:         service.NewNoteService(noteRepo, propRepo, engine, trail),
		Tasks:         service.NewTaskService(taskRepo, propRepo, engine, trail),
		Lookups:       service.NewLookupService(registry, cacheSvc, cfg.Cache.DefaultTTLSec),
		Sweeps: service.NewSweepService(queue, trail, cacheSvc, service.SweepWindows{
			JobStaleness:   time.Duration(cfg.Jobs.ReaperWindowMin) * time.Minute,
			JobRetention:   time.Duration(cfg.Jobs.RetentionDays) * 24 * time.Hour,
			AuditRetention: time.Duration(cfg.Audit.RetentionYears) * 365 * 24 * time.Hour,
		}),
		Audits: service.NewAuditService(trail, propRepo, docRepo, noteRepo, taskRepo, relRepo, engine),
		Queue:  queue,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// Principal middleware resolves the calling principal from X-Principal-ID
	app.Use(middleware.Principal())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())
	app.Use(otelfiber.Middleware())

	h.Register(app)

	// Prometheus scrape endpoint
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
