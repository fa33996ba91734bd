package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"propcore/internal/jobs"
	"propcore/internal/service"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	DB            *sql.DB
	Properties    service.PropertyService
	Relationships service.RelationshipService
	Documents     service.DocumentService
	Notes         service.NoteService
	Tasks         service.TaskService
	Lookups       service.LookupService
	Sweeps        service.SweepService
	Audits        service.AuditService
	Queue         *jobs.Queue
}

// Register attaches HTTP routes to the provided Fiber app. Handlers stay
// thin: parameter parsing, service call, error presentation.
func (h *Handler) Register(app *fiber.App) {
	// Health: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Post("/properties", h.claimProperty)
	app.Get("/properties", h.listProperties)
	app.Get("/properties/:id", h.getProperty)
	app.Put("/properties/:id", h.updateProperty)
	app.Post("/properties/:id/unclaim", h.unclaimProperty)

	app.Get("/properties/:id/relationships", h.listRelationships)
	app.Post("/properties/:id/relationships", h.addRelationship)
	app.Delete("/relationships/:id", h.removeRelationship)

	app.Post("/properties/:id/documents", h.uploadDocument)
	app.Get("/properties/:id/documents", h.listDocuments)
	app.Get("/documents/:id", h.getDocument)
	app.Get("/documents/:id/content", h.downloadDocument)
	app.Get("/documents/:id/presign", h.presignDocument)
	app.Patch("/documents/:id/visibility", h.setDocumentVisibility)
	app.Delete("/documents/:id", h.deleteDocument)
	app.Get("/documents/:id/jobs", h.listDocumentJobs)

	app.Post("/properties/:id/notes", h.createNote)
	app.Get("/properties/:id/notes", h.listNotes)
	app.Get("/notes/:id", h.getNote)
	app.Put("/notes/:id", h.updateNote)
	app.Delete("/notes/:id", h.deleteNote)

	app.Post("/properties/:id/tasks", h.createTask)
	app.Get("/properties/:id/tasks", h.listTasks)
	app.Get("/tasks/:id", h.getTask)
	app.Put("/tasks/:id", h.updateTask)
	app.Delete("/tasks/:id", h.deleteTask)

	app.Get("/lookups", h.listProviders)
	app.Get("/lookups/:provider", h.lookup)

	app.Get("/audit/:entityType/:entityID", h.listAuditEvents)

	app.Post("/admin/sweep", h.runSweep)
	app.Post("/admin/jobs/:id/cancel", h.cancelJob)
}

// pathUUID validates and returns the named UUID path parameter.
func pathUUID(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// pagination parses limit/offset query parameters with defaults.
func pagination(c *fiber.Ctx) (limit, offset int, err error) {
	limit, err = strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, err
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
