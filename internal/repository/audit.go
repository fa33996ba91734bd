package repository

import (
	"context"
	"time"

	"propcore/internal/model"
)

// AuditRepository defines append-only access to the audit log.
// Rows are never updated; deletion happens only through the retention sweep.
type AuditRepository interface {
	// Insert appends one event and returns the stored row.
	Insert(ctx context.Context, ev *model.AuditEvent) (*model.AuditEvent, error)

	// ListByEntity returns events for one entity, newest first, paginated.
	ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, pq PageQuery) (*PageResult[model.AuditEvent], error)

	// DeleteOlderThan removes events created before the cutoff and returns
	// how many rows were removed. Used only by the retention sweep.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
