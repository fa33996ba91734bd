package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"propcore/internal/model"
	"propcore/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// The table is append-only: no UPDATE statement exists in this file.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

const auditColumns = `id, actor_id, action, entity_type, entity_id, old_state, new_state, created_at`

func scanAuditEvent(row interface{ Scan(...any) error }) (*model.AuditEvent, error) {
	var (
		ev       model.AuditEvent
		oldState []byte
		newState []byte
	)
	if err := row.Scan(
		&ev.ID,
		&ev.ActorID,
		&ev.Action,
		&ev.EntityType,
		&ev.EntityID,
		&oldState,
		&newState,
		&ev.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(oldState) > 0 {
		if err := json.Unmarshal(oldState, &ev.OldState); err != nil {
			return nil, err
		}
	}
	if len(newState) > 0 {
		if err := json.Unmarshal(newState, &ev.NewState); err != nil {
			return nil, err
		}
	}
	return &ev, nil
}

// Insert appends one audit event and returns the stored row.
func (r *AuditPostgres) Insert(ctx context.Context, ev *model.AuditEvent) (*model.AuditEvent, error) {
	oldState, err := marshalSnapshot(ev.OldState)
	if err != nil {
		return nil, err
	}
	newState, err := marshalSnapshot(ev.NewState)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO audit_events (id, actor_id, action, entity_type, entity_id, old_state, new_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + auditColumns
	row := r.db.QueryRowContext(ctx, q,
		ev.ID,
		ev.ActorID,
		ev.Action,
		ev.EntityType,
		ev.EntityID,
		oldState,
		newState,
		ev.CreatedAt,
	)
	return scanAuditEvent(row)
}

// ListByEntity returns events for one entity, newest first.
func (r *AuditPostgres) ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, pq repository.PageQuery) (*repository.PageResult[model.AuditEvent], error) {
	const qCount = `SELECT COUNT(*) FROM audit_events WHERE entity_type = $1 AND entity_id = $2`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, entityType, entityID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + auditColumns + `
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, qList, entityType, entityID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditEvent, 0)
	for rows.Next() {
		ev, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.AuditEvent]{Items: items, Total: total}, nil
}

// DeleteOlderThan removes events created before the cutoff.
func (r *AuditPostgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM audit_events WHERE created_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// marshalSnapshot serializes a snapshot map to jsonb, keeping NULL for nil.
func marshalSnapshot(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}
