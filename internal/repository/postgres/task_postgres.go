package postgres

import (
	"context"
	"database/sql"
	"errors"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// TaskPostgres is a PostgreSQL implementation of repository.TaskRepository.
type TaskPostgres struct {
	db *sql.DB
}

// NewTaskPostgres creates a new TaskPostgres repository.
func NewTaskPostgres(db *sql.DB) *TaskPostgres {
	return &TaskPostgres{db: db}
}

var _ repository.TaskRepository = (*TaskPostgres)(nil)

const taskColumns = `id, property_id, creator_id, visibility, title, done, due_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(
		&t.ID,
		&t.PropertyID,
		&t.CreatorID,
		&t.Visibility,
		&t.Title,
		&t.Done,
		&t.DueAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskPostgres) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	const q = `
		INSERT INTO tasks (id, property_id, creator_id, visibility, title, done, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns
	row := r.db.QueryRowContext(ctx, q,
		t.ID, t.PropertyID, t.CreatorID, t.Visibility, t.Title, t.Done, t.DueAt, t.CreatedAt, t.UpdatedAt,
	)
	return scanTask(row)
}

func (r *TaskPostgres) FindByID(ctx context.Context, id string) (*model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TaskPostgres) ListByProperty(ctx context.Context, propertyID string, pq repository.PageQuery) (*repository.PageResult[model.Task], error) {
	const qCount = `SELECT COUNT(*) FROM tasks WHERE property_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, propertyID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE property_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, propertyID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Task]{Items: items, Total: total}, nil
}

func (r *TaskPostgres) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	const q = `
		UPDATE tasks
		SET visibility = $2, title = $3, done = $4, due_at = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + taskColumns
	out, err := scanTask(r.db.QueryRowContext(ctx, q, t.ID, t.Visibility, t.Title, t.Done, t.DueAt, t.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *TaskPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM tasks WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
