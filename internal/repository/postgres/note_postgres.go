package postgres

import (
	"context"
	"database/sql"
	"errors"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// NotePostgres is a PostgreSQL implementation of repository.NoteRepository.
type NotePostgres struct {
	db *sql.DB
}

// NewNotePostgres creates a new NotePostgres repository.
func NewNotePostgres(db *sql.DB) *NotePostgres {
	return &NotePostgres{db: db}
}

var _ repository.NoteRepository = (*NotePostgres)(nil)

const noteColumns = `id, property_id, creator_id, visibility, title, body, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	if err := row.Scan(
		&n.ID,
		&n.PropertyID,
		&n.CreatorID,
		&n.Visibility,
		&n.Title,
		&n.Body,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotePostgres) Create(ctx context.Context, n *model.Note) (*model.Note, error) {
	const q = `
		INSERT INTO notes (id, property_id, creator_id, visibility, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + noteColumns
	row := r.db.QueryRowContext(ctx, q,
		n.ID, n.PropertyID, n.CreatorID, n.Visibility, n.Title, n.Body, n.CreatedAt, n.UpdatedAt,
	)
	return scanNote(row)
}

func (r *NotePostgres) FindByID(ctx context.Context, id string) (*model.Note, error) {
	const q = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	n, err := scanNote(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *NotePostgres) ListByProperty(ctx context.Context, propertyID string, pq repository.PageQuery) (*repository.PageResult[model.Note], error) {
	const qCount = `SELECT COUNT(*) FROM notes WHERE property_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, propertyID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE property_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, propertyID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Note]{Items: items, Total: total}, nil
}

func (r *NotePostgres) Update(ctx context.Context, n *model.Note) (*model.Note, error) {
	const q = `
		UPDATE notes
		SET visibility = $2, title = $3, body = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + noteColumns
	out, err := scanNote(r.db.QueryRowContext(ctx, q, n.ID, n.Visibility, n.Title, n.Body, n.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *NotePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM notes WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
