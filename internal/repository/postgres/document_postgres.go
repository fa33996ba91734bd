package postgres

import (
	"context"
	"database/sql"
	"errors"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, property_id, creator_id, visibility, filename, storage_path, size, content_type,
		processing_status, COALESCE(extracted_text, ''), metadata, COALESCE(thumbnail_path, ''), created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.PropertyID,
		&d.CreatorID,
		&d.Visibility,
		&d.Filename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&d.Processing,
		&d.ExtractedText,
		&d.Metadata,
		&d.ThumbnailPath,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, property_id, creator_id, visibility, filename, storage_path, size, content_type, processing_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.PropertyID,
		doc.CreatorID,
		doc.Visibility,
		doc.Filename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		doc.Processing,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByProperty returns documents on one property using LIMIT/OFFSET
// pagination and a total count.
func (r *DocumentPostgres) ListByProperty(ctx context.Context, propertyID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE property_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, propertyID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE property_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, propertyID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// Update persists mutable document fields (filename, visibility).
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET filename = $2, visibility = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + documentColumns
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, doc.ID, doc.Filename, doc.Visibility, doc.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
