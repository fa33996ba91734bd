package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// PropertyPostgres is a PostgreSQL implementation of repository.PropertyRepository.
type PropertyPostgres struct {
	db *sql.DB
}

// NewPropertyPostgres creates a new PropertyPostgres repository.
func NewPropertyPostgres(db *sql.DB) *PropertyPostgres {
	return &PropertyPostgres{db: db}
}

var _ repository.PropertyRepository = (*PropertyPostgres)(nil)

const propertyColumns = `id, address_line1, address_line2, city, postcode, reference_code, completion_pct, public, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (*model.Property, error) {
	var p model.Property
	if err := row.Scan(
		&p.ID,
		&p.AddressLine1,
		&p.AddressLine2,
		&p.City,
		&p.Postcode,
		&p.ReferenceCode,
		&p.Completion,
		&p.Public,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new property row and returns the stored record. A taken
// reference code surfaces as apperr.ErrConflict.
func (r *PropertyPostgres) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	const q = `
		INSERT INTO properties (id, address_line1, address_line2, city, postcode, reference_code, completion_pct, public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + propertyColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.AddressLine1,
		p.AddressLine2,
		p.City,
		p.Postcode,
		p.ReferenceCode,
		p.Completion,
		p.Public,
		p.CreatedAt,
		p.UpdatedAt,
	)
	out, err := scanProperty(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("reference code already in use: %w", apperr.ErrConflict)
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single property by its ID.
func (r *PropertyPostgres) FindByID(ctx context.Context, id string) (*model.Property, error) {
	const q = `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update persists mutable property fields.
func (r *PropertyPostgres) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	const q = `
		UPDATE properties
		SET address_line1 = $2, address_line2 = $3, city = $4, postcode = $5,
		    reference_code = $6, completion_pct = $7, public = $8, updated_at = $9
		WHERE id = $1
		RETURNING ` + propertyColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.AddressLine1,
		p.AddressLine2,
		p.City,
		p.Postcode,
		p.ReferenceCode,
		p.Completion,
		p.Public,
		p.UpdatedAt,
	)
	out, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("reference code already in use: %w", apperr.ErrConflict)
		}
		return nil, err
	}
	return out, nil
}

// Delete removes a property row. Dependent rows cascade.
func (r *PropertyPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM properties WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ListByPrincipal returns properties the principal holds any relationship on.
func (r *PropertyPostgres) ListByPrincipal(ctx context.Context, principalID string, pq repository.PageQuery) (*repository.PageResult[model.Property], error) {
	const qCount = `
		SELECT COUNT(*)
		FROM properties
		WHERE id IN (SELECT property_id FROM relationships WHERE principal_id = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, principalID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE id IN (SELECT property_id FROM relationships WHERE principal_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, principalID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Property]{Items: items, Total: total}, nil
}
