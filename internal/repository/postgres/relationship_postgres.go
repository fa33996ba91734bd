package postgres

import (
	"context"
	"database/sql"
	"errors"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// RelationshipPostgres is a PostgreSQL implementation of repository.RelationshipRepository.
type RelationshipPostgres struct {
	db *sql.DB
}

// NewRelationshipPostgres creates a new RelationshipPostgres repository.
func NewRelationshipPostgres(db *sql.DB) *RelationshipPostgres {
	return &RelationshipPostgres{db: db}
}

var _ repository.RelationshipRepository = (*RelationshipPostgres)(nil)

const relationshipColumns = `id, property_id, principal_id, tier, created_at`

func scanRelationship(row interface{ Scan(...any) error }) (*model.Relationship, error) {
	var rel model.Relationship
	if err := row.Scan(
		&rel.ID,
		&rel.PropertyID,
		&rel.PrincipalID,
		&rel.Tier,
		&rel.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rel, nil
}

// Create inserts a relationship row. Duplicate (property, principal, tier)
// triples surface as apperr.ErrConflict via the unique index.
func (r *RelationshipPostgres) Create(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	const q = `
		INSERT INTO relationships (id, property_id, principal_id, tier, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + relationshipColumns
	row := r.db.QueryRowContext(ctx, q,
		rel.ID,
		rel.PropertyID,
		rel.PrincipalID,
		rel.Tier,
		rel.CreatedAt,
	)
	out, err := scanRelationship(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single relationship by its ID.
func (r *RelationshipPostgres) FindByID(ctx context.Context, id string) (*model.Relationship, error) {
	const q = `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = $1`
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return rel, nil
}

// TiersFor returns every tier the principal holds on the property.
func (r *RelationshipPostgres) TiersFor(ctx context.Context, principalID, propertyID string) ([]model.Tier, error) {
	const q = `
		SELECT tier FROM relationships
		WHERE principal_id = $1 AND property_id = $2`
	rows, err := r.db.QueryContext(ctx, q, principalID, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]model.Tier, 0)
	for rows.Next() {
		var t model.Tier
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// ListByProperty returns all relationships on a property.
func (r *RelationshipPostgres) ListByProperty(ctx context.Context, propertyID string) ([]model.Relationship, error) {
	const q = `
		SELECT ` + relationshipColumns + ` FROM relationships
		WHERE property_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Relationship, 0)
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rel)
	}
	return items, rows.Err()
}

// CountByTier returns how many relationships of a tier exist on a property.
func (r *RelationshipPostgres) CountByTier(ctx context.Context, propertyID string, tier model.Tier) (int, error) {
	const q = `SELECT COUNT(*) FROM relationships WHERE property_id = $1 AND tier = $2`
	var n int
	if err := r.db.QueryRowContext(ctx, q, propertyID, tier).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a relationship by ID. Missing rows are not an error.
func (r *RelationshipPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM relationships WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
