package repository

import (
	"context"

	"propcore/internal/model"
)

// RelationshipRepository defines data access for party-relationships.
type RelationshipRepository interface {
	// Create inserts a relationship row. A duplicate (principal, property,
	// tier) triple returns apperr.ErrConflict.
	Create(ctx context.Context, r *model.Relationship) (*model.Relationship, error)

	// FindByID returns a relationship by its ID, or apperr.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Relationship, error)

	// TiersFor returns every tier the principal holds on the property.
	// Empty slice (no error) when none exist.
	TiersFor(ctx context.Context, principalID, propertyID string) ([]model.Tier, error)

	// ListByProperty returns all relationships on a property.
	ListByProperty(ctx context.Context, propertyID string) ([]model.Relationship, error)

	// CountByTier returns how many relationships of the given tier exist on
	// the property.
	CountByTier(ctx context.Context, propertyID string, tier model.Tier) (int, error)

	// Delete removes a relationship by ID. Missing rows are not an error.
	Delete(ctx context.Context, id string) error
}
