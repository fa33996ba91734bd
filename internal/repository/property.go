package repository

import (
	"context"

	"propcore/internal/model"
)

// PropertyRepository defines data access for properties using SQL queries only.
// No business logic here — strictly persistence operations.
type PropertyRepository interface {
	// Create inserts a new property row and returns the stored record.
	Create(ctx context.Context, p *model.Property) (*model.Property, error)

	// FindByID returns a property by its ID, or apperr.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Property, error)

	// Update persists mutable fields (address, reference code, completion,
	// public flag) and returns the stored record.
	Update(ctx context.Context, p *model.Property) (*model.Property, error)

	// ListByPrincipal returns properties the principal holds any relationship
	// on, paginated.
	ListByPrincipal(ctx context.Context, principalID string, pq PageQuery) (*PageResult[model.Property], error)

	// Delete removes a property row; dependent rows cascade.
	Delete(ctx context.Context, id string) error
}
