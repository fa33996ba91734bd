package repository

import (
	"context"

	"propcore/internal/model"
)

// DocumentRepository defines data access for documents.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or apperr.ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByProperty returns a paginated list of documents on one property.
	ListByProperty(ctx context.Context, propertyID string, pq PageQuery) (*PageResult[model.Document], error)

	// Update persists mutable fields (filename, visibility) and returns the
	// stored record.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a document by ID. Missing rows are not an error.
	Delete(ctx context.Context, id string) error
}
