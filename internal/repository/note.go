package repository

import (
	"context"

	"propcore/internal/model"
)

// NoteRepository defines data access for property notes.
type NoteRepository interface {
	Create(ctx context.Context, n *model.Note) (*model.Note, error)
	FindByID(ctx context.Context, id string) (*model.Note, error)
	ListByProperty(ctx context.Context, propertyID string, pq PageQuery) (*PageResult[model.Note], error)
	Update(ctx context.Context, n *model.Note) (*model.Note, error)
	Delete(ctx context.Context, id string) error
}

// TaskRepository defines data access for property tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	FindByID(ctx context.Context, id string) (*model.Task, error)
	ListByProperty(ctx context.Context, propertyID string, pq PageQuery) (*PageResult[model.Task], error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Delete(ctx context.Context, id string) error
}
