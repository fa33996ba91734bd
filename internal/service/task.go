package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// TaskInput carries the caller-editable task fields.
type TaskInput struct {
	Title      string           `json:"title"`
	Done       bool             `json:"done"`
	DueAt      *time.Time       `json:"due_at"`
	Visibility model.Visibility `json:"visibility"`
}

// TaskListResult is the service-level DTO for paginated tasks.
type TaskListResult struct {
	Items []model.Task `json:"data"`
	Total int          `json:"total"`
}

// TaskService defines the task use cases.
type TaskService interface {
	Create(ctx context.Context, principalID, propertyID string, in TaskInput) (*model.Task, error)
	Get(ctx context.Context, principalID, id string) (*model.Task, error)
	List(ctx context.Context, principalID, propertyID string, limit, offset int) (*TaskListResult, error)
	Update(ctx context.Context, principalID, id string, in TaskInput) (*model.Task, error)
	Delete(ctx context.Context, principalID, id string) error
}

type taskService struct {
	tasks  repository.TaskRepository
	props  repository.PropertyRepository
	engine *authz.Engine
	trail  *audit.Logger
	now    func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(tasks repository.TaskRepository, props repository.PropertyRepository, engine *authz.Engine, trail *audit.Logger) TaskService {
	return &taskService{tasks: tasks, props: props, engine: engine, trail: trail, now: time.Now}
}

func taskRef(t *model.Task) authz.EntityRef {
	return authz.EntityRef{PropertyID: t.PropertyID, Visibility: t.Visibility, CreatorID: t.CreatorID}
}

func (s *taskService) Create(ctx context.Context, principalID, propertyID string, in TaskInput) (*model.Task, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if !in.Visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	if _, err := s.props.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}
	newRef := authz.EntityRef{PropertyID: propertyID, Visibility: in.Visibility, CreatorID: principalID}
	if err := s.engine.Require(ctx, principalID, newRef, authz.OpWrite); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	stored, err := s.tasks.Create(ctx, &model.Task{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		CreatorID:  principalID,
		Visibility: in.Visibility,
		Title:      in.Title,
		Done:       in.Done,
		DueAt:      in.DueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionCreate, model.EntityTask, stored.ID, nil, snapshot(stored))
	return stored, nil
}

func (s *taskService) Get(ctx context.Context, principalID, id string) (*model.Task, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, taskRef(t), authz.OpRead); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*TaskListResult, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	limit, offset = clampPage(limit, offset)

	tier, err := s.engine.EffectiveTier(ctx, principalID, propertyID)
	if err != nil {
		return nil, err
	}

	res, err := s.tasks.ListByProperty(ctx, propertyID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]model.Task, 0, len(res.Items))
	for _, item := range res.Items {
		if authz.Allowed(tier, principalID, taskRef(&item), authz.OpRead) {
			items = append(items, item)
		}
	}
	return &TaskListResult{Items: items, Total: res.Total}, nil
}

func (s *taskService) Update(ctx context.Context, principalID, id string, in TaskInput) (*model.Task, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if !in.Visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	old, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, taskRef(old), authz.OpWrite); err != nil {
		return nil, err
	}

	next := *old
	next.Title = in.Title
	next.Done = in.Done
	next.DueAt = in.DueAt
	next.Visibility = in.Visibility
	next.UpdatedAt = s.now().UTC()

	stored, err := s.tasks.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionUpdate, model.EntityTask, stored.ID, snapshot(old), snapshot(stored))
	return stored, nil
}

func (s *taskService) Delete(ctx context.Context, principalID, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	item, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Require(ctx, principalID, taskRef(item), authz.OpWrite); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.trail.Record(ctx, principalID, model.ActionDelete, model.EntityTask, item.ID, snapshot(item), nil)
	return nil
}
