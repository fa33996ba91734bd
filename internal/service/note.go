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

// NoteInput carries the caller-editable note fields.
type NoteInput struct {
	Title      string           `json:"title"`
	Body       string           `json:"body"`
	Visibility model.Visibility `json:"visibility"`
}

// NoteListResult is the service-level DTO for paginated notes.
type NoteListResult struct {
	Items []model.Note `json:"data"`
	Total int          `json:"total"`
}

// NoteService defines the note use cases.
type NoteService interface {
	Create(ctx context.Context, principalID, propertyID string, in NoteInput) (*model.Note, error)
	Get(ctx context.Context, principalID, id string) (*model.Note, error)
	List(ctx context.Context, principalID, propertyID string, limit, offset int) (*NoteListResult, error)
	Update(ctx context.Context, principalID, id string, in NoteInput) (*model.Note, error)
	Delete(ctx context.Context, principalID, id string) error
}

type noteService struct {
	notes  repository.NoteRepository
	props  repository.PropertyRepository
	engine *authz.Engine
	trail  *audit.Logger
	now    func() time.Time
}

// NewNoteService constructs a NoteService.
func NewNoteService(notes repository.NoteRepository, props repository.PropertyRepository, engine *authz.Engine, trail *audit.Logger) NoteService {
	return &noteService{notes: notes, props: props, engine: engine, trail: trail, now: time.Now}
}

func noteRef(n *model.Note) authz.EntityRef {
	return authz.EntityRef{PropertyID: n.PropertyID, Visibility: n.Visibility, CreatorID: n.CreatorID}
}

func (s *noteService) Create(ctx context.Context, principalID, propertyID string, in NoteInput) (*model.Note, error) {
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
	stored, err := s.notes.Create(ctx, &model.Note{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		CreatorID:  principalID,
		Visibility: in.Visibility,
		Title:      in.Title,
		Body:       in.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionCreate, model.EntityNote, stored.ID, nil, snapshot(stored))
	return stored, nil
}

func (s *noteService) Get(ctx context.Context, principalID, id string) (*model.Note, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	n, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, noteRef(n), authz.OpRead); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *noteService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*NoteListResult, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	limit, offset = clampPage(limit, offset)

	tier, err := s.engine.EffectiveTier(ctx, principalID, propertyID)
	if err != nil {
		return nil, err
	}

	res, err := s.notes.ListByProperty(ctx, propertyID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]model.Note, 0, len(res.Items))
	for _, n := range res.Items {
		if authz.Allowed(tier, principalID, noteRef(&n), authz.OpRead) {
			items = append(items, n)
		}
	}
	return &NoteListResult{Items: items, Total: res.Total}, nil
}

func (s *noteService) Update(ctx context.Context, principalID, id string, in NoteInput) (*model.Note, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if !in.Visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	old, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, noteRef(old), authz.OpWrite); err != nil {
		return nil, err
	}

	next := *old
	next.Title = in.Title
	next.Body = in.Body
	next.Visibility = in.Visibility
	next.UpdatedAt = s.now().UTC()

	stored, err := s.notes.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionUpdate, model.EntityNote, stored.ID, snapshot(old), snapshot(stored))
	return stored, nil
}

func (s *noteService) Delete(ctx context.Context, principalID, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	n, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Require(ctx, principalID, noteRef(n), authz.OpWrite); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return err
	}

	s.trail.Record(ctx, principalID, model.ActionDelete, model.EntityNote, n.ID, snapshot(n), nil)
	return nil
}
