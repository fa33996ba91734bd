package service

import (
	"context"

	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// AuditService exposes the audit history of a single entity. The history is
// as sensitive as the entity it describes: snapshots carry the entity's
// (masked) field values, so reading it requires read access on the entity
// itself.
type AuditService interface {
	// ListByEntity returns the entity's audit events, newest first,
	// paginated. The caller must hold read access on the entity; for
	// relationship rows the check falls back to the parent property.
	ListByEntity(ctx context.Context, principalID string, entityType model.EntityType, entityID string, limit, offset int) (*repository.PageResult[model.AuditEvent], error)
}

type auditService struct {
	trail  *audit.Logger
	props  repository.PropertyRepository
	docs   repository.DocumentRepository
	notes  repository.NoteRepository
	tasks  repository.TaskRepository
	rels   repository.RelationshipRepository
	engine *authz.Engine
}

// NewAuditService constructs an AuditService.
func NewAuditService(trail *audit.Logger, props repository.PropertyRepository, docs repository.DocumentRepository, notes repository.NoteRepository, tasks repository.TaskRepository, rels repository.RelationshipRepository, engine *authz.Engine) AuditService {
	return &auditService{trail: trail, props: props, docs: docs, notes: notes, tasks: tasks, rels: rels, engine: engine}
}

func (s *auditService) ListByEntity(ctx context.Context, principalID string, entityType model.EntityType, entityID string, limit, offset int) (*repository.PageResult[model.AuditEvent], error) {
	if entityID == "" {
		return nil, ErrIDRequired
	}
	limit, offset = clampPage(limit, offset)

	ref, err := s.entityRef(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, ref, authz.OpRead); err != nil {
		return nil, err
	}

	return s.trail.ListByEntity(ctx, entityType, entityID, repository.PageQuery{Limit: limit, Offset: offset})
}

// entityRef resolves the access-decision reference for the audited entity.
// The entity must still exist; history of deleted entities is reachable only
// through its parent property once the row is gone.
func (s *auditService) entityRef(ctx context.Context, entityType model.EntityType, entityID string) (authz.EntityRef, error) {
	switch entityType {
	case model.EntityProperty:
		p, err := s.props.FindByID(ctx, entityID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		return authz.PropertyRef(p), nil
	case model.EntityDocument:
		d, err := s.docs.FindByID(ctx, entityID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		return docRef(d), nil
	case model.EntityNote:
		n, err := s.notes.FindByID(ctx, entityID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		return noteRef(n), nil
	case model.EntityTask:
		t, err := s.tasks.FindByID(ctx, entityID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		return taskRef(t), nil
	case model.EntityRelationship:
		rel, err := s.rels.FindByID(ctx, entityID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		p, err := s.props.FindByID(ctx, rel.PropertyID)
		if err != nil {
			return authz.EntityRef{}, err
		}
		return authz.PropertyRef(p), nil
	default:
		return authz.EntityRef{}, ErrInvalidEntityType
	}
}
