package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propcore/internal/apperr"
	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// RelationshipService manages which principals stand in which tier to a
// property.
type RelationshipService interface {
	// Add grants targetPrincipal the given tier on the property; caller must
	// be an owner. Duplicate grants return apperr.ErrConflict.
	Add(ctx context.Context, principalID, propertyID, targetPrincipal string, tier model.Tier) (*model.Relationship, error)

	// Remove deletes one relationship row. Owners may remove anyone;
	// non-owners may remove only their own row. Removing the last owner of a
	// property returns apperr.ErrConflict.
	Remove(ctx context.Context, principalID, relationshipID string) error

	// List returns all relationships on a property the caller may read.
	List(ctx context.Context, principalID, propertyID string) ([]model.Relationship, error)
}

type relationshipService struct {
	rels   repository.RelationshipRepository
	props  repository.PropertyRepository
	engine *authz.Engine
	trail  *audit.Logger
	now    func() time.Time
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(rels repository.RelationshipRepository, props repository.PropertyRepository, engine *authz.Engine, trail *audit.Logger) RelationshipService {
	return &relationshipService{rels: rels, props: props, engine: engine, trail: trail, now: time.Now}
}

func (s *relationshipService) Add(ctx context.Context, principalID, propertyID, targetPrincipal string, tier model.Tier) (*model.Relationship, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	if targetPrincipal == "" {
		return nil, ErrPrincipalRequired
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}

	if _, err := s.props.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}
	if err := s.engine.RequireManage(ctx, principalID, propertyID); err != nil {
		return nil, err
	}

	stored, err := s.rels.Create(ctx, &model.Relationship{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		PrincipalID: targetPrincipal,
		Tier:        tier,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionCreate, model.EntityRelationship, stored.ID, nil, snapshot(stored))
	return stored, nil
}

func (s *relationshipService) Remove(ctx context.Context, principalID, relationshipID string) error {
	if relationshipID == "" {
		return ErrIDRequired
	}

	rel, err := s.rels.FindByID(ctx, relationshipID)
	if err != nil {
		return err
	}
	if err := s.engine.RequireRemove(ctx, principalID, rel); err != nil {
		return err
	}

	// A property must always keep at least one owner.
	if rel.Tier == model.TierOwner {
		owners, err := s.rels.CountByTier(ctx, rel.PropertyID, model.TierOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return fmt.Errorf("property %s would lose its last owner: %w", rel.PropertyID, apperr.ErrConflict)
		}
	}

	if err := s.rels.Delete(ctx, relationshipID); err != nil {
		return err
	}

	s.trail.Record(ctx, principalID, model.ActionDelete, model.EntityRelationship, rel.ID, snapshot(rel), nil)
	return nil
}

func (s *relationshipService) List(ctx context.Context, principalID, propertyID string) ([]model.Relationship, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	p, err := s.props.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, authz.PropertyRef(p), authz.OpRead); err != nil {
		return nil, err
	}
	return s.rels.ListByProperty(ctx, propertyID)
}
