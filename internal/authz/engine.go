// Package authz implements the authorization engine: a pure decision layer
// over the relationship store. It never mutates state.
package authz

import (
	"context"
	"fmt"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// Operation is the access being requested on an entity.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// EntityRef describes the entity under an access decision: the property it
// belongs to, its visibility, and its creator. For a property itself,
// CreatorID is empty and Visibility reflects the public flag.
type EntityRef struct {
	PropertyID string
	Visibility model.Visibility
	CreatorID  string
}

// PropertyRef builds the EntityRef for a property record.
func PropertyRef(p *model.Property) EntityRef {
	vis := model.VisibilityPrivate
	if p.Public {
		vis = model.VisibilityPublic
	}
	return EntityRef{PropertyID: p.ID, Visibility: vis}
}

// Engine resolves a principal's effective tier on a property and applies the
// tier/visibility/operation matrix.
type Engine struct {
	rels repository.RelationshipRepository
}

// NewEngine constructs an authorization engine over the relationship store.
func NewEngine(rels repository.RelationshipRepository) *Engine {
	return &Engine{rels: rels}
}

// EffectiveTier returns the highest-privilege tier the principal holds on the
// property, or the empty tier when no relationship exists.
func (e *Engine) EffectiveTier(ctx context.Context, principalID, propertyID string) (model.Tier, error) {
	tiers, err := e.rels.TiersFor(ctx, principalID, propertyID)
	if err != nil {
		return "", fmt.Errorf("resolve tiers: %w", err)
	}
	var best model.Tier
	for _, t := range tiers {
		if t.Rank() > best.Rank() {
			best = t
		}
	}
	return best, nil
}

// CanAccess decides whether the principal may perform op on the entity.
// The decision uses only current store state and has no side effects.
func (e *Engine) CanAccess(ctx context.Context, principalID string, ref EntityRef, op Operation) (bool, error) {
	tier, err := e.EffectiveTier(ctx, principalID, ref.PropertyID)
	if err != nil {
		return false, err
	}
	return allowed(tier, principalID, ref, op), nil
}

// Require is CanAccess surfacing a denial as apperr.ErrForbidden, distinct
// from apperr.ErrNotFound so callers choose what to present.
func (e *Engine) Require(ctx context.Context, principalID string, ref EntityRef, op Operation) error {
	ok, err := e.CanAccess(ctx, principalID, ref, op)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

// RequireManage checks a relationship-management operation: adding a
// relationship requires owner tier on the property.
func (e *Engine) RequireManage(ctx context.Context, principalID, propertyID string) error {
	tier, err := e.EffectiveTier(ctx, principalID, propertyID)
	if err != nil {
		return err
	}
	if tier != model.TierOwner {
		return apperr.ErrForbidden
	}
	return nil
}

// RequireRemove checks removal of a relationship row: owner tier on the
// property, or the principal removing their own row.
func (e *Engine) RequireRemove(ctx context.Context, principalID string, rel *model.Relationship) error {
	if rel.PrincipalID == principalID {
		return nil
	}
	return e.RequireManage(ctx, principalID, rel.PropertyID)
}

// Allowed applies the matrix for an already-resolved tier. Callers filtering
// a listing resolve the tier once and reuse it per item.
func Allowed(tier model.Tier, principalID string, ref EntityRef, op Operation) bool {
	return allowed(tier, principalID, ref, op)
}

// allowed applies the tier/visibility/operation matrix:
//
//	owner:      read any; write any entity on the property
//	occupier:   read shared/public; write own entity or shared entity
//	interested: read public only; no writes
//	none:       read public only; no writes
func allowed(tier model.Tier, principalID string, ref EntityRef, op Operation) bool {
	switch op {
	case OpRead:
		switch tier {
		case model.TierOwner:
			return true
		case model.TierOccupier:
			return ref.Visibility == model.VisibilityShared || ref.Visibility == model.VisibilityPublic
		default:
			return ref.Visibility == model.VisibilityPublic
		}
	case OpWrite:
		switch tier {
		case model.TierOwner:
			return true
		case model.TierOccupier:
			if ref.CreatorID != "" && ref.CreatorID == principalID {
				return true
			}
			return ref.Visibility == model.VisibilityShared
		default:
			return false
		}
	}
	return false
}
