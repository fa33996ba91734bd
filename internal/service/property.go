package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// PropertyInput carries the caller-editable property fields.
type PropertyInput struct {
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2"`
	City          string `json:"city"`
	Postcode      string `json:"postcode"`
	ReferenceCode string `json:"reference_code"`
	Public        bool   `json:"public"`
}

// PropertyListResult is the service-level DTO for paginated properties.
type PropertyListResult struct {
	Items []model.Property `json:"data"`
	Total int              `json:"total"`
}

// PropertyService defines the property use cases.
type PropertyService interface {
	// Claim creates a property with the caller as its owner.
	Claim(ctx context.Context, principalID string, in PropertyInput) (*model.Property, error)

	// Get returns one property the caller may read.
	Get(ctx context.Context, principalID, id string) (*model.Property, error)

	// Update persists caller-editable fields; owner only.
	Update(ctx context.Context, principalID, id string, in PropertyInput) (*model.Property, error)

	// List returns the caller's properties (any relationship), paginated.
	List(ctx context.Context, principalID string, limit, offset int) (*PropertyListResult, error)

	// Unclaim hides the property from public view; owner only. Relationships
	// and entities are kept.
	Unclaim(ctx context.Context, principalID, id string) (*model.Property, error)
}

type propertyService struct {
	props  repository.PropertyRepository
	rels   repository.RelationshipRepository
	engine *authz.Engine
	trail  *audit.Logger
	now    func() time.Time
}

// NewPropertyService constructs a PropertyService.
func NewPropertyService(props repository.PropertyRepository, rels repository.RelationshipRepository, engine *authz.Engine, trail *audit.Logger) PropertyService {
	return &propertyService{props: props, rels: rels, engine: engine, trail: trail, now: time.Now}
}

func (s *propertyService) Claim(ctx context.Context, principalID string, in PropertyInput) (*model.Property, error) {
	if principalID == "" {
		return nil, ErrPrincipalRequired
	}
	if in.AddressLine1 == "" || in.Postcode == "" {
		return nil, ErrAddressRequired
	}

	now := s.now().UTC()
	p := &model.Property{
		ID:            uuid.NewString(),
		AddressLine1:  in.AddressLine1,
		AddressLine2:  in.AddressLine2,
		City:          in.City,
		Postcode:      in.Postcode,
		ReferenceCode: in.ReferenceCode,
		Public:        in.Public,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Completion = completionPct(p)

	stored, err := s.props.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	// A property without an owner is unreachable by the access matrix, so a
	// failed grant rolls the insert back rather than leaving the orphan row.
	if _, err := s.rels.Create(ctx, &model.Relationship{
		ID:          uuid.NewString(),
		PropertyID:  stored.ID,
		PrincipalID: principalID,
		Tier:        model.TierOwner,
		CreatedAt:   now,
	}); err != nil {
		if delErr := s.props.Delete(ctx, stored.ID); delErr != nil {
			return nil, fmt.Errorf("owner grant failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("owner grant failed: %w", err)
	}

	s.trail.Record(ctx, principalID, model.ActionClaim, model.EntityProperty, stored.ID, nil, snapshot(stored))
	return stored, nil
}

func (s *propertyService) Get(ctx context.Context, principalID, id string) (*model.Property, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, authz.PropertyRef(p), authz.OpRead); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *propertyService) Update(ctx context.Context, principalID, id string, in PropertyInput) (*model.Property, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.AddressLine1 == "" || in.Postcode == "" {
		return nil, ErrAddressRequired
	}

	old, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.RequireManage(ctx, principalID, id); err != nil {
		return nil, err
	}

	next := *old
	next.AddressLine1 = in.AddressLine1
	next.AddressLine2 = in.AddressLine2
	next.City = in.City
	next.Postcode = in.Postcode
	next.ReferenceCode = in.ReferenceCode
	next.Public = in.Public
	next.Completion = completionPct(&next)
	next.UpdatedAt = s.now().UTC()

	stored, err := s.props.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionUpdate, model.EntityProperty, stored.ID, snapshot(old), snapshot(stored))
	return stored, nil
}

func (s *propertyService) List(ctx context.Context, principalID string, limit, offset int) (*PropertyListResult, error) {
	if principalID == "" {
		return nil, ErrPrincipalRequired
	}
	limit, offset = clampPage(limit, offset)

	res, err := s.props.ListByPrincipal(ctx, principalID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PropertyListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *propertyService) Unclaim(ctx context.Context, principalID, id string) (*model.Property, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	old, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.RequireManage(ctx, principalID, id); err != nil {
		return nil, err
	}

	next := *old
	next.Public = false
	next.UpdatedAt = s.now().UTC()

	stored, err := s.props.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionUnclaim, model.EntityProperty, stored.ID, snapshot(old), snapshot(stored))
	return stored, nil
}

// completionPct scores how completely the property record is filled in.
func completionPct(p *model.Property) int {
	fields := []string{p.AddressLine1, p.AddressLine2, p.City, p.Postcode, p.ReferenceCode}
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}
