package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"propcore/internal/model"
)

type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) Create(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	args := m.Called(ctx, rel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindByID(ctx context.Context, id string) (*model.Relationship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) TiersFor(ctx context.Context, principalID, propertyID string) ([]model.Tier, error) {
	args := m.Called(ctx, principalID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tier), args.Error(1)
}

func (m *MockRelationshipRepository) ListByProperty(ctx context.Context, propertyID string) ([]model.Relationship, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) CountByTier(ctx context.Context, propertyID string, tier model.Tier) (int, error) {
	args := m.Called(ctx, propertyID, tier)
	return args.Int(0), args.Error(1)
}

func (m *MockRelationshipRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
