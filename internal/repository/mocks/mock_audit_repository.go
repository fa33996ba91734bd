package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"propcore/internal/model"
	"propcore/internal/repository"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, ev *model.AuditEvent) (*model.AuditEvent, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditEvent), args.Error(1)
}

func (m *MockAuditRepository) ListByEntity(ctx context.Context, entityType model.EntityType, entityID string, pq repository.PageQuery) (*repository.PageResult[model.AuditEvent], error) {
	args := m.Called(ctx, entityType, entityID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditEvent]), args.Error(1)
}

func (m *MockAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
