package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"propcore/internal/model"
)

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, provider, key string) (*model.CacheEntry, error) {
	args := m.Called(ctx, provider, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CacheEntry), args.Error(1)
}

func (m *MockCacheRepository) Upsert(ctx context.Context, e *model.CacheEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockCacheRepository) MarkStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) DeleteExpired(ctx context.Context, grace int, now time.Time) (int64, error) {
	args := m.Called(ctx, grace, now)
	return args.Get(0).(int64), args.Error(1)
}
