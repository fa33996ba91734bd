package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"propcore/internal/model"
	"propcore/internal/repository"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Insert(ctx context.Context, j *model.Job) (*model.Job, error) {
	args := m.Called(ctx, j)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Job, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Job), args.Error(1)
}

func (m *MockJobRepository) ClaimNext(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) Complete(ctx context.Context, jobID string, result json.RawMessage, derived *repository.DocumentDerived) error {
	args := m.Called(ctx, jobID, result, derived)
	return args.Error(0)
}

func (m *MockJobRepository) Fail(ctx context.Context, jobID, errMsg string) (*model.Job, error) {
	args := m.Called(ctx, jobID, errMsg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *MockJobRepository) Cancel(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockJobRepository) RequeueStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
