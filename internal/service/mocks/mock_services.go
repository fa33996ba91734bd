package mocks

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/service"
)

// MockPropertyService is a testify mock for service.PropertyService.
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Claim(ctx context.Context, principalID string, in service.PropertyInput) (*model.Property, error) {
	args := m.Called(ctx, principalID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Get(ctx context.Context, principalID, id string) (*model.Property, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, principalID, id string, in service.PropertyInput) (*model.Property, error) {
	args := m.Called(ctx, principalID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) List(ctx context.Context, principalID string, limit, offset int) (*service.PropertyListResult, error) {
	args := m.Called(ctx, principalID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PropertyListResult), args.Error(1)
}

func (m *MockPropertyService) Unclaim(ctx context.Context, principalID, id string) (*model.Property, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

// MockRelationshipService is a testify mock for service.RelationshipService.
type MockRelationshipService struct {
	mock.Mock
}

func (m *MockRelationshipService) Add(ctx context.Context, principalID, propertyID, targetPrincipal string, tier model.Tier) (*model.Relationship, error) {
	args := m.Called(ctx, principalID, propertyID, targetPrincipal, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Relationship), args.Error(1)
}

func (m *MockRelationshipService) Remove(ctx context.Context, principalID, relationshipID string) error {
	args := m.Called(ctx, principalID, relationshipID)
	return args.Error(0)
}

func (m *MockRelationshipService) List(ctx context.Context, principalID, propertyID string) ([]model.Relationship, error) {
	args := m.Called(ctx, principalID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Relationship), args.Error(1)
}

// MockDocumentService is a testify mock for service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, principalID, propertyID string, r io.Reader, filename, contentType string, size int64, visibility model.Visibility) (*model.Document, error) {
	args := m.Called(ctx, principalID, propertyID, r, filename, contentType, size, visibility)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, principalID, id string) (*model.Document, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, principalID, propertyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, principalID, id string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, principalID, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(1) != nil {
		doc = args.Get(1).(*model.Document)
	}
	return rc, doc, args.Error(2)
}

func (m *MockDocumentService) Presign(ctx context.Context, principalID, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, principalID, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) SetVisibility(ctx context.Context, principalID, id string, visibility model.Visibility) (*model.Document, error) {
	args := m.Called(ctx, principalID, id, visibility)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, principalID, id string) error {
	args := m.Called(ctx, principalID, id)
	return args.Error(0)
}

func (m *MockDocumentService) Jobs(ctx context.Context, principalID, documentID string) ([]model.Job, error) {
	args := m.Called(ctx, principalID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Job), args.Error(1)
}

// MockNoteService is a testify mock for service.NoteService.
type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) Create(ctx context.Context, principalID, propertyID string, in service.NoteInput) (*model.Note, error) {
	args := m.Called(ctx, principalID, propertyID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Get(ctx context.Context, principalID, id string) (*model.Note, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*service.NoteListResult, error) {
	args := m.Called(ctx, principalID, propertyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NoteListResult), args.Error(1)
}

func (m *MockNoteService) Update(ctx context.Context, principalID, id string, in service.NoteInput) (*model.Note, error) {
	args := m.Called(ctx, principalID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, principalID, id string) error {
	args := m.Called(ctx, principalID, id)
	return args.Error(0)
}

// MockTaskService is a testify mock for service.TaskService.
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, principalID, propertyID string, in service.TaskInput) (*model.Task, error) {
	args := m.Called(ctx, principalID, propertyID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, principalID, id string) (*model.Task, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*service.TaskListResult, error) {
	args := m.Called(ctx, principalID, propertyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskListResult), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, principalID, id string, in service.TaskInput) (*model.Task, error) {
	args := m.Called(ctx, principalID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, principalID, id string) error {
	args := m.Called(ctx, principalID, id)
	return args.Error(0)
}

// MockLookupService is a testify mock for service.LookupService.
type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) Lookup(ctx context.Context, provider string, params map[string]string) (json.RawMessage, error) {
	args := m.Called(ctx, provider, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockLookupService) Providers() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockAuditService is a testify mock for service.AuditService.
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) ListByEntity(ctx context.Context, principalID string, entityType model.EntityType, entityID string, limit, offset int) (*repository.PageResult[model.AuditEvent], error) {
	args := m.Called(ctx, principalID, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditEvent]), args.Error(1)
}

// MockSweepService is a testify mock for service.SweepService.
type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) ReapJobs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSweepService) Run(ctx context.Context) (*service.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepReport), args.Error(1)
}
