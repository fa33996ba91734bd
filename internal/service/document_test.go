package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"propcore/internal/apperr"
	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/jobs"
	"propcore/internal/model"
	"propcore/internal/repository"
	repoMocks "propcore/internal/repository/mocks"
	"propcore/internal/storage"
	storeMocks "propcore/internal/storage/mocks"
)

type documentFixture struct {
	docs  *repoMocks.MockDocumentRepository
	props *repoMocks.MockPropertyRepository
	rels  *repoMocks.MockRelationshipRepository
	jobs  *repoMocks.MockJobRepository
	store *storeMocks.MockStorage
	audit *repoMocks.MockAuditRepository
	trail *audit.Logger
	svc   DocumentService
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		docs:  new(repoMocks.MockDocumentRepository),
		props: new(repoMocks.MockPropertyRepository),
		rels:  new(repoMocks.MockRelationshipRepository),
		jobs:  new(repoMocks.MockJobRepository),
		store: new(storeMocks.MockStorage),
		audit: new(repoMocks.MockAuditRepository),
	}
	f.trail = newTestTrail(f.audit)
	queue := jobs.NewQueue(f.jobs, 3, nil)
	queue.SetLogOutput(io.Discard)
	f.svc = NewDocumentService(f.docs, f.props, f.store, queue, authz.NewEngine(f.rels), f.trail)
	return f
}

func (f *documentFixture) close() { f.trail.Close() }

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("occupier uploads and pipeline fans out", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		r := strings.NewReader("hello world")

		f.props.On("FindByID", ctx, "prop-1").Return(&model.Property{ID: "prop-1"}, nil)
		f.rels.On("TiersFor", ctx, "bob", "prop-1").Return([]model.Tier{model.TierOccupier}, nil)

		f.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".txt")
		}), r, mock.Anything).Return(storage.ObjectInfo{Key: "documents/uuid.txt", Size: 11}, nil)

		f.docs.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
			return d.PropertyID == "prop-1" && d.CreatorID == "bob" &&
				d.Visibility == model.VisibilityPrivate && d.Processing == model.ProcessingPending
		})).Return(&model.Document{ID: "doc-1", StoragePath: "documents/uuid.txt"}, nil)

		f.jobs.On("Insert", ctx, mock.MatchedBy(func(j *model.Job) bool {
			return j.DocumentID == "doc-1"
		})).Return(&model.Job{ID: "job"}, nil).Times(4)

		doc, err := f.svc.Upload(ctx, "bob", "prop-1", r, "deeds.txt", "text/plain", 11, model.VisibilityPrivate)

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		f.jobs.AssertExpectations(t)
	})

	t.Run("interested tier cannot upload", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		f.props.On("FindByID", ctx, "prop-1").Return(&model.Property{ID: "prop-1"}, nil)
		f.rels.On("TiersFor", ctx, "carol", "prop-1").Return([]model.Tier{model.TierInterested}, nil)

		_, err := f.svc.Upload(ctx, "carol", "prop-1", strings.NewReader("x"), "a.txt", "text/plain", 1, model.VisibilityPrivate)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("db failure rolls back storage", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		r := strings.NewReader("hello")
		f.props.On("FindByID", ctx, "prop-1").Return(&model.Property{ID: "prop-1"}, nil)
		f.rels.On("TiersFor", ctx, "bob", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
		f.store.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		f.docs.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		f.store.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Upload(ctx, "bob", "prop-1", r, "a.txt", "text/plain", 5, model.VisibilityShared)
		assert.ErrorContains(t, err, "db save failed")
		f.store.AssertCalled(t, "Delete", ctx, mock.Anything)
	})

	t.Run("nil reader rejected", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		_, err := f.svc.Upload(ctx, "bob", "prop-1", nil, "a.txt", "text/plain", 1, model.VisibilityPrivate)
		assert.ErrorIs(t, err, ErrReaderNil)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	privateDoc := &model.Document{ID: "doc-1", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityPrivate}

	t.Run("stranger denied private document", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		f.docs.On("FindByID", ctx, "doc-1").Return(privateDoc, nil)
		f.rels.On("TiersFor", ctx, "mallory", "prop-1").Return([]model.Tier{}, nil)

		_, err := f.svc.Get(ctx, "mallory", "doc-1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		f.docs.On("FindByID", ctx, "doc-x").Return(nil, apperr.ErrNotFound)

		_, err := f.svc.Get(ctx, "alice", "doc-x")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestDocumentService_List_FiltersUnreadable(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture()
	defer f.close()

	f.rels.On("TiersFor", ctx, "bob", "prop-1").Return([]model.Tier{model.TierOccupier}, nil)
	f.docs.On("ListByProperty", ctx, "prop-1", repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Document]{
			Items: []model.Document{
				{ID: "doc-1", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityPrivate},
				{ID: "doc-2", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityShared},
				{ID: "doc-3", PropertyID: "prop-1", CreatorID: "bob", Visibility: model.VisibilityPublic},
			},
			Total: 3,
		}, nil)

	res, err := f.svc.List(ctx, "bob", "prop-1", 10, 0)

	assert.NoError(t, err)
	assert.Len(t, res.Items, 2, "private document of another creator must be filtered")
	assert.Equal(t, "doc-2", res.Items[0].ID)
	assert.Equal(t, "doc-3", res.Items[1].ID)
}

func TestDocumentService_Download_Audited(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture()

	doc := &model.Document{ID: "doc-1", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityPrivate, StoragePath: "documents/x"}
	f.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
	f.rels.On("TiersFor", ctx, "alice", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
	f.store.On("Get", ctx, "documents/x").
		Return(io.NopCloser(strings.NewReader("content")), storage.ObjectInfo{}, nil)

	rc, got, err := f.svc.Download(ctx, "alice", "doc-1")
	assert.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	rc.Close()

	f.close() // flush before asserting audit writes
	f.audit.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(ev *model.AuditEvent) bool {
		return ev.Action == model.ActionDownload && ev.EntityID == "doc-1"
	}))
}

func TestDocumentService_SetVisibility_AuditsShare(t *testing.T) {
	ctx := context.Background()
	f := newDocumentFixture()

	old := &model.Document{ID: "doc-1", PropertyID: "prop-1", CreatorID: "bob", Visibility: model.VisibilityPrivate}
	f.docs.On("FindByID", ctx, "doc-1").Return(old, nil)
	f.rels.On("TiersFor", ctx, "bob", "prop-1").Return([]model.Tier{model.TierOccupier}, nil)
	f.docs.On("Update", ctx, mock.MatchedBy(func(d *model.Document) bool {
		return d.Visibility == model.VisibilityShared
	})).Return(&model.Document{ID: "doc-1", Visibility: model.VisibilityShared}, nil)

	got, err := f.svc.SetVisibility(ctx, "bob", "doc-1", model.VisibilityShared)
	assert.NoError(t, err)
	assert.Equal(t, model.VisibilityShared, got.Visibility)

	f.close()
	f.audit.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(ev *model.AuditEvent) bool {
		return ev.Action == model.ActionShare
	}))
}

func TestDocumentService_Delete_StorageFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("storage failure keeps record", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		doc := &model.Document{ID: "doc-1", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityPrivate, StoragePath: "documents/x"}
		f.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		f.rels.On("TiersFor", ctx, "alice", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
		f.store.On("Delete", ctx, "documents/x").Return(errors.New("storage fail"))

		err := f.svc.Delete(ctx, "alice", "doc-1")
		assert.ErrorContains(t, err, "delete storage")
		f.docs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("happy path", func(t *testing.T) {
		f := newDocumentFixture()
		defer f.close()

		doc := &model.Document{ID: "doc-1", PropertyID: "prop-1", CreatorID: "alice", Visibility: model.VisibilityPrivate, StoragePath: "documents/x"}
		f.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		f.rels.On("TiersFor", ctx, "alice", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
		f.store.On("Delete", ctx, "documents/x").Return(nil)
		f.docs.On("Delete", ctx, "doc-1").Return(nil)

		assert.NoError(t, f.svc.Delete(ctx, "alice", "doc-1"))
		f.docs.AssertExpectations(t)
	})
}
