package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/jobs"
	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/storage"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the document use cases. Every mutation is audited;
// uploads fan out the processing pipeline.
type DocumentService interface {
	// Upload stores the content, records the document and enqueues all
	// processing jobs. Storage is rolled back if the record cannot be saved.
	Upload(ctx context.Context, principalID, propertyID string, r io.Reader, filename, contentType string, size int64, visibility model.Visibility) (*model.Document, error)

	// Get returns one document the caller may read.
	Get(ctx context.Context, principalID, id string) (*model.Document, error)

	// List returns the property's documents the caller may read, paginated.
	// Items the caller cannot read are filtered out of the page.
	List(ctx context.Context, principalID, propertyID string, limit, offset int) (*DocumentListResult, error)

	// Download streams the document content and audits the access.
	Download(ctx context.Context, principalID, id string) (io.ReadCloser, *model.Document, error)

	// Presign returns a time-limited download URL and audits the access.
	Presign(ctx context.Context, principalID, id string, expiry time.Duration) (string, error)

	// SetVisibility changes who may read the document; audited as a share.
	SetVisibility(ctx context.Context, principalID, id string, visibility model.Visibility) (*model.Document, error)

	// Delete removes the document from storage and from the record store.
	Delete(ctx context.Context, principalID, id string) error

	// Jobs returns the processing jobs for a document the caller may read.
	Jobs(ctx context.Context, principalID, documentID string) ([]model.Job, error)
}

type documentService struct {
	docs   repository.DocumentRepository
	props  repository.PropertyRepository
	store  storage.Storage
	queue  *jobs.Queue
	engine *authz.Engine
	trail  *audit.Logger
	now    func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(docs repository.DocumentRepository, props repository.PropertyRepository, store storage.Storage, queue *jobs.Queue, engine *authz.Engine, trail *audit.Logger) DocumentService {
	return &documentService{docs: docs, props: props, store: store, queue: queue, engine: engine, trail: trail, now: time.Now}
}

func docRef(d *model.Document) authz.EntityRef {
	return authz.EntityRef{PropertyID: d.PropertyID, Visibility: d.Visibility, CreatorID: d.CreatorID}
}

func (s *documentService) Upload(ctx context.Context, principalID, propertyID string, r io.Reader, filename, contentType string, size int64, visibility model.Visibility) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	if !visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	if _, err := s.props.FindByID(ctx, propertyID); err != nil {
		return nil, err
	}
	// Creating an entity is a write on that entity with the caller as creator.
	newRef := authz.EntityRef{PropertyID: propertyID, Visibility: visibility, CreatorID: principalID}
	if err := s.engine.Require(ctx, principalID, newRef, authz.OpWrite); err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	key := filepath.ToSlash(filepath.Join("documents", uuid.NewString()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := s.now().UTC()
	doc := &model.Document{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		CreatorID:   principalID,
		Visibility:  visibility,
		Filename:    filename,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: contentType,
		Processing:  model.ProcessingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	payload, _ := json.Marshal(jobs.Payload{
		StoragePath: stored.StoragePath,
		ContentType: stored.ContentType,
		Filename:    stored.Filename,
		Size:        stored.Size,
	})
	if _, err := s.queue.EnqueueAll(ctx, stored.ID, payload); err != nil {
		return nil, fmt.Errorf("enqueue processing: %w", err)
	}

	s.trail.Record(ctx, principalID, model.ActionUpload, model.EntityDocument, stored.ID, nil, snapshot(stored))
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, principalID, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, docRef(doc), authz.OpRead); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, principalID, propertyID string, limit, offset int) (*DocumentListResult, error) {
	if propertyID == "" {
		return nil, ErrIDRequired
	}
	limit, offset = clampPage(limit, offset)

	tier, err := s.engine.EffectiveTier(ctx, principalID, propertyID)
	if err != nil {
		return nil, err
	}

	res, err := s.docs.ListByProperty(ctx, propertyID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]model.Document, 0, len(res.Items))
	for _, d := range res.Items {
		if authz.Allowed(tier, principalID, docRef(&d), authz.OpRead) {
			items = append(items, d)
		}
	}
	return &DocumentListResult{Items: items, Total: res.Total}, nil
}

func (s *documentService) Download(ctx context.Context, principalID, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, principalID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", doc.StoragePath, err)
	}

	s.trail.Record(ctx, principalID, model.ActionDownload, model.EntityDocument, doc.ID, nil, snapshot(doc))
	return rc, doc, nil
}

func (s *documentService) Presign(ctx context.Context, principalID, id string, expiry time.Duration) (string, error) {
	doc, err := s.Get(ctx, principalID, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	u, err := s.store.PresignGet(ctx, doc.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", doc.StoragePath, err)
	}

	s.trail.Record(ctx, principalID, model.ActionDownload, model.EntityDocument, doc.ID, nil, snapshot(doc))
	return u, nil
}

func (s *documentService) SetVisibility(ctx context.Context, principalID, id string, visibility model.Visibility) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if !visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	old, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Require(ctx, principalID, docRef(old), authz.OpWrite); err != nil {
		return nil, err
	}

	next := *old
	next.Visibility = visibility
	next.UpdatedAt = s.now().UTC()

	stored, err := s.docs.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, principalID, model.ActionShare, model.EntityDocument, stored.ID, snapshot(old), snapshot(stored))
	return stored, nil
}

func (s *documentService) Delete(ctx context.Context, principalID, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Require(ctx, principalID, docRef(doc), authz.OpWrite); err != nil {
		return err
	}

	// Storage first; a failed object delete keeps the record so the reference
	// is not lost.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	s.trail.Record(ctx, principalID, model.ActionDelete, model.EntityDocument, doc.ID, snapshot(doc), nil)
	return nil
}

func (s *documentService) Jobs(ctx context.Context, principalID, documentID string) ([]model.Job, error) {
	if _, err := s.Get(ctx, principalID, documentID); err != nil {
		return nil, err
	}
	return s.queue.ListByDocument(ctx, documentID)
}
