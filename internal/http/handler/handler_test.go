package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propcore/internal/apperr"
	"propcore/internal/http/middleware"
	"propcore/internal/jobs"
	"propcore/internal/model"
	"propcore/internal/repository"
	repoMocks "propcore/internal/repository/mocks"
	"propcore/internal/service"
	serviceMocks "propcore/internal/service/mocks"
)

type handlerFixture struct {
	app           *fiber.App
	properties    *serviceMocks.MockPropertyService
	relationships *serviceMocks.MockRelationshipService
	documents     *serviceMocks.MockDocumentService
	notes         *serviceMocks.MockNoteService
	tasks         *serviceMocks.MockTaskService
	lookups       *serviceMocks.MockLookupService
	sweeps        *serviceMocks.MockSweepService
	audits        *serviceMocks.MockAuditService
	jobRepo       *repoMocks.MockJobRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		properties:    new(serviceMocks.MockPropertyService),
		relationships: new(serviceMocks.MockRelationshipService),
		documents:     new(serviceMocks.MockDocumentService),
		notes:         new(serviceMocks.MockNoteService),
		tasks:         new(serviceMocks.MockTaskService),
		lookups:       new(serviceMocks.MockLookupService),
		sweeps:        new(serviceMocks.MockSweepService),
		audits:        new(serviceMocks.MockAuditService),
		jobRepo:       new(repoMocks.MockJobRepository),
	}

	queue := jobs.NewQueue(f.jobRepo, 3, nil)
	queue.SetLogOutput(io.Discard)

	f.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	f.app.Use(middleware.RequestID())
	f.app.Use(middleware.Principal())

	h := &Handler{
		Properties:    f.properties,
		Relationships: f.relationships,
		Documents:     f.documents,
		Notes:         f.notes,
		Tasks:         f.tasks,
		Lookups:       f.lookups,
		Sweeps:        f.sweeps,
		Audits:        f.audits,
		Queue:         queue,
	}
	h.Register(f.app)
	return f
}

func doRequest(t *testing.T, app *fiber.App, method, target, principal string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != "" {
		req.Header.Set(middleware.PrincipalHeader, principal)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealthEndpoints(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	h := &Handler{DB: db}
	h.Register(app)

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		resp := doRequest(t, app, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp := doRequest(t, app, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("liveness", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestClaimProperty(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("created", func(t *testing.T) {
		in := service.PropertyInput{AddressLine1: "1 Main St", Postcode: "AB1 2CD"}
		expected := &model.Property{ID: uuid.NewString(), AddressLine1: "1 Main St", Completion: 40}
		f.properties.On("Claim", mock.Anything, "alice", in).Return(expected, nil).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/properties", "alice", in)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got model.Property
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, expected.ID, got.ID)
		f.properties.AssertExpectations(t)
	})

	t.Run("anonymous rejected as validation error", func(t *testing.T) {
		in := service.PropertyInput{AddressLine1: "1 Main St", Postcode: "AB1 2CD"}
		f.properties.On("Claim", mock.Anything, "", in).Return(nil, service.ErrPrincipalRequired).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/properties", "", in)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/properties", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})
}

func TestGetProperty_ReadErrorMasking(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.NewString()

	t.Run("forbidden presents as not found", func(t *testing.T) {
		f.properties.On("Get", mock.Anything, "mallory", id).Return(nil, apperr.ErrForbidden).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/properties/"+id, "mallory", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("missing presents as not found", func(t *testing.T) {
		f.properties.On("Get", mock.Anything, "alice", id).Return(nil, apperr.ErrNotFound).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/properties/"+id, "alice", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodGet, "/properties/not-a-uuid", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestUpdateProperty_WriteErrorsAreDistinct(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.NewString()
	in := service.PropertyInput{AddressLine1: "2 New Rd"}

	t.Run("forbidden stays 403", func(t *testing.T) {
		f.properties.On("Update", mock.Anything, "bob", id, in).Return(nil, apperr.ErrForbidden).Once()

		resp := doRequest(t, f.app, http.MethodPut, "/properties/"+id, "bob", in)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
	})

	t.Run("missing stays 404", func(t *testing.T) {
		f.properties.On("Update", mock.Anything, "alice", id, in).Return(nil, apperr.ErrNotFound).Once()

		resp := doRequest(t, f.app, http.MethodPut, "/properties/"+id, "alice", in)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAddRelationship(t *testing.T) {
	f := newHandlerFixture(t)
	propertyID := uuid.NewString()

	t.Run("created", func(t *testing.T) {
		rel := &model.Relationship{ID: uuid.NewString(), PropertyID: propertyID, PrincipalID: "bob", Tier: model.TierOccupier}
		f.relationships.On("Add", mock.Anything, "alice", propertyID, "bob", model.TierOccupier).Return(rel, nil).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/properties/"+propertyID+"/relationships", "alice",
			fiber.Map{"principal_id": "bob", "tier": "occupier"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		f.relationships.AssertExpectations(t)
	})

	t.Run("duplicate grant conflicts", func(t *testing.T) {
		f.relationships.On("Add", mock.Anything, "alice", propertyID, "bob", model.TierOccupier).
			Return(nil, apperr.ErrConflict).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/properties/"+propertyID+"/relationships", "alice",
			fiber.Map{"principal_id": "bob", "tier": "occupier"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decodeError(t, resp).Error.Code)
	})

	t.Run("last owner removal conflicts", func(t *testing.T) {
		relID := uuid.NewString()
		f.relationships.On("Remove", mock.Anything, "alice", relID).Return(apperr.ErrConflict).Once()

		resp := doRequest(t, f.app, http.MethodDelete, "/relationships/"+relID, "alice", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestUploadDocument(t *testing.T) {
	f := newHandlerFixture(t)
	propertyID := uuid.NewString()

	buildMultipart := func(t *testing.T, visibility string) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		part, err := w.CreateFormFile("file", "deed.pdf")
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4 fake"))
		if visibility != "" {
			require.NoError(t, w.WriteField("visibility", visibility))
		}
		require.NoError(t, w.Close())
		return body, w.FormDataContentType()
	}

	t.Run("created with explicit visibility", func(t *testing.T) {
		expected := &model.Document{ID: uuid.NewString(), Filename: "deed.pdf", Visibility: model.VisibilityShared}
		f.documents.On("Upload", mock.Anything, "alice", propertyID, mock.Anything, "deed.pdf", mock.Anything, mock.Anything, model.VisibilityShared).
			Return(expected, nil).Once()

		body, ct := buildMultipart(t, "shared")
		req := httptest.NewRequest(http.MethodPost, "/properties/"+propertyID+"/documents", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.PrincipalHeader, "alice")
		resp, err := f.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		f.documents.AssertExpectations(t)
	})

	t.Run("visibility defaults to private", func(t *testing.T) {
		expected := &model.Document{ID: uuid.NewString(), Visibility: model.VisibilityPrivate}
		f.documents.On("Upload", mock.Anything, "alice", propertyID, mock.Anything, "deed.pdf", mock.Anything, mock.Anything, model.VisibilityPrivate).
			Return(expected, nil).Once()

		body, ct := buildMultipart(t, "")
		req := httptest.NewRequest(http.MethodPost, "/properties/"+propertyID+"/documents", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.PrincipalHeader, "alice")
		resp, err := f.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		f.documents.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodPost, "/properties/"+propertyID+"/documents", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})
}

func TestListDocuments(t *testing.T) {
	f := newHandlerFixture(t)
	propertyID := uuid.NewString()

	t.Run("page returned", func(t *testing.T) {
		res := &service.DocumentListResult{
			Items: []model.Document{{ID: uuid.NewString(), Filename: "deed.pdf"}},
			Total: 1,
		}
		f.documents.On("List", mock.Anything, "alice", propertyID, 10, 0).Return(res, nil).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/properties/"+propertyID+"/documents", "alice", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Len(t, got.Items, 1)
		assert.Equal(t, 1, got.Total)
	})

	t.Run("invalid pagination", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodGet, "/properties/"+propertyID+"/documents?limit=abc", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_PAGINATION", decodeError(t, resp).Error.Code)
	})
}

func TestDownloadDocument(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.NewString()

	doc := &model.Document{ID: id, Filename: "deed.pdf", ContentType: "application/pdf", Size: 5}
	f.documents.On("Download", mock.Anything, "alice", id).
		Return(io.NopCloser(bytes.NewReader([]byte("hello"))), doc, nil).Once()

	resp := doRequest(t, f.app, http.MethodGet, "/documents/"+id+"/content", "alice", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="deed.pdf"`)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(body))
}

func TestPresignDocument(t *testing.T) {
	f := newHandlerFixture(t)
	id := uuid.NewString()

	t.Run("default expiry", func(t *testing.T) {
		f.documents.On("Presign", mock.Anything, "alice", id, 900*time.Second).
			Return("https://storage.local/presigned", nil).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/documents/"+id+"/presign", "alice", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got map[string]any
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, "https://storage.local/presigned", got["url"])
		assert.EqualValues(t, 900, got["expires_in_sec"])
	})

	t.Run("invalid expiry", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodGet, "/documents/"+id+"/presign?expiry_sec=-5", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_EXPIRY", decodeError(t, resp).Error.Code)
	})
}

func TestLookup(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("providers listed", func(t *testing.T) {
		f.lookups.On("Providers").Return([]string{"epc", "flood"}).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/lookups", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got map[string][]string
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, []string{"epc", "flood"}, got["data"])
	})

	t.Run("payload passed through", func(t *testing.T) {
		payload := json.RawMessage(`{"rating":"B"}`)
		f.lookups.On("Lookup", mock.Anything, "epc", map[string]string{"postcode": "AB12CD"}).
			Return(payload, nil).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/lookups/epc?postcode=AB12CD", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"rating":"B"}`, string(body))
	})

	t.Run("unknown provider", func(t *testing.T) {
		f.lookups.On("Lookup", mock.Anything, "crime", map[string]string{}).
			Return(nil, service.ErrUnknownProvider).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/lookups/crime", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "UNKNOWN_PROVIDER", decodeError(t, resp).Error.Code)
	})

	t.Run("upstream failure without stale entry", func(t *testing.T) {
		f.lookups.On("Lookup", mock.Anything, "epc", map[string]string{}).
			Return(nil, apperr.ErrUpstream).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/lookups/epc", "", nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "UPSTREAM_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestListAuditEvents(t *testing.T) {
	f := newHandlerFixture(t)
	entityID := uuid.NewString()

	t.Run("events returned for an authorized caller", func(t *testing.T) {
		f.audits.On("ListByEntity", mock.Anything, "alice", model.EntityProperty, entityID, 10, 0).
			Return(&repository.PageResult[model.AuditEvent]{
				Items: []model.AuditEvent{{ID: uuid.NewString(), Action: model.ActionClaim}},
				Total: 1,
			}, nil).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/audit/property/"+entityID, "alice", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		f.audits.AssertExpectations(t)
	})

	t.Run("unauthorized caller gets 404 without event data", func(t *testing.T) {
		f.audits.On("ListByEntity", mock.Anything, "", model.EntityNote, entityID, 10, 0).
			Return(nil, apperr.ErrForbidden).Once()

		resp := doRequest(t, f.app, http.MethodGet, "/audit/note/"+entityID, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.NotContains(t, string(body), "data")
		assert.Contains(t, string(body), "NOT_FOUND")
	})

	t.Run("unknown entity type", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodGet, "/audit/widget/"+entityID, "alice", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ENTITY_TYPE", decodeError(t, resp).Error.Code)
	})
}

func TestRunSweep(t *testing.T) {
	f := newHandlerFixture(t)

	report := &service.SweepReport{StuckJobsRequeued: 2, CompletedJobsSwept: 7}
	f.sweeps.On("Run", mock.Anything).Return(report, nil).Once()

	resp := doRequest(t, f.app, http.MethodPost, "/admin/sweep", "ops", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got service.SweepReport
	json.NewDecoder(resp.Body).Decode(&got)
	assert.EqualValues(t, 2, got.StuckJobsRequeued)
	assert.EqualValues(t, 7, got.CompletedJobsSwept)
}

func TestCancelJob(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("cancelled", func(t *testing.T) {
		id := uuid.NewString()
		f.jobRepo.On("Cancel", mock.Anything, id).Return(nil).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/admin/jobs/"+id+"/cancel", "ops", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		f.jobRepo.AssertExpectations(t)
	})

	t.Run("terminal job conflicts", func(t *testing.T) {
		id := uuid.NewString()
		f.jobRepo.On("Cancel", mock.Anything, id).Return(apperr.ErrConflict).Once()

		resp := doRequest(t, f.app, http.MethodPost, "/admin/jobs/"+id+"/cancel", "ops", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("unknown route", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodGet, "/non-existent", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp := doRequest(t, f.app, http.MethodDelete, "/healthz", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}
