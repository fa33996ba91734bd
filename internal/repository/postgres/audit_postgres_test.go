package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"propcore/internal/model"
	"propcore/internal/repository"
)

var auditTestColumns = []string{
	"id", "actor_id", "action", "entity_type", "entity_id", "old_state", "new_state", "created_at",
}

func TestAuditPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	now := time.Now().UTC()

	ev := &model.AuditEvent{
		ID:         "ev-1",
		ActorID:    "alice",
		Action:     model.ActionClaim,
		EntityType: model.EntityProperty,
		EntityID:   "prop-1",
		NewState:   map[string]any{"postcode": "AB********"},
		CreatedAt:  now,
	}

	rows := sqlmock.NewRows(auditTestColumns).
		AddRow(ev.ID, ev.ActorID, ev.Action, ev.EntityType, ev.EntityID, nil, []byte(`{"postcode":"AB********"}`), now)

	mock.ExpectQuery("INSERT INTO audit_events").
		WithArgs(ev.ID, ev.ActorID, ev.Action, ev.EntityType, ev.EntityID, nil, []byte(`{"postcode":"AB********"}`), now).
		WillReturnRows(rows)

	out, err := repo.Insert(context.Background(), ev)

	assert.NoError(t, err)
	assert.Equal(t, "ev-1", out.ID)
	assert.Nil(t, out.OldState)
	assert.Equal(t, "AB********", out.NewState["postcode"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres_ListByEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_events").
		WithArgs(model.EntityDocument, "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(auditTestColumns).
		AddRow("ev-2", "alice", "share", "document", "doc-1", nil, []byte(`{"visibility":"shared"}`), now).
		AddRow("ev-1", "alice", "upload", "document", "doc-1", nil, nil, now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM audit_events").
		WithArgs(model.EntityDocument, "doc-1", 10, 0).
		WillReturnRows(rows)

	res, err := repo.ListByEntity(context.Background(), model.EntityDocument, "doc-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, model.ActionShare, res.Items[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	cutoff := time.Now().UTC().AddDate(-6, 0, 0)

	mock.ExpectExec("DELETE FROM audit_events").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.EqualValues(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
