package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"propcore/internal/apperr"
	"propcore/internal/model"
)

var relationshipTestColumns = []string{"id", "property_id", "principal_id", "tier", "created_at"}

func TestRelationshipPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRelationshipPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	rel := &model.Relationship{
		ID:          "rel-1",
		PropertyID:  "prop-1",
		PrincipalID: "bob",
		Tier:        model.TierOccupier,
		CreatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(relationshipTestColumns).
			AddRow(rel.ID, rel.PropertyID, rel.PrincipalID, rel.Tier, rel.CreatedAt)

		mock.ExpectQuery("INSERT INTO relationships").
			WithArgs(rel.ID, rel.PropertyID, rel.PrincipalID, rel.Tier, rel.CreatedAt).
			WillReturnRows(rows)

		out, err := repo.Create(ctx, rel)

		assert.NoError(t, err)
		assert.Equal(t, model.TierOccupier, out.Tier)
	})

	t.Run("duplicate triple conflicts", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO relationships").
			WithArgs(rel.ID, rel.PropertyID, rel.PrincipalID, rel.Tier, rel.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		out, err := repo.Create(ctx, rel)

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Nil(t, out)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRelationshipPostgres(db)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM relationships WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		rel, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Nil(t, rel)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipPostgres_TiersFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRelationshipPostgres(db)

	rows := sqlmock.NewRows([]string{"tier"}).
		AddRow("interested").
		AddRow("owner")

	mock.ExpectQuery("SELECT tier FROM relationships").
		WithArgs("alice", "prop-1").
		WillReturnRows(rows)

	tiers, err := repo.TiersFor(context.Background(), "alice", "prop-1")

	assert.NoError(t, err)
	assert.Equal(t, []model.Tier{model.TierInterested, model.TierOwner}, tiers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipPostgres_CountByTier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRelationshipPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM relationships").
		WithArgs("prop-1", model.TierOwner).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountByTier(context.Background(), "prop-1", model.TierOwner)

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
