package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"propcore/internal/model"
)

var cacheTestColumns = []string{
	"provider", "request_key", "payload", "validation_token", "fetched_at", "ttl_seconds", "stale",
}

func TestCachePostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCachePostgres(db)
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(cacheTestColumns).
			AddRow("epc", "postcode=AB12CD", []byte(`{"rating":"B"}`), "etag-1", now, 86400, false)

		mock.ExpectQuery("SELECT (.+) FROM response_cache").
			WithArgs("epc", "postcode=AB12CD").
			WillReturnRows(rows)

		e, err := repo.Get(ctx, "epc", "postcode=AB12CD")

		assert.NoError(t, err)
		assert.Equal(t, "etag-1", e.ValidationToken)
		assert.False(t, e.Stale)
	})

	t.Run("miss is nil without error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM response_cache").
			WithArgs("epc", "postcode=ZZ99ZZ").
			WillReturnRows(sqlmock.NewRows(cacheTestColumns))

		e, err := repo.Get(ctx, "epc", "postcode=ZZ99ZZ")

		assert.NoError(t, err)
		assert.Nil(t, e)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachePostgres_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCachePostgres(db)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO response_cache").
		WithArgs("flood", "lat=51&lon=0", []byte(`{"risk":"low"}`), "", now, 3600).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Upsert(context.Background(), &model.CacheEntry{
		Provider:   "flood",
		RequestKey: "lat=51&lon=0",
		Payload:    json.RawMessage(`{"risk":"low"}`),
		FetchedAt:  now,
		TTLSeconds: 3600,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachePostgres_Sweeps(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCachePostgres(db)
	now := time.Now().UTC()

	t.Run("mark stale", func(t *testing.T) {
		mock.ExpectExec("UPDATE response_cache").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.MarkStale(context.Background(), now)

		assert.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("delete expired beyond grace", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM response_cache").
			WithArgs(7, now).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.DeleteExpired(context.Background(), 7, now)

		assert.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
