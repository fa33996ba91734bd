package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

var jobTestColumns = []string{
	"id", "document_id", "kind", "status", "attempts", "max_attempts",
	"last_error", "payload", "result", "created_at", "started_at", "completed_at",
}

func TestJobPostgres_ClaimNext(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("claims oldest queued job", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(jobTestColumns).
			AddRow("job-1", "doc-1", "av_scan", "processing", 1, 3, "", []byte(`{}`), nil, now, now, nil)

		mock.ExpectQuery("UPDATE document_jobs").
			WithArgs("av_scan").
			WillReturnRows(rows)

		j, err := repo.ClaimNext(ctx, model.JobAVScan)

		assert.NoError(t, err)
		assert.Equal(t, "job-1", j.ID)
		assert.Equal(t, model.JobProcessing, j.Status)
		assert.Equal(t, 1, j.Attempts)
		assert.NotNil(t, j.StartedAt)
	})

	t.Run("no queued job returns nil without error", func(t *testing.T) {
		mock.ExpectQuery("UPDATE document_jobs").
			WithArgs("").
			WillReturnRows(sqlmock.NewRows(jobTestColumns))

		j, err := repo.ClaimNext(ctx, "")

		assert.NoError(t, err)
		assert.Nil(t, j)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("applies derived fields in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_jobs").
			WithArgs("job-1", []byte(`{"chars":14}`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE documents").
			WithArgs("job-1", nil, "hello property", nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		text := "hello property"
		err := repo.Complete(ctx, "job-1", json.RawMessage(`{"chars":14}`), &repository.DocumentDerived{
			ExtractedText: &text,
		})

		assert.NoError(t, err)
	})

	t.Run("job no longer processing conflicts", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_jobs").
			WithArgs("job-2", []byte(`null`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Complete(ctx, "job-2", json.RawMessage(`null`), nil)

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("below ceiling requeues", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(jobTestColumns).
			AddRow("job-1", "doc-1", "ocr", "queued", 1, 3, "upstream timeout", []byte(`{}`), nil, now, nil, nil)

		mock.ExpectQuery("UPDATE document_jobs").
			WithArgs("job-1", "upstream timeout").
			WillReturnRows(rows)

		j, err := repo.Fail(ctx, "job-1", "upstream timeout")

		assert.NoError(t, err)
		assert.Equal(t, model.JobQueued, j.Status)
		assert.Equal(t, "upstream timeout", j.LastError)
	})

	t.Run("not processing conflicts", func(t *testing.T) {
		mock.ExpectQuery("UPDATE document_jobs").
			WithArgs("job-done", "boom").
			WillReturnRows(sqlmock.NewRows(jobTestColumns))

		j, err := repo.Fail(ctx, "job-done", "boom")

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Nil(t, j)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_Cancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("cancels a queued job", func(t *testing.T) {
		mock.ExpectExec("UPDATE document_jobs").
			WithArgs("job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Cancel(ctx, "job-1"))
	})

	t.Run("terminal job conflicts", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectExec("UPDATE document_jobs").
			WithArgs("job-2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM document_jobs WHERE id = ?").
			WithArgs("job-2").
			WillReturnRows(sqlmock.NewRows(jobTestColumns).
				AddRow("job-2", "doc-1", "ocr", "completed", 1, 3, "", []byte(`{}`), []byte(`{}`), now, now, now))

		assert.ErrorIs(t, repo.Cancel(ctx, "job-2"), apperr.ErrConflict)
	})

	t.Run("missing job is not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE document_jobs").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM document_jobs WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		assert.ErrorIs(t, repo.Cancel(ctx, "missing"), apperr.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_RequeueStuck(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	cutoff := time.Now().UTC().Add(-15 * time.Minute)

	mock.ExpectExec("UPDATE document_jobs").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.RequeueStuck(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_DeleteCompletedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	mock.ExpectExec("DELETE FROM document_jobs").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.DeleteCompletedBefore(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
