package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Package postgres contains PostgreSQL implementations of the repository
// interfaces. database/sql with parameterized queries, no business logic.

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
