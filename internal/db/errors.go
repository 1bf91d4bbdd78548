package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation raised
// by constraint or on column.
func IsUniqueViolation(err error, constraint, column string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	if constraint != "" && pgErr.ConstraintName == constraint {
		return true
	}
	return column != "" && pgErr.ColumnName == column
}
