package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level errors shared by every backend.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrLocked    = errors.New("record is locked")
)

// Postgres SQLSTATE codes we translate.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
