package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes we map to client errors.
const (
	PGUniqueViolation     = "23505"
	PGForeignKeyViolation = "23503"
	PGCheckViolation      = "23514"
)

// PGCode returns the SQLSTATE of a Postgres error, or "".
func PGCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool     { return PGCode(err) == PGUniqueViolation }
func IsForeignKeyViolation(err error) bool { return PGCode(err) == PGForeignKeyViolation }

// ClassifyDBError maps a datastore error to an HTTP status and a client message.
// notFound is the message used for gorm.ErrRecordNotFound.
func ClassifyDBError(err error, notFound string) (int, string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.StatusNotFound, notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PGUniqueViolation:
			return fiber.StatusConflict, "duplicate value: " + pgErr.ConstraintName
		case PGForeignKeyViolation:
			return fiber.StatusConflict, "entity is referenced by other records (" + pgErr.ConstraintName + ")"
		case PGCheckViolation:
			return fiber.StatusBadRequest, "value violates constraint " + pgErr.ConstraintName
		}
	}
	return fiber.StatusInternalServerError, err.Error()
}

// WriteDBError responds with the classified error.
func WriteDBError(c *fiber.Ctx, err error, notFound string) error {
	code, msg := ClassifyDBError(err, notFound)
	return JsonError(c, code, msg)
}
