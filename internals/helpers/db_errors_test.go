package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyDBError(t *testing.T) {
	wrapped := func(code, constraint string) error {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: code, ConstraintName: constraint})
	}

	code, msg := ClassifyDBError(gorm.ErrRecordNotFound, "horse not found")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "horse not found", msg)

	code, msg = ClassifyDBError(wrapped(PGUniqueViolation, "uq_training_bookings_active"), "")
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Contains(t, msg, "uq_training_bookings_active")

	code, _ = ClassifyDBError(wrapped(PGForeignKeyViolation, "fk_trainings_horse_id"), "")
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = ClassifyDBError(wrapped(PGCheckViolation, "chk_training_slots_capacity"), "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, msg = ClassifyDBError(errors.New("connection reset"), "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "connection reset", msg)

	assert.True(t, IsUniqueViolation(wrapped(PGUniqueViolation, "x")))
	assert.False(t, IsForeignKeyViolation(wrapped(PGUniqueViolation, "x")))
	assert.Equal(t, "", PGCode(errors.New("plain")))
}
