package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForeignKeySQL(t *testing.T) {
	fk := foreignKey{"training_bookings", "slot_id", "training_slots", "RESTRICT"}
	stmts := fk.sql()
	assert.Equal(t, "ALTER TABLE training_bookings DROP CONSTRAINT IF EXISTS fk_training_bookings_slot_id", stmts[0])
	assert.Equal(t, "ALTER TABLE training_bookings ADD CONSTRAINT fk_training_bookings_slot_id FOREIGN KEY (slot_id) REFERENCES training_slots(id) ON DELETE RESTRICT", stmts[1])
}

func TestForeignKeysUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, fk := range foreignKeys {
		assert.False(t, seen[fk.name()], fk.name())
		seen[fk.name()] = true
		assert.Contains(t, []string{"RESTRICT", "SET NULL"}, fk.onDelete)
	}
}
