package database

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	auditModel "horseclub_backend/internals/features/audit/logs/model"
	horseModel "horseclub_backend/internals/features/club/horses/model"
	riderModel "horseclub_backend/internals/features/club/riders/model"
	trainerModel "horseclub_backend/internals/features/club/trainers/model"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
	notificationModel "horseclub_backend/internals/features/notifications/model"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	slotModel "horseclub_backend/internals/features/training/slots/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
	authModel "horseclub_backend/internals/features/users/auth/model"
)

// constraintSQL runs after AutoMigrate; every statement is idempotent.
var constraintSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	// one active booking per (slot, horse, rider)
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_training_bookings_active
		ON training_bookings (slot_id, horse_id, rider_id)
		WHERE status <> 'cancelled'`,

	`ALTER TABLE billing_charges DROP CONSTRAINT IF EXISTS ck_billing_charges_status`,
	`ALTER TABLE billing_charges ADD CONSTRAINT ck_billing_charges_status CHECK (status IN ('unpaid','paid','void'))`,
}

type foreignKey struct {
	table, column, refTable, onDelete string
}

var foreignKeys = []foreignKey{
	{"training_slots", "trainer_id", "trainers", "RESTRICT"},
	{"training_bookings", "slot_id", "training_slots", "RESTRICT"},
	{"training_bookings", "horse_id", "horses", "RESTRICT"},
	{"training_bookings", "rider_id", "riders", "RESTRICT"},
	{"training_bookings", "training_id", "trainings", "RESTRICT"},
	{"trainings", "horse_id", "horses", "RESTRICT"},
	{"trainings", "rider_id", "riders", "RESTRICT"},
	{"trainings", "trainer_id", "trainers", "RESTRICT"},
	{"trainings", "source_booking_id", "training_bookings", "RESTRICT"},
	{"trainings", "billing_charge_id", "billing_charges", "SET NULL"},
	{"billing_charges", "training_id", "trainings", "RESTRICT"},
	{"billing_charges", "booking_id", "training_bookings", "RESTRICT"},
	{"billing_charges", "rider_id", "riders", "RESTRICT"},
	{"billing_charges", "horse_id", "horses", "RESTRICT"},
	{"billing_charges", "pricing_rule_id", "pricing_rules", "RESTRICT"},
	{"pricing_rules", "rider_id", "riders", "RESTRICT"},
	{"pricing_rules", "horse_id", "horses", "RESTRICT"},
}

func (fk foreignKey) name() string { return "fk_" + fk.table + "_" + fk.column }

func (fk foreignKey) sql() []string {
	return []string{
		`ALTER TABLE ` + fk.table + ` DROP CONSTRAINT IF EXISTS ` + fk.name(),
		`ALTER TABLE ` + fk.table + ` ADD CONSTRAINT ` + fk.name() +
			` FOREIGN KEY (` + fk.column + `) REFERENCES ` + fk.refTable + `(id) ON DELETE ` + fk.onDelete,
	}
}

// Migrate creates/updates the tables, then adds FKs & the partial index.
func Migrate(db *gorm.DB) error {
	log := configs.Log.WithField("component", "migrate")

	// models carry no relation fields; FKs are added by hand below
	mdb := db.Session(&gorm.Session{})

	if err := mdb.Exec(constraintSQL[0]).Error; err != nil {
		return errors.Wrap(err, "enable pgcrypto")
	}

	if err := mdb.AutoMigrate(
		&authModel.Admin{},
		&authModel.TokenBlacklist{},
		&horseModel.HorseModel{},
		&riderModel.RiderModel{},
		&trainerModel.TrainerModel{},
		&slotModel.TrainingSlot{},
		&bookingModel.TrainingBooking{},
		&trainingModel.Training{},
		&pricingModel.PricingRule{},
		&chargeModel.BillingCharge{},
		&auditModel.AuditLog{},
		&notificationModel.Notification{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	stmts := append([]string{}, constraintSQL[1:]...)
	for _, fk := range foreignKeys {
		stmts = append(stmts, fk.sql()...)
	}
	err := mdb.Transaction(func(tx *gorm.DB) error {
		for _, s := range stmts {
			if err := tx.Exec(s).Error; err != nil {
				return errors.Wrapf(err, "exec %.60q", s)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("constraints", len(stmts)).Info("schema migrated")
	return nil
}
