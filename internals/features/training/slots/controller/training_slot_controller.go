package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	trainingService "horseclub_backend/internals/features/training/service"
	"horseclub_backend/internals/features/training/slots/dto"
	"horseclub_backend/internals/features/training/slots/model"
	helper "horseclub_backend/internals/helpers"
)

const entitySlot = "training_slot"

const bookedCountSelect = "training_slots.*, " +
	"(SELECT COUNT(*) FROM training_bookings b WHERE b.slot_id = training_slots.id AND b.status = 'booked') AS booked_count"

type SlotController struct {
	DB    *gorm.DB
	Audit auditService.Auditor
	Flow  *trainingService.Service
}

func NewSlotController(db *gorm.DB, audit auditService.Auditor, flow *trainingService.Service) *SlotController {
	return &SlotController{DB: db, Audit: audit, Flow: flow}
}

var slotSort = map[string]string{
	"date":       "training_slots.date",
	"start_time": "training_slots.start_time",
	"created_at": "training_slots.created_at",
}

// GET /api/training-slots?from=&to=&status=&trainer_id=&discipline=
func (ctl *SlotController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "date", "asc", helper.DefaultOpts)

	q := ctl.DB.WithContext(c.UserContext()).Model(&model.TrainingSlot{})
	from, err := helper.QueryDate(c, "from")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	to, err := helper.QueryDate(c, "to")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	if from != nil {
		q = q.Where("training_slots.date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("training_slots.date <= ?", to.Format("2006-01-02"))
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("status"))); s != "" {
		q = q.Where("training_slots.status = ?", s)
	}
	if d := strings.TrimSpace(c.Query("discipline")); d != "" {
		q = q.Where("training_slots.discipline = ?", helper.NormalizeDiscipline(d))
	}
	trainerID, ok, err := helper.QueryUUID(c, "trainer_id")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	if ok {
		q = q.Where("training_slots.trainer_id = ?", trainerID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	rows := make([]dto.SlotResponse, 0)
	if err := q.Select(bookedCountSelect).
		Order(p.OrderClause(slotSort, "date")).
		Order("training_slots.start_time ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// GET /api/training-slots/:id (including its bookings)
func (ctl *SlotController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())

	var row dto.SlotResponse
	res := db.Model(&model.TrainingSlot{}).Select(bookedCountSelect).Where("training_slots.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "slot not found")
	}

	var bookings []bookingModel.TrainingBooking
	if err := db.Where("slot_id = ?", id).Order("created_at ASC").Find(&bookings).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", fiber.Map{"slot": row, "bookings": bookings})
}

// POST /api/training-slots
func (ctl *SlotController) Create(c *fiber.Ctx) error {
	var req dto.CreateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	m, err := req.ToModel()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "slot not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionCreate,
		EntityType: entitySlot,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		After:      m,
	})
	return helper.JsonCreated(c, "slot created", m)
}

// PATCH /api/training-slots/:id
// Capacity cannot drop below the active booking count.
func (ctl *SlotController) Update(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.UpdateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	var before, after model.TrainingSlot
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := lockSlot(tx, id, &after); err != nil {
			return err
		}
		before = after
		if err := req.Apply(&after); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Capacity != nil && after.Capacity < before.Capacity {
			var active int64
			if err := tx.Model(&bookingModel.TrainingBooking{}).
				Where("slot_id = ? AND status = ?", id, constants.BookingBooked).
				Count(&active).Error; err != nil {
				return err
			}
			if int64(after.Capacity) < active {
				return fiber.NewError(fiber.StatusConflict, "capacity is below the number of active bookings")
			}
		}
		return tx.Save(&after).Error
	})
	if err != nil {
		return writeTxError(c, err)
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entitySlot,
		EntityID:   &after.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      after,
	})
	return helper.JsonUpdated(c, "slot updated", after)
}

// DELETE /api/training-slots/:id
// Rejected while active bookings exist; cancelled bookings are removed with it.
func (ctl *SlotController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}

	var m model.TrainingSlot
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := lockSlot(tx, id, &m); err != nil {
			return err
		}
		var active int64
		if err := tx.Model(&bookingModel.TrainingBooking{}).
			Where("slot_id = ? AND status = ?", id, constants.BookingBooked).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fiber.NewError(fiber.StatusConflict, "slot has active bookings")
		}
		if err := tx.Where("slot_id = ? AND status = ?", id, constants.BookingCancelled).
			Delete(&bookingModel.TrainingBooking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TrainingSlot{}, "id = ?", id).Error
	})
	if err != nil {
		return writeTxError(c, err)
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entitySlot,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     m,
	})
	return helper.JsonDeleted(c, "slot deleted", fiber.Map{"id": m.ID})
}

// POST /api/training-slots/:id/book  (alias /api/training-slots-book?id=)
func (ctl *SlotController) Book(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var in trainingService.BookInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.JsonValidationError(c, err)
	}

	booking, err := ctl.Flow.BookSlot(c.UserContext(), id, in, helper.GetActor(c))
	if err != nil {
		return trainingService.WriteError(c, err)
	}
	return helper.JsonCreated(c, "booking created", booking)
}

func lockSlot(tx *gorm.DB, id any, out *model.TrainingSlot) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(out, "id = ?", id).Error
}

// writeTxError: *fiber.Error as is, anything else is classified as a DB error.
func writeTxError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	return helper.WriteDBError(c, err, "slot not found")
}
