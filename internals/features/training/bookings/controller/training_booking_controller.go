package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/features/training/bookings/dto"
	"horseclub_backend/internals/features/training/bookings/model"
	trainingService "horseclub_backend/internals/features/training/service"
	helper "horseclub_backend/internals/helpers"
)

type BookingController struct {
	DB   *gorm.DB
	Flow *trainingService.Service
}

func NewBookingController(db *gorm.DB, flow *trainingService.Service) *BookingController {
	return &BookingController{DB: db, Flow: flow}
}

var bookingSort = map[string]string{
	"date":       "s.date",
	"created_at": "training_bookings.created_at",
	"status":     "training_bookings.status",
}

const bookingListSelect = `training_bookings.*,
	s.date AS slot_date, s.start_time AS slot_start_time, s.discipline AS slot_discipline, s.trainer_id AS slot_trainer_id,
	h.name AS horse_name, r.first_name || ' ' || r.last_name AS rider_name`

func (ctl *BookingController) baseQuery(c *fiber.Ctx) *gorm.DB {
	return ctl.DB.WithContext(c.UserContext()).
		Model(&model.TrainingBooking{}).
		Joins("JOIN training_slots s ON s.id = training_bookings.slot_id").
		Joins("LEFT JOIN horses h ON h.id = training_bookings.horse_id").
		Joins("LEFT JOIN riders r ON r.id = training_bookings.rider_id")
}

// GET /api/training-bookings?slot_id=&horse_id=&rider_id=&status=&from=&to=
func (ctl *BookingController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "date", "desc", helper.DefaultOpts)
	q := ctl.baseQuery(c)

	for _, f := range []struct{ key, col string }{
		{"slot_id", "training_bookings.slot_id"},
		{"horse_id", "training_bookings.horse_id"},
		{"rider_id", "training_bookings.rider_id"},
	} {
		id, ok, err := helper.QueryUUID(c, f.key)
		if err != nil {
			return helper.WriteFiberError(c, err)
		}
		if ok {
			q = q.Where(f.col+" = ?", id)
		}
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("status"))); s != "" {
		q = q.Where("training_bookings.status = ?", s)
	}
	from, err := helper.QueryDate(c, "from")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	to, err := helper.QueryDate(c, "to")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	if from != nil {
		q = q.Where("s.date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("s.date <= ?", to.Format("2006-01-02"))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]dto.BookingListItem, 0)
	if err := q.Select(bookingListSelect).
		Order(p.OrderClause(bookingSort, "date")).
		Order("s.start_time ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// GET /api/training-bookings/:id
func (ctl *BookingController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var row dto.BookingListItem
	res := ctl.baseQuery(c).Select(bookingListSelect).Where("training_bookings.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "booking not found")
	}
	return helper.JsonOK(c, "ok", row)
}

// POST /api/training-bookings/:id/cancel  (alias /api/training-bookings-cancel?id=)
func (ctl *BookingController) Cancel(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.CancelBookingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	b, err := ctl.Flow.CancelBooking(c.UserContext(), id, req.Reason, helper.GetActor(c))
	if err != nil {
		return trainingService.WriteError(c, err)
	}
	return helper.JsonOK(c, "booking cancelled", b)
}

// POST /api/training-bookings/:id/mark  (alias /api/training-bookings-mark?id=)
func (ctl *BookingController) Mark(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.MarkBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := ctl.Flow.MarkBooking(c.UserContext(), id, req.Status, helper.GetActor(c))
	if err != nil {
		return trainingService.WriteError(c, err)
	}
	return helper.JsonOK(c, "booking marked", res)
}
