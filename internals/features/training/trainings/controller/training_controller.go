package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/training/trainings/dto"
	"horseclub_backend/internals/features/training/trainings/model"
	helper "horseclub_backend/internals/helpers"
)

const entityTraining = "training"

type TrainingController struct {
	DB    *gorm.DB
	Audit auditService.Auditor
}

func NewTrainingController(db *gorm.DB, audit auditService.Auditor) *TrainingController {
	return &TrainingController{DB: db, Audit: audit}
}

var trainingSort = map[string]string{
	"training_date": "training_date",
	"created_at":    "created_at",
}

// GET /api/trainings?horse_id=&rider_id=&trainer_id=&status=&billing_status=&from=&to=
func (ctl *TrainingController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "training_date", "desc", helper.DefaultOpts)
	q := ctl.DB.WithContext(c.UserContext()).Model(&model.Training{})

	for _, key := range []string{"horse_id", "rider_id", "trainer_id"} {
		id, ok, err := helper.QueryUUID(c, key)
		if err != nil {
			return helper.WriteFiberError(c, err)
		}
		if ok {
			q = q.Where(key+" = ?", id)
		}
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("status"))); s != "" {
		q = q.Where("status = ?", s)
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("billing_status"))); s != "" {
		q = q.Where("billing_status = ?", s)
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
		q = q.Where("training_date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("training_date <= ?", to.Format("2006-01-02"))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]model.Training, 0)
	if err := q.Order(p.OrderClause(trainingSort, "training_date")).
		Order("start_time DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

func (ctl *TrainingController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var m model.Training
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "training not found")
	}
	return helper.JsonOK(c, "ok", m)
}

// PATCH /api/trainings/:id
func (ctl *TrainingController) Patch(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.PatchTrainingRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.Training
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "training not found")
	}
	before := m
	req.Apply(&m)
	if err := db.Model(&m).Select("status", "trainer_id", "note", "updated_at").Updates(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "training not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityTraining,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "training updated", m)
}
