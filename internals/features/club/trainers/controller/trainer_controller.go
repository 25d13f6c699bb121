package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/trainers/dto"
	"horseclub_backend/internals/features/club/trainers/model"
	helper "horseclub_backend/internals/helpers"
)

const entityTrainer = "trainer"

type TrainerController struct {
	DB    *gorm.DB
	Audit auditService.Auditor
}

func NewTrainerController(db *gorm.DB, audit auditService.Auditor) *TrainerController {
	return &TrainerController{DB: db, Audit: audit}
}

var trainerSort = map[string]string{
	"full_name":  "full_name",
	"created_at": "created_at",
}

// GET /api/trainers?q=&is_active=&discipline=
func (ctl *TrainerController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "full_name", "asc", helper.DefaultOpts)

	q := ctl.DB.WithContext(c.UserContext()).Model(&model.TrainerModel{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + s + "%"
		q = q.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "is_active must be true/false")
		}
		q = q.Where("is_active = ?", b)
	}
	if d := strings.TrimSpace(c.Query("discipline")); d != "" {
		q = q.Where("? = ANY(disciplines)", helper.NormalizeDiscipline(d))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.TrainerModel
	if err := q.Order(p.OrderClause(trainerSort, "full_name")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

func (ctl *TrainerController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var m model.TrainerModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}
	return helper.JsonOK(c, "ok", m)
}

func (ctl *TrainerController) Create(c *fiber.Ctx) error {
	var req dto.CreateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	m := req.ToModel()
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionCreate,
		EntityType: entityTrainer,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		After:      m,
	})
	return helper.JsonCreated(c, "trainer created", m)
}

func (ctl *TrainerController) Update(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.UpdateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.TrainerModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}
	before := m
	req.Apply(&m)
	if m.FullName == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "full_name cannot be empty")
	}
	if err := db.Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityTrainer,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "trainer updated", m)
}

// DELETE /api/trainers/:id (409 while referenced by a slot/training)
func (ctl *TrainerController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())
	var m model.TrainerModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}
	if err := db.Delete(&model.TrainerModel{}, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "trainer not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entityTrainer,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     m,
	})
	return helper.JsonDeleted(c, "trainer deleted", fiber.Map{"id": m.ID})
}
