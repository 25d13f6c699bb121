package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/riders/dto"
	"horseclub_backend/internals/features/club/riders/model"
	helper "horseclub_backend/internals/helpers"
)

const entityRider = "rider"

type RiderController struct {
	DB    *gorm.DB
	Audit auditService.Auditor
}

func NewRiderController(db *gorm.DB, audit auditService.Auditor) *RiderController {
	return &RiderController{DB: db, Audit: audit}
}

var riderSort = map[string]string{
	"last_name":  "last_name",
	"first_name": "first_name",
	"created_at": "created_at",
}

// GET /api/riders?q=&is_active=
func (ctl *RiderController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "last_name", "asc", helper.DefaultOpts)

	q := ctl.DB.WithContext(c.UserContext()).Model(&model.RiderModel{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + s + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR license_no ILIKE ?", like, like, like, like)
	}
	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "is_active must be true/false")
		}
		q = q.Where("is_active = ?", b)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	var rows []model.RiderModel
	if err := q.Order(p.OrderClause(riderSort, "last_name")).Order("first_name ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// GET /api/riders/:id
func (ctl *RiderController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var m model.RiderModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/riders
func (ctl *RiderController) Create(c *fiber.Ctx) error {
	var req dto.CreateRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	m, err := req.ToModel()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "birth_date must be YYYY-MM-DD")
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionCreate,
		EntityType: entityRider,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		After:      m,
	})
	return helper.JsonCreated(c, "rider created", m)
}

// PATCH /api/riders/:id
func (ctl *RiderController) Update(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.UpdateRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.RiderModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}
	before := m
	if err := req.Apply(&m); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "birth_date must be YYYY-MM-DD")
	}
	if m.FirstName == "" || m.LastName == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "first_name and last_name cannot be empty")
	}
	if err := db.Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityRider,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "rider updated", m)
}

// DELETE /api/riders/:id
func (ctl *RiderController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())
	var m model.RiderModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}
	if err := db.Delete(&model.RiderModel{}, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "rider not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entityRider,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     m,
	})
	return helper.JsonDeleted(c, "rider deleted", fiber.Map{"id": m.ID})
}
