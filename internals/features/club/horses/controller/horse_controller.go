package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/horses/dto"
	"horseclub_backend/internals/features/club/horses/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/storage"
)

const entityHorse = "horse"

type HorseController struct {
	DB    *gorm.DB
	Audit auditService.Auditor
	Files *storage.LocalStore
}

func NewHorseController(db *gorm.DB, audit auditService.Auditor, files *storage.LocalStore) *HorseController {
	return &HorseController{DB: db, Audit: audit, Files: files}
}

var horseSort = map[string]string{
	"name":       "name",
	"birth_year": "birth_year",
	"created_at": "created_at",
}

// GET /api/horses?q=&is_active=&discipline=
func (ctl *HorseController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "name", "asc", helper.DefaultOpts)

	q := ctl.DB.WithContext(c.UserContext()).Model(&model.HorseModel{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + s + "%"
		q = q.Where("name ILIKE ? OR passport_no ILIKE ? OR microchip ILIKE ? OR owner_name ILIKE ?", like, like, like, like)
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

	var rows []model.HorseModel
	if err := q.Order(p.OrderClause(horseSort, "name")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// GET /api/horses/:id
func (ctl *HorseController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var m model.HorseModel
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/horses
func (ctl *HorseController) Create(c *fiber.Ctx) error {
	var req dto.CreateHorseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	m := req.ToModel()
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionCreate,
		EntityType: entityHorse,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		After:      m,
	})
	return helper.JsonCreated(c, "horse created", m)
}

// PATCH /api/horses/:id
func (ctl *HorseController) Update(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.UpdateHorseRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.HorseModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}
	before := m
	req.Apply(&m)
	if m.Name == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "name cannot be empty")
	}
	if err := db.Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityHorse,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "horse updated", m)
}

// DELETE /api/horses/:id
// FK RESTRICT from bookings/trainings/charges → 409
func (ctl *HorseController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())
	var m model.HorseModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}
	if err := db.Delete(&model.HorseModel{}, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}
	if m.PhotoURL != nil && ctl.Files != nil {
		_ = ctl.Files.Delete(*m.PhotoURL)
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entityHorse,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     m,
	})
	return helper.JsonDeleted(c, "horse deleted", fiber.Map{"id": m.ID})
}

// POST /api/horses/:id/photo (multipart, field "photo")
func (ctl *HorseController) UploadPhoto(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "photo file is required")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.HorseModel
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "horse not found")
	}

	url, err := ctl.Files.SaveImageAsWebP(c.UserContext(), "horses/"+m.ID.String(), fh, storage.DefaultPhotoOptions)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}

	before := m
	m.PhotoURL = &url
	if err := db.Model(&m).Update("photo_url", url).Error; err != nil {
		_ = ctl.Files.Delete(url)
		return helper.WriteDBError(c, err, "horse not found")
	}
	if before.PhotoURL != nil {
		_ = ctl.Files.Delete(*before.PhotoURL)
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityHorse,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "photo uploaded", m)
}
