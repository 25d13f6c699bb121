package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/features/audit/logs/model"
	helper "horseclub_backend/internals/helpers"
)

type AuditLogController struct {
	DB *gorm.DB
}

func NewAuditLogController(db *gorm.DB) *AuditLogController {
	return &AuditLogController{DB: db}
}

// GET /api/audit-logs?entity_type=&entity_id=&action=&actor_id=&from=&to=
// Read-only; audit rows are never changed or deleted through the API.
func (ctl *AuditLogController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)
	q := ctl.DB.WithContext(c.UserContext()).Model(&model.AuditLog{})

	if s := strings.TrimSpace(c.Query("entity_type")); s != "" {
		q = q.Where("entity_type = ?", s)
	}
	if s := strings.TrimSpace(c.Query("action")); s != "" {
		q = q.Where("action = ?", s)
	}
	for _, key := range []string{"entity_id", "actor_id"} {
		id, ok, err := helper.QueryUUID(c, key)
		if err != nil {
			return helper.WriteFiberError(c, err)
		}
		if ok {
			q = q.Where(key+" = ?", id)
		}
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
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]model.AuditLog, 0)
	if err := q.Order(p.OrderClause(map[string]string{"created_at": "created_at"}, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}
