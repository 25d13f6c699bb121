package controller

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/features/notifications/model"
	helper "horseclub_backend/internals/helpers"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GET /api/notifications?is_read=&kind=
func (ctl *NotificationController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
	q := ctl.DB.WithContext(c.UserContext()).Model(&model.Notification{})

	if v := strings.TrimSpace(c.Query("is_read")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "is_read must be true/false")
		}
		q = q.Where("is_read = ?", b)
	}
	if k := strings.TrimSpace(c.Query("kind")); k != "" {
		q = q.Where("kind = ?", k)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]model.Notification, 0)
	if err := q.Order(p.OrderClause(map[string]string{"created_at": "created_at"}, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// POST /api/notifications/:id/read (idempotent)
func (ctl *NotificationController) MarkRead(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())
	var n model.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "notification not found")
	}
	if !n.IsRead {
		now := time.Now().UTC()
		if err := db.Model(&n).Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
		}
		n.IsRead = true
		n.ReadAt = &now
	}
	return helper.JsonOK(c, "notification read", n)
}

// POST /api/notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	res := ctl.DB.WithContext(c.UserContext()).
		Model(&model.Notification{}).
		Where("is_read = FALSE").
		Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, res.Error.Error())
	}
	return helper.JsonOK(c, "notifications read", fiber.Map{"updated": res.RowsAffected})
}
