package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/audit/logs/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func AuditLogRoutes(api fiber.Router, db *gorm.DB) {
	ctl := controller.NewAuditLogController(db)
	api.Get("/audit-logs", authMiddleware.OnlyRoles(constants.RoleErrorAdmin("audit logs"), constants.AdminOnly...), ctl.List)
}
