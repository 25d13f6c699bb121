package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/riders/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func RiderRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor) {
	ctl := controller.NewRiderController(db, audit)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("riders"), constants.StaffRoles...)

	g := api.Group("/riders")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Post("/", staff, ctl.Create)
	g.Patch("/:id", staff, ctl.Update)
	g.Delete("/:id", staff, ctl.Delete)

	api.Get("/riders-id", ctl.Get)
	api.Patch("/riders-id", staff, ctl.Update)
	api.Delete("/riders-id", staff, ctl.Delete)
}
