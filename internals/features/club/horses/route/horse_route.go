package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/horses/controller"
	"horseclub_backend/internals/helpers/storage"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

// HorseRoutes: read for all staff, write for admin/trainer.
func HorseRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor, files *storage.LocalStore) {
	ctl := controller.NewHorseController(db, audit, files)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("horses"), constants.StaffRoles...)

	g := api.Group("/horses")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Post("/", staff, ctl.Create)
	g.Patch("/:id", staff, ctl.Update)
	g.Delete("/:id", staff, ctl.Delete)
	g.Post("/:id/photo", staff, ctl.UploadPhoto)

	// flat ?id= aliases
	api.Get("/horses-id", ctl.Get)
	api.Patch("/horses-id", staff, ctl.Update)
	api.Delete("/horses-id", staff, ctl.Delete)
}
