package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/club/trainers/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

// TrainerRoutes: trainer master data is admin-only for writes.
func TrainerRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor) {
	ctl := controller.NewTrainerController(db, audit)
	adminOnly := authMiddleware.OnlyRoles(constants.RoleErrorAdmin("trainers"), constants.AdminOnly...)

	g := api.Group("/trainers")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Post("/", adminOnly, ctl.Create)
	g.Patch("/:id", adminOnly, ctl.Update)
	g.Delete("/:id", adminOnly, ctl.Delete)

	api.Get("/trainers-id", ctl.Get)
	api.Patch("/trainers-id", adminOnly, ctl.Update)
	api.Delete("/trainers-id", adminOnly, ctl.Delete)
}
