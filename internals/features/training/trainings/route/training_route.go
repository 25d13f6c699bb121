package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/training/trainings/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func TrainingRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor) {
	ctl := controller.NewTrainingController(db, audit)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("trainings"), constants.StaffRoles...)

	g := api.Group("/trainings")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Patch("/:id", staff, ctl.Patch)

	api.Get("/trainings-id", ctl.Get)
	api.Patch("/trainings-id", staff, ctl.Patch)
}
