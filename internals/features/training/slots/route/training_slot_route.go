package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	trainingService "horseclub_backend/internals/features/training/service"
	"horseclub_backend/internals/features/training/slots/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func TrainingSlotRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor, flow *trainingService.Service) {
	ctl := controller.NewSlotController(db, audit, flow)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("training slots"), constants.StaffRoles...)

	g := api.Group("/training-slots")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Post("/", staff, ctl.Create)
	g.Patch("/:id", staff, ctl.Update)
	g.Delete("/:id", staff, ctl.Delete)
	g.Post("/:id/book", staff, ctl.Book)

	api.Get("/training-slots-id", ctl.Get)
	api.Patch("/training-slots-id", staff, ctl.Update)
	api.Delete("/training-slots-id", staff, ctl.Delete)
	api.Post("/training-slots-book", staff, ctl.Book)
}
