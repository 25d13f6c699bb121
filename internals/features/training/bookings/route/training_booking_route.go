package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/training/bookings/controller"
	trainingService "horseclub_backend/internals/features/training/service"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func TrainingBookingRoutes(api fiber.Router, db *gorm.DB, flow *trainingService.Service) {
	ctl := controller.NewBookingController(db, flow)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("training bookings"), constants.StaffRoles...)

	g := api.Group("/training-bookings")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Post("/:id/cancel", staff, ctl.Cancel)
	g.Post("/:id/mark", staff, ctl.Mark)

	api.Get("/training-bookings-id", ctl.Get)
	api.Post("/training-bookings-cancel", staff, ctl.Cancel)
	api.Post("/training-bookings-mark", staff, ctl.Mark)
}
